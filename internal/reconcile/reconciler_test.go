package reconcile

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/deepscan/deepscan/pkg/models"
)

func TestReconcileFullResponse(t *testing.T) {
	p := &models.RawPayload{
		Results: &models.DetectorResults{
			Analyses: map[string]models.AnalysisEntry{
				"texture_analysis": {
					Operation: "Texture Analysis",
					Flag:      models.FlagPassed,
					Result:    map[string]any{"texture_consistency": 0.93},
				},
			},
			Overall: &models.OverallAssessment{
				ConfidenceScore:  f64(0.88),
				IsLikelyDeepfake: false,
			},
		},
		Summary: &models.DetectorSummary{
			Summary: "Looks authentic.",
		},
	}

	got := NewSeeded(1).Reconcile(p)

	if got.IsDeepfake {
		t.Error("IsDeepfake = true, want false")
	}
	if got.Confidence != 88.00 {
		t.Errorf("Confidence = %v, want 88.00", got.Confidence)
	}
	if got.Metrics.FacialConsistency != 93.00 {
		t.Errorf("FacialConsistency = %v, want 93.00", got.Metrics.FacialConsistency)
	}
	if got.Narrative.Technical != "Looks authentic." {
		t.Errorf("Technical = %q, want the summary text", got.Narrative.Technical)
	}
	if got.RawSource != p {
		t.Error("RawSource should reference the input payload")
	}
	if got.Synthetic {
		t.Error("Synthetic = true for a real payload")
	}
	if got.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestReconcileTotality(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.RawPayload
	}{
		{"nil payload", nil},
		{"empty payload", &models.RawPayload{}},
		{"declared error", &models.RawPayload{Status: "error", Error: "model crashed"}},
		{"bare analyses only", &models.RawPayload{Analyses: map[string]models.AnalysisEntry{}}},
		{"results without summary", &models.RawPayload{Results: &models.DetectorResults{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSeeded(1).Reconcile(tt.payload)
			if got == nil {
				t.Fatal("Reconcile() returned nil")
			}
			assertComplete(t, got)
		})
	}
}

func TestReconcileNilAndFailedSynthesize(t *testing.T) {
	for _, p := range []*models.RawPayload{nil, {Status: "error"}, {Error: "timeout"}} {
		got := NewSeeded(1).Reconcile(p)
		if !got.Synthetic {
			t.Errorf("Reconcile(%+v).Synthetic = false, want synthesized result", p)
		}
		if got.RawSource != nil {
			t.Errorf("synthesized result should not carry a raw source")
		}
	}
}

// Reconciling a persisted canonical record must converge: running the
// record through again changes nothing but the timestamp.
func TestReconcileIdempotent(t *testing.T) {
	r := NewSeeded(1)
	first := r.Reconcile(&models.RawPayload{
		Results: &models.DetectorResults{
			Analyses: map[string]models.AnalysisEntry{
				"texture_analysis": {Result: map[string]any{"texture_consistency": 0.93}},
				"shadow_analysis":  {Result: map[string]any{"overall_consistency": 0.8}},
				"blur_analysis":    {Result: map[string]any{"sharpness_consistency": 0.95}},
				"noise_analysis":   {Result: map[string]any{"noise_consistency": 0.75}},
			},
			Overall: &models.OverallAssessment{ConfidenceScore: f64(0.88)},
		},
		Summary: &models.DetectorSummary{Summary: "Looks authentic."},
	})

	// Round-trip through JSON, as a persisted slot would.
	raw, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var stored models.RawPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stored.Shape() != models.ShapePassThrough {
		t.Fatalf("stored record Shape() = %v, want pass-through", stored.Shape())
	}

	second := r.Reconcile(&stored)
	if second.IsDeepfake != first.IsDeepfake || second.Confidence != first.Confidence {
		t.Errorf("verdict changed on second pass: (%v, %v) vs (%v, %v)",
			second.IsDeepfake, second.Confidence, first.IsDeepfake, first.Confidence)
	}
	if second.Metrics != first.Metrics {
		t.Errorf("metrics changed on second pass: %+v vs %+v", second.Metrics, first.Metrics)
	}
	if second.Narrative != first.Narrative {
		t.Errorf("narrative changed on second pass: %+v vs %+v", second.Narrative, first.Narrative)
	}
}

func TestReconcilePassThroughLegacyTexts(t *testing.T) {
	p := &models.RawPayload{
		IsDeepfake: boolPtr(true),
		Confidence: f64(77.5),
		Analysis: &models.PassThroughTexts{
			Technical:  "Old technical text.",
			AI:         "Old model text.",
			Confidence: "Old rationale.",
		},
		Metrics: &models.RawMetricSet{
			FacialConsistency:   f64(88),
			LightingAnalysis:    f64(79),
			EdgeDetection:       f64(91),
			TemporalConsistency: f64(70),
		},
	}

	got := NewSeeded(1).Reconcile(p)
	if !got.IsDeepfake || got.Confidence != 77.5 {
		t.Errorf("verdict = (%v, %v), want (true, 77.5)", got.IsDeepfake, got.Confidence)
	}
	want := models.Narrative{
		Technical:           "Old technical text.",
		ModelAssessment:     "Old model text.",
		ConfidenceRationale: "Old rationale.",
	}
	if got.Narrative != want {
		t.Errorf("Narrative = %+v, want legacy texts %+v", got.Narrative, want)
	}
	if got.Metrics.FacialConsistency != 88 {
		t.Errorf("FacialConsistency = %v, want 88", got.Metrics.FacialConsistency)
	}
}

func TestSynthesize(t *testing.T) {
	r := NewSeeded(99)

	deepfakes := 0
	const n = 2000
	for i := 0; i < n; i++ {
		got := r.Synthesize()
		assertComplete(t, got)
		if !got.Synthetic {
			t.Fatal("Synthesize() result not marked synthetic")
		}
		if got.IsDeepfake {
			deepfakes++
			if got.Confidence < 75 || got.Confidence >= 95 {
				t.Fatalf("deepfake confidence = %v, want within [75, 95)", got.Confidence)
			}
		} else if got.Confidence < 85 || got.Confidence > 100 {
			t.Fatalf("authentic confidence = %v, want within [85, 100]", got.Confidence)
		}
	}

	rate := float64(deepfakes) / n
	if math.Abs(rate-deepfakeRate) > 0.05 {
		t.Errorf("deepfake rate = %v, want about %v", rate, deepfakeRate)
	}
}

func assertComplete(t *testing.T, res *models.AnalysisResult) {
	t.Helper()
	for name, v := range map[string]float64{
		"Confidence":          res.Confidence,
		"FacialConsistency":   res.Metrics.FacialConsistency,
		"LightingAnalysis":    res.Metrics.LightingAnalysis,
		"EdgeDetection":       res.Metrics.EdgeDetection,
		"TemporalConsistency": res.Metrics.TemporalConsistency,
	} {
		if v < 0 || v > 100 || math.IsNaN(v) {
			t.Errorf("%s = %v, want within [0, 100]", name, v)
		}
	}
	if res.Narrative.Technical == "" || res.Narrative.ModelAssessment == "" || res.Narrative.ConfidenceRationale == "" {
		t.Errorf("narrative has empty sections: %+v", res.Narrative)
	}
	if res.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}
