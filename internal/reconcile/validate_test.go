package reconcile

import (
	"math"
	"testing"

	"github.com/deepscan/deepscan/pkg/models"
)

func TestValidateMetrics(t *testing.T) {
	raw := &models.RawMetricSet{
		FacialConsistency:   f64(150),
		LightingAnalysis:    f64(math.NaN()),
		EdgeDetection:       f64(-5),
		TemporalConsistency: f64(42),
	}

	got := NewSeeded(7).ValidateMetrics(raw)

	if got.FacialConsistency != 100 {
		t.Errorf("FacialConsistency = %v, want 100 (clamped)", got.FacialConsistency)
	}
	if got.LightingAnalysis < 75 || got.LightingAnalysis > 95 {
		t.Errorf("LightingAnalysis = %v, want replacement within [75, 95]", got.LightingAnalysis)
	}
	if got.EdgeDetection != 0 {
		t.Errorf("EdgeDetection = %v, want 0 (clamped)", got.EdgeDetection)
	}
	if got.TemporalConsistency != 42 {
		t.Errorf("TemporalConsistency = %v, want 42 unchanged", got.TemporalConsistency)
	}
}

func TestValidateMetricsNil(t *testing.T) {
	got := NewSeeded(7).ValidateMetrics(nil)

	for name, v := range map[string]float64{
		"FacialConsistency":   got.FacialConsistency,
		"LightingAnalysis":    got.LightingAnalysis,
		"EdgeDetection":       got.EdgeDetection,
		"TemporalConsistency": got.TemporalConsistency,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s = %v, want within [0, 100]", name, v)
		}
	}
}

func TestRevalidateIdempotent(t *testing.T) {
	r := NewSeeded(7)
	m := models.MetricSet{
		FacialConsistency:   93,
		LightingAnalysis:    81.5,
		EdgeDetection:       100,
		TemporalConsistency: 0,
	}

	if got := r.Revalidate(m); got != m {
		t.Errorf("Revalidate() = %+v, want unchanged %+v", got, m)
	}
}
