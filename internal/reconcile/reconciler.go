// Package reconcile turns variant detector payloads into canonical analysis
// results. Reconciliation is total: any input, including nil and malformed
// payloads, yields a fully populated result.
package reconcile

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/deepscan/deepscan/pkg/models"
)

// deepfakeRate is the share of synthesized results flagged as deepfakes.
const deepfakeRate = 0.3

// Reconciler produces canonical results from raw payloads. Fallback and
// synthetic values are drawn from its own random source so tests can seed it.
type Reconciler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Reconciler with a time-seeded random source.
func New() *Reconciler {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Reconciler with a deterministic random source.
func NewSeeded(seed int64) *Reconciler {
	return &Reconciler{rng: rand.New(rand.NewSource(seed))}
}

func (r *Reconciler) random() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Reconcile maps a raw payload to a canonical result. A nil payload, a
// payload declaring failure, or a panic while assembling all degrade to a
// synthesized result rather than an error.
func (r *Reconciler) Reconcile(p *models.RawPayload) (result *models.AnalysisResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("reconciliation panicked, synthesizing result", "panic", rec)
			result = r.Synthesize()
		}
	}()

	if p == nil || p.Failed() {
		return r.Synthesize()
	}
	if p.Shape() == models.ShapePassThrough {
		return r.passThrough(p)
	}
	return r.assemble(p)
}

// assemble builds a result from a full or bare detector payload.
func (r *Reconciler) assemble(p *models.RawPayload) *models.AnalysisResult {
	analyses := analysesOf(p)
	isDeepfake := resolveVerdict(p)
	confidence := r.resolveConfidence(p, analyses)

	return &models.AnalysisResult{
		IsDeepfake: isDeepfake,
		Confidence: confidence,
		Metrics: models.MetricSet{
			FacialConsistency:   r.extractMetric(analyses, metricSources.facial),
			LightingAnalysis:    r.extractMetric(analyses, metricSources.lighting),
			EdgeDetection:       r.extractMetric(analyses, metricSources.edge),
			TemporalConsistency: r.extractMetric(analyses, metricSources.temporal),
		},
		Narrative:   composeNarrative(p, isDeepfake, confidence),
		RawSource:   p,
		GeneratedAt: time.Now().UTC(),
	}
}

// passThrough accepts an already-reconciled record, repairing rather than
// recomputing its fields. Valid records survive unchanged apart from the
// timestamp, so reconciling twice converges.
func (r *Reconciler) passThrough(p *models.RawPayload) *models.AnalysisResult {
	isDeepfake := false
	if p.IsDeepfake != nil {
		isDeepfake = *p.IsDeepfake
	} else if summary := p.AISummary; summary != nil && summary.IsDeepfake != nil {
		isDeepfake = *summary.IsDeepfake
	}

	confidence := float64(defaultConfidence)
	if p.Confidence != nil {
		if v, ok := coerceNumber(*p.Confidence); ok {
			confidence = round2(clamp(v))
		}
	} else if p.AISummary != nil {
		if v, ok := coerceNumber(p.AISummary.Score); ok && v != 0 {
			confidence = round2(clamp(v))
		}
	}

	narrative := models.Narrative{}
	if p.Narrative != nil {
		narrative = *p.Narrative
	} else if p.Analysis != nil {
		narrative = models.Narrative{
			Technical:           p.Analysis.Technical,
			ModelAssessment:     firstNonEmpty(p.Analysis.AIAssessment, p.Analysis.AI),
			ConfidenceRationale: p.Analysis.Confidence,
		}
	} else if p.AISummary != nil {
		narrative = composeNarrative(p, isDeepfake, confidence)
	}

	return &models.AnalysisResult{
		IsDeepfake:  isDeepfake,
		Confidence:  confidence,
		Metrics:     r.ValidateMetrics(p.Metrics),
		Narrative:   withFallbacks(narrative, isDeepfake, confidence),
		RawSource:   p,
		GeneratedAt: time.Now().UTC(),
	}
}

// Synthesize fabricates a statistically plausible result for use when no
// detector output exists at all. Synthesized results are marked so callers
// can tell them apart from real ones.
func (r *Reconciler) Synthesize() *models.AnalysisResult {
	isDeepfake := r.random() < deepfakeRate

	var confidence float64
	if isDeepfake {
		confidence = round2(75 + r.random()*20)
	} else {
		confidence = round2(85 + r.random()*15)
	}

	return &models.AnalysisResult{
		IsDeepfake: isDeepfake,
		Confidence: confidence,
		Metrics: models.MetricSet{
			FacialConsistency:   round2(85 + r.random()*15),
			LightingAnalysis:    round2(80 + r.random()*20),
			EdgeDetection:       round2(90 + r.random()*10),
			TemporalConsistency: round2(75 + r.random()*25),
		},
		Narrative:   syntheticNarrative(isDeepfake, confidence),
		Synthetic:   true,
		GeneratedAt: time.Now().UTC(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
