package reconcile

import (
	"math"

	"github.com/deepscan/deepscan/pkg/models"
)

// ValidateMetrics repairs a pass-through metric block. Out-of-range values
// are clamped, and absent or non-finite values are replaced with a plausible
// in-band value for that metric. The returned set is always complete.
func (r *Reconciler) ValidateMetrics(raw *models.RawMetricSet) models.MetricSet {
	if raw == nil {
		raw = &models.RawMetricSet{}
	}
	return models.MetricSet{
		FacialConsistency:   r.validateMetric(raw.FacialConsistency, metricSources.facial.fallback),
		LightingAnalysis:    r.validateMetric(raw.LightingAnalysis, metricSources.lighting.fallback),
		EdgeDetection:       r.validateMetric(raw.EdgeDetection, metricSources.edge.fallback),
		TemporalConsistency: r.validateMetric(raw.TemporalConsistency, metricSources.temporal.fallback),
	}
}

// Revalidate re-checks an already-canonical metric set, for records read back
// from storage. Valid values survive unchanged, so revalidation is
// idempotent.
func (r *Reconciler) Revalidate(m models.MetricSet) models.MetricSet {
	return r.ValidateMetrics(&models.RawMetricSet{
		FacialConsistency:   &m.FacialConsistency,
		LightingAnalysis:    &m.LightingAnalysis,
		EdgeDetection:       &m.EdgeDetection,
		TemporalConsistency: &m.TemporalConsistency,
	})
}

func (r *Reconciler) validateMetric(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return r.fallbackMetric(fallback)
	}
	return round2(clamp(*v))
}
