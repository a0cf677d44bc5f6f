package reconcile

import (
	"math"
	"strconv"

	"github.com/deepscan/deepscan/pkg/models"
)

// metricSource maps one canonical metric to the detector method entry and
// sub-score field it is read from, plus the base of its fallback band.
type metricSource struct {
	method   string
	field    string
	fallback float64
}

// The four canonical metrics and where they come from in detector output.
var metricSources = struct {
	facial, lighting, edge, temporal metricSource
}{
	facial:   metricSource{"texture_analysis", "texture_consistency", 85},
	lighting: metricSource{"shadow_analysis", "overall_consistency", 80},
	edge:     metricSource{"blur_analysis", "sharpness_consistency", 90},
	temporal: metricSource{"noise_analysis", "noise_consistency", 75},
}

// extractMetric pulls one sub-score out of the detector's analyses map and
// scales it to 0-100. Any missing link in the chain (entry, field, or a value
// that is not number-like) yields a plausible fallback: base plus a random
// offset in [0, 15). Never fails.
func (r *Reconciler) extractMetric(analyses map[string]models.AnalysisEntry, src metricSource) float64 {
	entry, ok := analyses[src.method]
	if !ok || entry.Result == nil {
		return r.fallbackMetric(src.fallback)
	}
	v, ok := coerceNumber(entry.Result[src.field])
	if !ok {
		return r.fallbackMetric(src.fallback)
	}
	return round2(clamp(v * 100))
}

func (r *Reconciler) fallbackMetric(base float64) float64 {
	return round2(clamp(base + r.random()*15))
}

// coerceNumber accepts the numeric encodings seen in detector payloads:
// JSON numbers (float64), the occasional int from hand-built maps, and
// numbers serialized as strings. NaN and infinities are rejected.
func coerceNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// clamp bounds a score to the canonical 0-100 range.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// round2 rounds to two decimal places, the canonical metric precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
