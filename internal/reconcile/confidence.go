package reconcile

import "github.com/deepscan/deepscan/pkg/models"

// detectionMethod is the analyses entry produced by the ML classifier, as
// opposed to the statistical methods. Its score is a fractional authenticity
// confidence like the overall one.
const detectionMethod = "deepfake_detection"

// defaultConfidence is used when no source in the precedence chain yields a
// usable number.
const defaultConfidence = 85

// resolveConfidence walks the confidence precedence chain and normalizes the
// winner to the 0-100 scale. Every source reports an authenticity fraction;
// the summary score is derived from the overall one upstream and is never
// consulted here. Total: the default applies when every source is absent or
// malformed.
func (r *Reconciler) resolveConfidence(p *models.RawPayload, analyses map[string]models.AnalysisEntry) float64 {
	if overall := overallOf(p); overall != nil && overall.ConfidenceScore != nil {
		if v, ok := coerceNumber(*overall.ConfidenceScore); ok {
			return round2(clamp(v * 100))
		}
	}
	if entry, ok := analyses[detectionMethod]; ok && entry.Result != nil {
		if v, ok := classifierConfidence(entry.Result); ok {
			return round2(clamp(v * 100))
		}
	}
	return defaultConfidence
}

// classifierConfidence reads an authenticity fraction out of the classifier
// entry's result map. The explicit real-class probability wins; otherwise the
// score is oriented by its label, since a "fake"-labelled score is confidence
// in the fake class and must be complemented to stay authenticity-oriented.
func classifierConfidence(result map[string]any) (float64, bool) {
	if probs, ok := result["raw_probabilities"].(map[string]any); ok {
		if v, ok := coerceNumber(probs["real"]); ok {
			return v, true
		}
	}
	v, ok := coerceNumber(result["score"])
	if !ok {
		return 0, false
	}
	if label, _ := result["label"].(string); label == "fake" {
		return 1 - v, true
	}
	return v, true
}

// resolveVerdict reads the deepfake boolean from the aggregate assessment.
// Absent means not-a-deepfake.
func resolveVerdict(p *models.RawPayload) bool {
	if overall := overallOf(p); overall != nil {
		return overall.IsLikelyDeepfake
	}
	return false
}

// overallOf returns the aggregate assessment from whichever level carries it.
func overallOf(p *models.RawPayload) *models.OverallAssessment {
	if p.Results != nil && p.Results.Overall != nil {
		return p.Results.Overall
	}
	return p.Overall
}

// analysesOf returns the per-method analyses from whichever level carries
// them.
func analysesOf(p *models.RawPayload) map[string]models.AnalysisEntry {
	if p.Results != nil && p.Results.Analyses != nil {
		return p.Results.Analyses
	}
	return p.Analyses
}
