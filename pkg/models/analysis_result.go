package models

import "time"

// AnalysisResult is the canonical record produced by reconciliation. Every
// field is always populated; consumers never see a partial record.
type AnalysisResult struct {
	IsDeepfake  bool        `json:"isDeepfake"`
	Confidence  float64     `json:"confidence"`
	Metrics     MetricSet   `json:"metrics"`
	Narrative   Narrative   `json:"narrative"`
	RawSource   *RawPayload `json:"rawSource,omitempty"`
	Synthetic   bool        `json:"synthetic,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// MetricSet holds the four canonical detection metrics, each on the 0-100
// scale rounded to two decimals.
type MetricSet struct {
	FacialConsistency   float64 `json:"facialConsistency"`
	LightingAnalysis    float64 `json:"lightingAnalysis"`
	EdgeDetection       float64 `json:"edgeDetection"`
	TemporalConsistency float64 `json:"temporalConsistency"`
}

// Narrative holds the three human-readable explanation texts. Reconciliation
// guarantees all three are non-empty.
type Narrative struct {
	Technical           string `json:"technical"`
	ModelAssessment     string `json:"modelAssessment"`
	ConfidenceRationale string `json:"confidenceRationale"`
}
