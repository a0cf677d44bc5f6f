// Package models contains shared data models used across the DeepScan codebase.
package models

// Analysis flags reported by the detector for each method entry.
const (
	FlagPassed     = "Passed"
	FlagSuspicious = "Suspicious"
	FlagError      = "Error"
	FlagSkipped    = "Skipped"
)

// Shape identifies which of the recognized payload variants a RawPayload is.
// Detection order matters: a pass-through record may carry leftover detector
// sections, so it is checked first.
type Shape int

const (
	// ShapePassThrough is an already-reconciled record re-entering the
	// pipeline (a persisted canonical record, or a record processed by an
	// older client). Accepted as pre-canonical; fields pass through without
	// recomputation.
	ShapePassThrough Shape = iota
	// ShapeFull is a complete detector API response: results wrapper plus an
	// AI-generated summary.
	ShapeFull
	// ShapeBare is detector results without the summary wrapper.
	ShapeBare
)

func (s Shape) String() string {
	switch s {
	case ShapePassThrough:
		return "pass-through"
	case ShapeFull:
		return "full"
	default:
		return "bare"
	}
}

// RawPayload is the untrusted, variant-shaped classification outcome.
// Exactly one of three shapes is recognized; Shape() is the discriminator.
// All fields are optional because the payload comes from an external
// detector, a persisted slot, or an older client, with no schema version.
type RawPayload struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`

	// Full shape (detector API response).
	Results *DetectorResults `json:"results,omitempty"`
	Summary *DetectorSummary `json:"summary,omitempty"`

	// Pass-through shape (already-reconciled record).
	AISummary  *DetectorSummary  `json:"aiSummary,omitempty"`
	Analysis   *PassThroughTexts `json:"analysis,omitempty"`
	Narrative  *Narrative        `json:"narrative,omitempty"`
	IsDeepfake *bool             `json:"isDeepfake,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
	Metrics    *RawMetricSet     `json:"metrics,omitempty"`

	// Bare shape (detector results without wrapper).
	Analyses map[string]AnalysisEntry `json:"analyses,omitempty"`
	Overall  *OverallAssessment       `json:"overall_assessment,omitempty"`
}

// Shape discriminates the payload variant. First match wins:
// pass-through markers, then the full results+summary pair, else bare.
func (p *RawPayload) Shape() Shape {
	switch {
	case p.AISummary != nil || p.Analysis != nil || p.Narrative != nil:
		return ShapePassThrough
	case p.Results != nil && p.Summary != nil:
		return ShapeFull
	default:
		return ShapeBare
	}
}

// Failed reports whether the payload itself declares an error, which callers
// treat as total detector failure.
func (p *RawPayload) Failed() bool {
	return p.Status == "error" || p.Error != ""
}

// DetectorResults is the inner results wrapper of a full detector response.
type DetectorResults struct {
	FilePath string                   `json:"file_path,omitempty"`
	Status   string                   `json:"status,omitempty"`
	Analyses map[string]AnalysisEntry `json:"analyses,omitempty"`
	Overall  *OverallAssessment       `json:"overall_assessment,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// AnalysisEntry is one detection method's outcome. Result holds
// method-specific sub-scores in the 0.0-1.0 range; for the AI detection
// entry it also carries label, score and raw_probabilities.
type AnalysisEntry struct {
	Operation   string         `json:"operation,omitempty"`
	Flag        string         `json:"flag,omitempty"`
	Description string         `json:"description,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
}

// OverallAssessment is the detector's aggregate verdict. ConfidenceScore is
// authenticity confidence in 0.0-1.0 (higher = more likely genuine), never
// confidence in the verdict.
type OverallAssessment struct {
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	IsLikelyDeepfake   bool     `json:"is_likely_deepfake,omitempty"`
	SuspiciousAnalyses int      `json:"suspicious_analyses,omitempty"`
	TotalAnalyses      int      `json:"total_analyses,omitempty"`
	Recommendation     string   `json:"recommendation,omitempty"`
	IsSyntheticArtwork bool     `json:"is_synthetic_artwork,omitempty"`
}

// DetectorSummary is the AI-generated summary section. Score is on the
// 0-100 scale, unlike the 0.0-1.0 sub-scores.
type DetectorSummary struct {
	Summary               string         `json:"summary,omitempty"`
	Score                 float64        `json:"score,omitempty"`
	IsDeepfake            *bool          `json:"is_deepfake,omitempty"`
	Recommendation        string         `json:"recommendation,omitempty"`
	TechnicalAnalysis     string         `json:"technical_analysis,omitempty"`
	AIAssessment          string         `json:"ai_assessment,omitempty"`
	ConfidenceExplanation string         `json:"confidence_explanation,omitempty"`
	TechnicalDetails      map[string]any `json:"technical_details,omitempty"`
}

// PassThroughTexts are the narrative texts of records written by older
// clients, which used different key names than the canonical Narrative.
type PassThroughTexts struct {
	Technical    string `json:"technical,omitempty"`
	AI           string `json:"ai,omitempty"`
	AIAssessment string `json:"aiAssessment,omitempty"`
	Confidence   string `json:"confidence,omitempty"`
}

// RawMetricSet is the unvalidated metric block of a pass-through record.
// Pointer fields distinguish an absent metric from a zero one.
type RawMetricSet struct {
	FacialConsistency   *float64 `json:"facialConsistency,omitempty"`
	LightingAnalysis    *float64 `json:"lightingAnalysis,omitempty"`
	EdgeDetection       *float64 `json:"edgeDetection,omitempty"`
	TemporalConsistency *float64 `json:"temporalConsistency,omitempty"`
}
