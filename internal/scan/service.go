// Package scan orchestrates detections: it runs the detector, reconciles the
// outcome, and persists both the session slot and the scan history.
package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deepscan/deepscan/internal/cache"
	"github.com/deepscan/deepscan/internal/detector"
	"github.com/deepscan/deepscan/internal/reconcile"
	"github.com/deepscan/deepscan/internal/store"
	"github.com/deepscan/deepscan/pkg/models"
)

// Service coordinates the detector, reconciler and storage layers.
type Service struct {
	detector detector.Client
	cache    cache.Cache
	store    store.Store
	rec      *reconcile.Reconciler
	slotTTL  time.Duration
}

// NewService creates the scan service.
func NewService(d detector.Client, c cache.Cache, s store.Store, rec *reconcile.Reconciler, slotTTL time.Duration) *Service {
	return &Service{detector: d, cache: c, store: s, rec: rec, slotTTL: slotTTL}
}

// AnalyzeParams describes one analysis request. Either Image or ImageURL is
// set; Session defaults to the shared slot.
type AnalyzeParams struct {
	Session  string
	Image    []byte
	Filename string
	ImageURL string
	Metadata *models.ImageMetadata
}

// Outcome is a reconciled result plus how it was obtained.
type Outcome struct {
	Result       *models.AnalysisResult `json:"result"`
	FallbackUsed bool                   `json:"fallbackUsed,omitempty"`
	NoData       bool                   `json:"noData,omitempty"`
	ScanID       uuid.UUID              `json:"scanId,omitempty"`
}

// Analyze runs a detection end to end. Detector failures do not fail the
// request: the outcome degrades to a synthesized result and says so. The
// session slot is replaced unconditionally; last write wins.
func (s *Service) Analyze(ctx context.Context, params AnalyzeParams) (*Outcome, error) {
	session := sessionOrDefault(params.Session)

	image := params.Image
	filename := params.Filename
	if len(image) == 0 && params.ImageURL != "" {
		data, _, err := s.detector.FetchImage(ctx, params.ImageURL)
		if err != nil {
			slog.Warn("image fetch failed, synthesizing result", "session", session, "error", err)
		} else {
			image = data
		}
	}

	var raw *models.RawPayload
	if len(image) > 0 {
		payload, err := s.detector.Detect(ctx, image, filename)
		if err != nil {
			slog.Warn("detector call failed, synthesizing result", "session", session, "error", err)
		} else {
			raw = payload
		}
	}

	result := s.rec.Reconcile(raw)
	outcome := &Outcome{Result: result, FallbackUsed: result.Synthetic}

	if err := s.cache.SetAnalysis(ctx, session, slotPayload(raw, result), s.slotTTL); err != nil {
		slog.Warn("writing analysis slot failed", "session", session, "error", err)
	}
	if params.Metadata != nil {
		if err := s.cache.SetImageMetadata(ctx, session, params.Metadata, s.slotTTL); err != nil {
			slog.Warn("writing image metadata failed", "session", session, "error", err)
		}
	}

	record := &models.ScanRecord{
		ID:         uuid.New(),
		Session:    session,
		Filename:   filename,
		IsDeepfake: result.IsDeepfake,
		Confidence: result.Confidence,
		Synthetic:  result.Synthetic,
		Result:     result,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateScan(ctx, record); err != nil {
		slog.Warn("persisting scan history failed", "session", session, "error", err)
	} else {
		outcome.ScanID = record.ID
	}

	return outcome, nil
}

// Latest returns the reconciled result for a session's current slot. An
// absent slot yields a synthesized result marked NoData.
func (s *Service) Latest(ctx context.Context, session string) *Outcome {
	session = sessionOrDefault(session)

	raw, found, err := s.cache.GetAnalysis(ctx, session)
	if err != nil {
		slog.Warn("reading analysis slot failed, synthesizing result", "session", session, "error", err)
		return &Outcome{Result: s.rec.Synthesize(), FallbackUsed: true}
	}
	if !found {
		return &Outcome{Result: s.rec.Synthesize(), NoData: true}
	}

	result := s.rec.Reconcile(raw)
	result.Metrics = s.rec.Revalidate(result.Metrics)
	return &Outcome{Result: result}
}

// Metadata returns the stored image metadata for a session, if any.
func (s *Service) Metadata(ctx context.Context, session string) (*models.ImageMetadata, bool, error) {
	return s.cache.GetImageMetadata(ctx, sessionOrDefault(session))
}

// History lists persisted scans.
func (s *Service) History(ctx context.Context, filter models.ScanFilter) ([]*models.ScanRecord, int, error) {
	return s.store.ListScans(ctx, filter)
}

// Scan fetches one persisted scan by ID.
func (s *Service) Scan(ctx context.Context, id uuid.UUID) (*models.ScanRecord, error) {
	return s.store.GetScan(ctx, id)
}

// slotPayload picks what goes into the session slot: the detector's raw
// payload when it reconciled to a real result, else the synthesized result
// folded into a pass-through record so later reads reconcile to the same
// values. A failed payload never enters the slot, since reconciling it again
// would draw fresh synthetic values on every read.
func slotPayload(raw *models.RawPayload, result *models.AnalysisResult) *models.RawPayload {
	if raw != nil && !result.Synthetic {
		return raw
	}
	isDeepfake := result.IsDeepfake
	confidence := result.Confidence
	metrics := result.Metrics
	narrative := result.Narrative
	return &models.RawPayload{
		IsDeepfake: &isDeepfake,
		Confidence: &confidence,
		Narrative:  &narrative,
		Metrics: &models.RawMetricSet{
			FacialConsistency:   &metrics.FacialConsistency,
			LightingAnalysis:    &metrics.LightingAnalysis,
			EdgeDetection:       &metrics.EdgeDetection,
			TemporalConsistency: &metrics.TemporalConsistency,
		},
	}
}

func sessionOrDefault(session string) string {
	if session == "" {
		return cache.DefaultSession
	}
	return session
}
