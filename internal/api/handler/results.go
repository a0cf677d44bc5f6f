package handler

import (
	"log/slog"
	"net/http"

	"github.com/deepscan/deepscan/internal/api/response"
	"github.com/deepscan/deepscan/internal/scan"
	"github.com/deepscan/deepscan/pkg/models"
)

// resultsPayload is the body of GET /api/v1/results: the session's current
// outcome plus the image it was produced from, when known.
type resultsPayload struct {
	*scan.Outcome
	Image *models.ImageMetadata `json:"image,omitempty"`
}

// NewResultsHandler returns an http.HandlerFunc for GET /api/v1/results.
// It always answers with a complete result; an absent slot yields a
// synthesized one flagged noData.
func NewResultsHandler(svc ScanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := r.URL.Query().Get("session")

		outcome := svc.Latest(r.Context(), session)

		meta, found, err := svc.Metadata(r.Context(), session)
		if err != nil {
			slog.Warn("reading image metadata failed", "session", session, "error", err)
		}
		if !found {
			// URL-sourced analyses carry their metadata as query
			// parameters instead of the slot.
			meta = queryMetadata(r)
		}

		response.JSON(w, resultsPayload{Outcome: outcome, Image: meta})
	}
}

// queryMetadata rebuilds an image metadata record from query parameters.
// Returns nil when none are present.
func queryMetadata(r *http.Request) *models.ImageMetadata {
	q := r.URL.Query()
	meta := &models.ImageMetadata{
		Filename:   q.Get("filename"),
		Size:       q.Get("size"),
		Dimensions: q.Get("dimensions"),
		Format:     q.Get("format"),
		Source:     q.Get("source"),
	}
	if meta.Filename == "" && meta.Size == "" && meta.Dimensions == "" &&
		meta.Format == "" && meta.Source == "" {
		return nil
	}
	return meta
}
