package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepscan/deepscan/internal/scan"
	"github.com/deepscan/deepscan/pkg/models"
)

func TestResultsHandler_SlotPresent(t *testing.T) {
	var askedSession string
	svc := &mockService{
		latestFn: func(ctx context.Context, session string) *scan.Outcome {
			askedSession = session
			return authenticOutcome()
		},
		metadataFn: func(ctx context.Context, session string) (*models.ImageMetadata, bool, error) {
			return &models.ImageMetadata{Filename: "face.jpg", Format: "JPEG"}, true, nil
		},
	}
	h := NewResultsHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?session=s1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if askedSession != "s1" {
		t.Errorf("session = %q, want s1", askedSession)
	}

	data := decodeData(t, rec)
	result := data["result"].(map[string]any)
	if result["isDeepfake"] != false {
		t.Errorf("isDeepfake = %v, want false", result["isDeepfake"])
	}
	narrative := result["narrative"].(map[string]any)
	if narrative["technical"] != "Looks authentic." {
		t.Errorf("technical = %v", narrative["technical"])
	}
	img := data["image"].(map[string]any)
	if img["filename"] != "face.jpg" {
		t.Errorf("image filename = %v", img["filename"])
	}
}

func TestResultsHandler_NoData(t *testing.T) {
	svc := &mockService{
		latestFn: func(ctx context.Context, session string) *scan.Outcome {
			return &scan.Outcome{
				Result: &models.AnalysisResult{Confidence: 91, Synthetic: true},
				NoData: true,
			}
		},
	}
	h := NewResultsHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with no data", rec.Code)
	}

	data := decodeData(t, rec)
	if data["noData"] != true {
		t.Errorf("noData = %v, want true", data["noData"])
	}
	if _, hasImage := data["image"]; hasImage {
		t.Error("image should be omitted when no metadata is stored")
	}
}

func TestResultsHandler_QueryParamMetadata(t *testing.T) {
	svc := &mockService{
		latestFn: func(ctx context.Context, session string) *scan.Outcome {
			return authenticOutcome()
		},
	}
	h := NewResultsHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/results?filename=remote.png&size=1.2+MB&dimensions=800+%C3%97+600&format=PNG&source=http%3A%2F%2Fexample.com%2Fremote.png", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	img, ok := data["image"].(map[string]any)
	if !ok {
		t.Fatal("expected image metadata rebuilt from query parameters")
	}
	if img["filename"] != "remote.png" {
		t.Errorf("filename = %v", img["filename"])
	}
	if img["dimensions"] != "800 × 600" {
		t.Errorf("dimensions = %v", img["dimensions"])
	}
	if img["source"] != "http://example.com/remote.png" {
		t.Errorf("source = %v", img["source"])
	}
}
