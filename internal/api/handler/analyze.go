package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deepscan/deepscan/internal/api/response"
	"github.com/deepscan/deepscan/internal/scan"
	"github.com/deepscan/deepscan/pkg/models"
)

// ScanService defines the interface the handlers depend on.
type ScanService interface {
	Analyze(ctx context.Context, params scan.AnalyzeParams) (*scan.Outcome, error)
	Latest(ctx context.Context, session string) *scan.Outcome
	Metadata(ctx context.Context, session string) (*models.ImageMetadata, bool, error)
	History(ctx context.Context, filter models.ScanFilter) ([]*models.ScanRecord, int, error)
	Scan(ctx context.Context, id uuid.UUID) (*models.ScanRecord, error)
}

// allowedExtensions are the upload types the detector accepts.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// The request carries either a multipart image upload or a JSON body with an
// image URL.
func NewAnalyzeHandler(svc ScanService, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := parseAnalyzeRequest(w, r, maxUploadBytes)
		if !ok {
			return
		}

		outcome, err := svc.Analyze(r.Context(), params)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "ANALYSIS_FAILED",
				"Analysis could not be completed", nil)
			return
		}

		response.JSON(w, outcome)
	}
}

func parseAnalyzeRequest(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (scan.AnalyzeParams, bool) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return parseUpload(w, r, maxUploadBytes)
	}

	var req struct {
		ImageURL string `json:"image_url"`
		Session  string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return scan.AnalyzeParams{}, false
	}
	if req.ImageURL == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"image_url is required when no image is uploaded", nil)
		return scan.AnalyzeParams{}, false
	}

	filename := filepath.Base(req.ImageURL)
	meta := &models.ImageMetadata{
		Filename:   filename,
		Dimensions: "Unknown",
		Format:     "Unknown",
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
		Source:     req.ImageURL,
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		meta.Format = strings.ToUpper(ext)
	}

	return scan.AnalyzeParams{
		Session:  req.Session,
		ImageURL: req.ImageURL,
		Filename: filename,
		Metadata: meta,
	}, true
}

func parseUpload(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (scan.AnalyzeParams, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
			fmt.Sprintf("Upload exceeds the %s limit", formatFileSize(maxUploadBytes)), nil)
		return scan.AnalyzeParams{}, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "image file is required", nil)
		return scan.AnalyzeParams{}, false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("File type %q is not supported", ext), nil)
		return scan.AnalyzeParams{}, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read uploaded image", nil)
		return scan.AnalyzeParams{}, false
	}
	if int64(len(data)) > maxUploadBytes {
		response.Error(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
			fmt.Sprintf("Upload exceeds the %s limit", formatFileSize(maxUploadBytes)), nil)
		return scan.AnalyzeParams{}, false
	}

	return scan.AnalyzeParams{
		Session:  r.FormValue("session"),
		Image:    data,
		Filename: header.Filename,
		Metadata: describeImage(header.Filename, data),
	}, true
}

// describeImage captures display metadata for the uploaded file. Dimensions
// come from decoding the image header only; undecodable uploads still get
// the rest of the fields.
func describeImage(filename string, data []byte) *models.ImageMetadata {
	meta := &models.ImageMetadata{
		Filename:   filename,
		Size:       formatFileSize(int64(len(data))),
		Dimensions: "Unknown",
		Format:     "Unknown",
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		meta.Dimensions = fmt.Sprintf("%d × %d", cfg.Width, cfg.Height)
		meta.Format = strings.ToUpper(format)
		meta.Source = fmt.Sprintf("data:image/%s;base64,%s",
			format, base64.StdEncoding.EncodeToString(data))
	} else if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		meta.Format = strings.ToUpper(ext)
	}

	return meta
}

func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
