package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deepscan/deepscan/internal/api/response"
	"github.com/deepscan/deepscan/internal/store"
	"github.com/deepscan/deepscan/pkg/models"
)

// NewListScansHandler returns an http.HandlerFunc for GET /api/v1/scans.
func NewListScansHandler(svc ScanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := models.ScanFilter{
			Session: q.Get("session"),
			Page:    queryInt(q.Get("page"), 1),
			Limit:   queryInt(q.Get("limit"), 20),
		}
		filter.Normalize()

		scans, total, err := svc.History(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not list scans", nil)
			return
		}

		response.Collection(w, scans, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewGetScanHandler returns an http.HandlerFunc for GET /api/v1/scans/{scanID}.
func NewGetScanHandler(svc ScanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "scanID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"scanID must be a valid UUID", nil)
			return
		}

		record, err := svc.Scan(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "SCAN_NOT_FOUND",
				"No scan with that ID", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not load scan", nil)
			return
		}

		response.JSON(w, record)
	}
}

func queryInt(v string, defaultVal int) int {
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
