package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nanofield/nanofield/internal/apperr"
	"github.com/nanofield/nanofield/internal/nanoscope"
	"github.com/nanofield/nanofield/internal/scanservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *scanservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *scanservice.Service) *Handler {
	return &Handler{svc: svc}
}

// scanPath extracts the scan path from the URL wildcard. Supports encoded
// slashes from generated clients (e.g. session1%2Fscan.spm).
func scanPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListScans handles GET /api/scans.
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	channel := q.Get("channel")
	sort := q.Get("sort")

	items, total, err := h.svc.ListScans(r.Context(), limit, offset, channel, sort)
	if err != nil {
		slog.Error("list scans failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ScanListResponse{Scans: items, Total: total})
}

// GetScan handles GET /api/scans/*: parsed header metadata for one scan.
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	path := scanPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.GetScan(r.Context(), path)
	if err != nil {
		h.writeScanError(w, path, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetChannel handles GET /api/grids/*?channel=Height[&flatten=1&order=n]:
// the decoded sample grid of one channel, raw or scanline-leveled.
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	path := scanPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()
	channel := q.Get("channel")
	if channel == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'channel' is required"))
		return
	}
	flatten := q.Get("flatten") == "1" || q.Get("flatten") == "true"
	order := 1
	if o := q.Get("order"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'order' must be a non-negative integer"))
			return
		}
		order = n
	}

	data, err := h.svc.DecodeChannel(r.Context(), path, channel, flatten, order)
	if err != nil {
		h.writeScanError(w, path, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]SearchResult, 0, len(results))
	for _, res := range results {
		out = append(out, SearchResult{Path: res.Path, Version: res.Version, Channels: res.Channels})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

// writeScanError maps service and decode errors onto HTTP statuses:
// unknown scans and absent channels are 404, caller mistakes are 400,
// files the decoder rejects are 422.
func (h *Handler) writeScanError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, nanoscope.ErrChannelNotPresent):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, nanoscope.ErrUnsupportedChannel),
		errors.Is(err, nanoscope.ErrInsufficientData):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, nanoscope.ErrUnsupportedVersion), errors.Is(err, nanoscope.ErrStructuralParse),
		errors.Is(err, nanoscope.ErrParameterSyntax), errors.Is(err, nanoscope.ErrMalformedConfig),
		errors.Is(err, nanoscope.ErrShapeMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("scan request failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
