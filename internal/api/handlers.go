package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/ecg"
	"github.com/spherical/ecg-extractor/internal/extract"
	"github.com/spherical/ecg-extractor/internal/observability"
	"github.com/spherical/ecg-extractor/internal/pdf"
	"github.com/spherical/ecg-extractor/internal/storage"
)

// recordLister is implemented by stores that can enumerate records.
type recordLister interface {
	List(ctx context.Context, limit int) ([]*domain.Record, error)
}

// FrameHandler handles frame extraction and record lookup.
type FrameHandler struct {
	svc      *extract.Service
	logger   *observability.Logger
	maxBytes int64
}

// NewFrameHandler creates a new frame handler.
func NewFrameHandler(svc *extract.Service, logger *observability.Logger, maxBytes int64) *FrameHandler {
	return &FrameHandler{svc: svc, logger: logger, maxBytes: maxBytes}
}

// ErrorDTO is the body of every error response.
type ErrorDTO struct {
	Error  string `json:"error"`
	Type   string `json:"type,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Extract handles POST /v1/frames. The body is an SVG page; the optional
// mode query parameter selects the layout.
func (h *FrameHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	mode := h.svc.Mode()
	if name := r.URL.Query().Get("mode"); name != "" {
		m, err := ecg.ModeByName(name)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		mode = m
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "page too large", err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}
	if len(body) == 0 {
		h.writeError(w, http.StatusBadRequest, "empty body", "")
		return
	}

	page, err := pdf.PageFromSVG(body)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	rec, err := h.svc.ProcessPage(ctx, page, "", mode, nil)
	if err != nil {
		log.Warn().Err(err).Str("mode", mode.Name).Msg("Frame extraction failed")
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// GetRecord handles GET /v1/records/{id}.
func (h *FrameHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	store := h.svc.Store()
	if store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "record storage is disabled", "")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id", err.Error())
		return
	}

	rec, err := store.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// ListRecords handles GET /v1/records?limit=N.
func (h *FrameHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.svc.Store().(recordLister)
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, "record listing is not available", "")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit", s)
			return
		}
		limit = n
	}

	recs, err := lister.List(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []*domain.Record{}
	}
	h.writeJSON(w, http.StatusOK, recs)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case domain.IsType(err, domain.ErrorTypeUnsupportedMode),
		domain.IsType(err, domain.ErrorTypeValidation),
		domain.IsType(err, domain.ErrorTypeConversion):
		return http.StatusBadRequest
	case domain.IsPageFailure(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *FrameHandler) writeDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}
	msg := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg = de.Message
	}
	detail := ""
	if errors.Unwrap(err) != nil {
		detail = err.Error()
	}
	h.writeJSON(w, status, ErrorDTO{Error: msg, Type: string(domain.TypeOf(err)), Detail: detail})
}

func (h *FrameHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	h.writeJSON(w, status, ErrorDTO{Error: message, Detail: detail})
}

func (h *FrameHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write response")
	}
}
