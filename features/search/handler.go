package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"devkb/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}
	if req.MinSimilarity != nil && (*req.MinSimilarity < 0 || *req.MinSimilarity > 1) {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "min_similarity must be between 0 and 1", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Search(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "search failed", "error", err, "query", req.Query)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	out := map[string]interface{}{
		"data": resp.Results,
		"meta": map[string]interface{}{
			"count": len(resp.Results),
			"mode":  resp.Mode,
		},
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
