package document

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"devkb/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path        string `json:"path"`
		Content     string `json:"content"`
		Title       string `json:"title"`
		ContentType string `json:"content_type"`
		Language    string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(r.Context(), req.Path, req.Content, Overrides{
		Title:       req.Title,
		ContentType: req.ContentType,
		Language:    req.Language,
	})
	if err != nil {
		h.handleServiceError(r.Context(), w, err, req.Path)
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	h.writeJSON(w, status, map[string]interface{}{"data": result})
}

func (h *Handler) IndexDirectory(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Directory  string   `json:"directory"`
		Recursive  *bool    `json:"recursive"`
		Extensions []string `json:"extensions"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Directory == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "directory is required", http.StatusBadRequest)
		return
	}
	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	report, err := h.service.IngestDirectory(r.Context(), req.Directory, recursive, req.Extensions)
	if err != nil {
		h.handleServiceError(r.Context(), w, err, req.Directory)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": report})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		ContentType: r.URL.Query().Get("content_type"),
		Category:    r.URL.Query().Get("category"),
		Language:    r.URL.Query().Get("language"),
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 20),
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result.Documents,
		"meta": map[string]int{
			"total":     result.Total,
			"page":      result.Page,
			"page_size": result.PageSize,
		},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "invalid document id", http.StatusBadRequest)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(r.Context(), w, err, r.PathValue("id"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": detail})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "invalid document id", http.StatusBadRequest)
		return
	}

	var req struct {
		Title    *string   `json:"title"`
		Category *string   `json:"category"`
		Tags     *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.service.Update(r.Context(), id, req.Title, req.Category, req.Tags)
	if err != nil {
		h.handleServiceError(r.Context(), w, err, r.PathValue("id"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": doc})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "invalid document id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(r.Context(), w, err, r.PathValue("id"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": tags})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": categories})
}

func (h *Handler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, subject string) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(ctx, w, "NOT_FOUND", "Document not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEmbedderUnavailable):
		h.writeError(ctx, w, "SERVICE_UNAVAILABLE", "Embedding service unavailable", http.StatusServiceUnavailable)
	default:
		slog.ErrorContext(ctx, "operation failed", "error", err, "subject", subject)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
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

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
