package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"devkb/features/document"
	"devkb/internal/middleware"
)

type DocumentRepo interface {
	Stats(ctx context.Context) (*document.Stats, error)
}

type ConversationRepo interface {
	Count(ctx context.Context) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type Handler struct {
	docRepo     DocumentRepo
	convRepo    ConversationRepo
	vectorStore VectorStore
}

func NewHandler(d DocumentRepo, c ConversationRepo, v VectorStore) *Handler {
	return &Handler{docRepo: d, convRepo: c, vectorStore: v}
}

type StatsResponse struct {
	TotalDocuments     int            `json:"total_documents"`
	TotalChunks        int            `json:"total_chunks"`
	TotalConversations int            `json:"total_conversations"`
	TotalEmbeddings    int            `json:"total_embeddings"`
	Categories         map[string]int `json:"categories"`
	Languages          map[string]int `json:"languages"`
	Tags               map[string]int `json:"tags"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docStats, err := h.docRepo.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load document stats", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to load document stats", http.StatusInternalServerError)
		return
	}

	convCount, err := h.convRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count conversations", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count conversations", http.StatusInternalServerError)
		return
	}

	// The vector index may lag or be unreachable; report zero rather than
	// failing the whole stats call.
	embCount, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count embeddings", "error", err)
		embCount = 0
	}

	resp := StatsResponse{
		TotalDocuments:     docStats.TotalDocuments,
		TotalChunks:        docStats.TotalChunks,
		TotalConversations: convCount,
		TotalEmbeddings:    embCount,
		Categories:         docStats.Categories,
		Languages:          docStats.Languages,
		Tags:               docStats.Tags,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
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
