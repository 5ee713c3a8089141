package gemini

import (
	"context"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
)

type Embedder struct {
	client *genai.Client
	model  string
}

func NewEmbedder(client *genai.Client) *Embedder {
	return &Embedder{client: client, model: "gemini-embedding-001"}
}

func (e *Embedder) Available() bool {
	return e.client != nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.client == nil {
		return nil, ErrNotConfigured
	}
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding != nil {
		return res.Embedding.Values, nil
	}
	return nil, nil
}

// EmbedBatch embeds all texts in a single request. The result is positional,
// one vector per input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.client == nil {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 {
		return nil, nil
	}
	slog.DebugContext(ctx, "embedding batch", "model", e.model, "count", len(texts))
	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		slog.ErrorContext(ctx, "batch embedding failed", "error", err)
		return nil, err
	}
	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		if emb == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}
