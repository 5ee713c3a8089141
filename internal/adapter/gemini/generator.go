package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client, model: "gemini-1.5-flash"}
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrNotConfigured
	}
	slog.DebugContext(ctx, "generating response", "model", g.model, "length", len(prompt))

	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}
	return strings.TrimSpace(responseText(resp)), nil
}
