package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"devkb/internal/categorize"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Categorizer asks Gemini for category, tags, summary and language, and
// falls back to the heuristic rules whenever the model is unavailable or
// returns something unusable. Categorize therefore never fails.
type Categorizer struct {
	client   *genai.Client
	model    string
	fallback *categorize.Heuristic
}

func NewCategorizer(client *genai.Client) *Categorizer {
	return &Categorizer{
		client:   client,
		model:    "gemini-1.5-flash",
		fallback: categorize.NewHeuristic(),
	}
}

func (c *Categorizer) Categorize(ctx context.Context, content string) (*categorize.Result, error) {
	if c.client == nil {
		return c.fallback.Categorize(ctx, content)
	}

	sample := content
	if len(sample) > 3000 {
		sample = sample[:3000]
	}

	prompt := fmt.Sprintf(`Analyze this document and respond with only a JSON object, no other text:
{"category": "<one of: %s>", "tags": ["<up to 5 short tags>"], "summary": "<one sentence>", "language": "<programming language or empty string>"}

Document:
%s`, strings.Join(categorize.Categories, ", "), sample)

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.WarnContext(ctx, "llm categorization failed, using heuristics", "error", err)
		return c.fallback.Categorize(ctx, content)
	}

	raw := responseText(resp)
	match := jsonObjectRe.FindString(raw)
	if match == "" {
		slog.WarnContext(ctx, "llm returned no json, using heuristics")
		return c.fallback.Categorize(ctx, content)
	}

	var parsed struct {
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
		Summary  string   `json:"summary"`
		Language string   `json:"language"`
	}
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		slog.WarnContext(ctx, "llm json unparseable, using heuristics", "error", err)
		return c.fallback.Categorize(ctx, content)
	}
	if !categorize.ValidCategory(parsed.Category) {
		return c.fallback.Categorize(ctx, content)
	}

	if len(parsed.Tags) > 5 {
		parsed.Tags = parsed.Tags[:5]
	}
	return &categorize.Result{
		Category: parsed.Category,
		Tags:     parsed.Tags,
		Summary:  parsed.Summary,
		Language: parsed.Language,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
