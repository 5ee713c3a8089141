package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devkb/features/search"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrLLMUnavailable = errors.New("llm unavailable")
)

const (
	maxContextChars = 8000

	systemPrompt = `You are a developer knowledge base assistant. Answer the question using only the provided context from indexed documents. If the context does not contain the answer, say so. Reference file paths when relevant.`
)

type Conversation struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type Answer struct {
	Answer         string          `json:"answer"`
	ConversationID int64           `json:"conversation_id,omitempty"`
	Sources        []search.Result `json:"sources"`
}

type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Repository interface {
	Save(ctx context.Context, conv *Conversation) error
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]Conversation, error)
}

type Service struct {
	searcher  Searcher
	generator Generator
	repo      Repository
}

func NewService(searcher Searcher, generator Generator, repo Repository) *Service {
	return &Service{searcher: searcher, generator: generator, repo: repo}
}

// Ask retrieves relevant chunks, builds a bounded context block and asks the
// LLM. The conversation is persisted best-effort; a failed save does not fail
// the answer.
func (s *Service) Ask(ctx context.Context, question string, limit int) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 5
	}

	resp, err := s.searcher.Search(ctx, search.Request{Query: question, Limit: limit})
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(question, resp.Results)
	answer, err := s.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	conv := &Conversation{Query: question, Response: answer}
	if err := s.repo.Save(ctx, conv); err != nil {
		slog.WarnContext(ctx, "failed to save conversation", "error", err)
	}

	return &Answer{Answer: answer, ConversationID: conv.ID, Sources: resp.Results}, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Recent(ctx, limit)
}

func buildPrompt(question string, results []search.Result) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, r := range results {
		block := fmt.Sprintf("File: %s\nTitle: %s\nCategory: %s\n%s\n\n",
			r.Document.Path, r.Document.Title, r.Document.Category, r.Snippet)
		if sb.Len()+len(block) > maxContextChars {
			break
		}
		sb.WriteString(block)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
