package document

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"devkb/internal/categorize"
	"devkb/internal/text"
	"devkb/internal/vector"
)

type Document struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	ContentHash string    `json:"-"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	Language    string    `json:"language,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Tags        []string  `json:"tags"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Chunk struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	ChunkText  string `json:"chunk_text"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Language   string `json:"language,omitempty"`
	Intent     string `json:"intent,omitempty"`
}

// Fingerprint is the content address of a document body. Two ingests of the
// same bytes always produce the same fingerprint regardless of path.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}

type ListFilter struct {
	ContentType string
	Category    string
	Language    string
	Page        int
	PageSize    int
}

type ListResult struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

type Stats struct {
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	Categories     map[string]int `json:"categories"`
	Languages      map[string]int `json:"languages"`
	Tags           map[string]int `json:"tags"`
}

type Repository interface {
	GetByPath(ctx context.Context, path string) (*Document, error)
	GetByID(ctx context.Context, id int64) (*Document, error)
	ListChunks(ctx context.Context, docID int64) ([]Chunk, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	CreateWithChunks(ctx context.Context, doc *Document, chunks []Chunk, replaceID int64, beforeCommit func(docID int64, chunkIDs []int64) error) error
	UpdateMetadata(ctx context.Context, id int64, title, category *string, tags *[]string) (*Document, error)
	Delete(ctx context.Context, id int64) error
	AllTags(ctx context.Context) ([]string, error)
	AllCategories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*Stats, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, rec vector.ChunkRecord) error
	DeleteByDocument(ctx context.Context, docID int64) error
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Categorizer interface {
	Categorize(ctx context.Context, content string) (*categorize.Result, error)
}

type Service struct {
	repo        Repository
	vectors     VectorIndex
	embedder    Embedder
	categorizer Categorizer
	maxSize     int
	overlap     int
}

func NewService(repo Repository, vectors VectorIndex, embedder Embedder, categorizer Categorizer, maxSize, overlap int) *Service {
	return &Service{
		repo:        repo,
		vectors:     vectors,
		embedder:    embedder,
		categorizer: categorizer,
		maxSize:     maxSize,
		overlap:     overlap,
	}
}

type IngestResult struct {
	Document   *Document `json:"document"`
	ChunkCount int       `json:"chunk_count"`
	Skipped    bool      `json:"skipped"`
}

// Overrides are optional caller-supplied metadata for Ingest. A non-empty
// field wins over the inferred value.
type Overrides struct {
	Title       string
	ContentType string
	Language    string
}

var contentTypes = map[string]bool{
	string(text.ContentTypeCode):     true,
	string(text.ContentTypeMarkdown): true,
	string(text.ContentTypePlain):    true,
}

// Ingest classifies, chunks, embeds and persists one document. Re-ingesting
// unchanged content is a no-op. Changed content replaces the previous version
// atomically: the database transaction only commits after the new vectors are
// written, and a rollback leaves the previous rows and vectors in place.
func (s *Service) Ingest(ctx context.Context, path, content string, ov Overrides) (*IngestResult, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	if ov.ContentType != "" && !contentTypes[ov.ContentType] {
		return nil, fmt.Errorf("%w: unknown content_type %q", ErrInvalidInput, ov.ContentType)
	}

	hash := Fingerprint(content)

	existing, err := s.repo.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ContentHash == hash {
		slog.InfoContext(ctx, "document unchanged, skipping", "path", path)
		return &IngestResult{Document: existing, Skipped: true}, nil
	}

	contentType, language := text.Classify(path, content)
	if ov.ContentType != "" {
		contentType = text.ContentType(ov.ContentType)
	}
	if ov.Language != "" {
		language = ov.Language
	}
	chunks := text.ChunkContent(content, contentType, language, s.maxSize, s.overlap)

	cat, err := s.categorizer.Categorize(ctx, content)
	if err != nil {
		slog.WarnContext(ctx, "categorization failed", "error", err, "path", path)
		cat = &categorize.Result{Category: "other"}
	}
	if language == "" {
		language = cat.Language
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedderUnavailable, len(vectors), len(chunks))
	}

	title := ov.Title
	if title == "" {
		title = extractTitle(path, content)
	}

	doc := &Document{
		Path:        path,
		ContentHash: hash,
		Title:       title,
		ContentType: string(contentType),
		Language:    language,
		Summary:     cat.Summary,
		Tags:        cat.Tags,
		Category:    cat.Category,
	}

	rows := make([]Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = Chunk{
			ChunkText: c.Text,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Language:  c.Language,
			Intent:    c.Intent,
		}
	}

	var replaceID int64
	if existing != nil {
		replaceID = existing.ID
	}

	err = s.repo.CreateWithChunks(ctx, doc, rows, replaceID, func(docID int64, _ []int64) error {
		for i, c := range chunks {
			rec := vector.ChunkRecord{
				DocID:      docID,
				ChunkIndex: i,
				Text:       c.Text,
				Vector:     vectors[i],
				Language:   c.Language,
				Intent:     c.Intent,
				Category:   doc.Category,
				Path:       path,
			}
			if err := s.vectors.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("vector upsert failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back. Clean up any vectors written for the
		// aborted document id; the previous version is untouched.
		if doc.ID != 0 {
			if delErr := s.vectors.DeleteByDocument(ctx, doc.ID); delErr != nil {
				slog.WarnContext(ctx, "failed to clean up vectors after rollback", "error", delErr, "doc_id", doc.ID)
			}
		}
		return nil, err
	}

	if replaceID != 0 {
		if err := s.vectors.DeleteByDocument(ctx, replaceID); err != nil {
			slog.WarnContext(ctx, "failed to delete stale vectors", "error", err, "doc_id", replaceID)
		}
	}

	slog.InfoContext(ctx, "document indexed", "path", path, "doc_id", doc.ID, "chunks", len(rows))
	return &IngestResult{Document: doc, ChunkCount: len(rows)}, nil
}

var indexableExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true, ".rs": true,
	".java": true, ".sql": true, ".sh": true, ".json": true, ".yaml": true,
	".toml": true, ".md": true, ".txt": true,
}

type DirectoryReport struct {
	Indexed int      `json:"indexed"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors"`
}

// IngestDirectory walks root and ingests every indexable file. Individual
// file failures are reported, not fatal. An empty extensions list means the
// default indexable set.
func (s *Service) IngestDirectory(ctx context.Context, root string, recursive bool, extensions []string) (*DirectoryReport, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidInput, root)
	}

	allowed := indexableExts
	if len(extensions) > 0 {
		allowed = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowed[strings.ToLower(ext)] = true
		}
	}

	report := &DirectoryReport{Errors: []string{}}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		report.Total++
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the requested root
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", path, err))
			return nil
		}
		if strings.TrimSpace(string(data)) == "" {
			report.Total--
			return nil
		}

		if _, err := s.Ingest(ctx, path, string(data), Overrides{}); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", path, err))
			return nil
		}
		report.Indexed++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

type DocumentDetail struct {
	Document
	Chunks      []Chunk `json:"chunks"`
	TotalChunks int     `json:"total_chunks"`
}

func (s *Service) Get(ctx context.Context, id int64) (*DocumentDetail, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.repo.ListChunks(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch chunks", "error", err, "doc_id", id)
		chunks = []Chunk{}
	}
	if chunks == nil {
		chunks = []Chunk{}
	}

	return &DocumentDetail{
		Document:    *doc,
		Chunks:      chunks,
		TotalChunks: len(chunks),
	}, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	return s.repo.List(ctx, filter)
}

// Update edits document metadata. Content is immutable through this path;
// changed content goes through Ingest.
func (s *Service) Update(ctx context.Context, id int64, title, category *string, tags *[]string) (*Document, error) {
	if title == nil && category == nil && tags == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if category != nil && !categorize.ValidCategory(*category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *category)
	}
	return s.repo.UpdateMetadata(ctx, id, title, category, tags)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.repo.AllTags(ctx)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.AllCategories(ctx)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func extractTitle(path, content string) string {
	if strings.HasSuffix(path, ".md") {
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "# ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "# "))
			}
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(stem)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
