package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devkb/features/document"
	"devkb/internal/testutils"
)

func TestDocumentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := document.NewPostgresRepo(s.DB)
	ctx := context.Background()

	// 1. Create with chunks
	doc := &document.Document{
		Path:        "src/a.py",
		ContentHash: "hash1",
		Title:       "A",
		ContentType: "code",
		Language:    "python",
		Summary:     "a module",
		Tags:        []string{"python", "utilities"},
		Category:    "utilities",
	}
	chunks := []document.Chunk{
		{ChunkText: "def foo():\n    pass", StartLine: 1, EndLine: 2, Language: "python", Intent: "function"},
		{ChunkText: "def bar():\n    pass", StartLine: 4, EndLine: 5, Language: "python", Intent: "function"},
	}

	var cbDocID int64
	err := repo.CreateWithChunks(ctx, doc, chunks, 0, func(docID int64, chunkIDs []int64) error {
		cbDocID = docID
		assert.Len(t, chunkIDs, 2)
		return nil
	})
	require.NoError(t, err)
	assert.NotZero(t, doc.ID)
	assert.Equal(t, doc.ID, cbDocID)

	// 2. Lookups
	byPath, err := repo.GetByPath(ctx, "src/a.py")
	require.NoError(t, err)
	require.NotNil(t, byPath)
	assert.Equal(t, doc.ID, byPath.ID)
	assert.Equal(t, []string{"python", "utilities"}, byPath.Tags)

	stored, err := repo.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// 3. Replace keeps the path unique and swaps chunks
	replacement := &document.Document{
		Path:        "src/a.py",
		ContentHash: "hash2",
		Title:       "A",
		ContentType: "code",
		Language:    "python",
		Tags:        []string{"python"},
		Category:    "utilities",
	}
	err = repo.CreateWithChunks(ctx, replacement, []document.Chunk{
		{ChunkText: "def baz():\n    pass", StartLine: 1, EndLine: 2, Language: "python", Intent: "function"},
	}, doc.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, doc.ID, replacement.ID)

	// Old chunks went away with the cascade
	oldChunks, err := repo.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, oldChunks)

	newChunks, err := repo.ListChunks(ctx, replacement.ID)
	require.NoError(t, err)
	assert.Len(t, newChunks, 1)

	// 4. A failing beforeCommit leaves the previous version in place
	attempted := &document.Document{
		Path:        "src/a.py",
		ContentHash: "hash3",
		ContentType: "code",
		Tags:        []string{},
		Category:    "other",
	}
	err = repo.CreateWithChunks(ctx, attempted, nil, replacement.ID, func(int64, []int64) error {
		return assert.AnError
	})
	require.Error(t, err)

	current, err := repo.GetByPath(ctx, "src/a.py")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "hash2", current.ContentHash)

	// 5. Metadata update
	title := "Renamed"
	updated, err := repo.UpdateMetadata(ctx, replacement.ID, &title, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	// 6. Listing and aggregates
	list, err := repo.List(ctx, document.ListFilter{ContentType: "code", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	tags, err := repo.AllTags(ctx)
	require.NoError(t, err)
	assert.Contains(t, tags, "python")

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, 1, stats.Tags["python"])

	// 7. Delete
	require.NoError(t, repo.Delete(ctx, replacement.ID))
	assert.ErrorIs(t, repo.Delete(ctx, replacement.ID), document.ErrNotFound)
}
