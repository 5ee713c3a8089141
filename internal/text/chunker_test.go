package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkContent_EmptyContent(t *testing.T) {
	assert.Nil(t, ChunkContent("", ContentTypeCode, "python", 1000, 200))
	assert.Nil(t, ChunkContent("   \n\n  ", ContentTypePlain, "", 1000, 200))
}

func TestChunkCode_PythonFunctionBoundaries(t *testing.T) {
	content := "def foo():\n    pass\n\ndef bar():\n    pass"

	chunks := ChunkContent(content, ContentTypeCode, "python", 1000, 200)
	require.Len(t, chunks, 2)

	assert.Equal(t, "def foo():\n    pass", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, "python", chunks[0].Language)
	assert.Equal(t, "function", chunks[0].Intent)

	assert.Equal(t, "def bar():\n    pass", chunks[1].Text)
	assert.Equal(t, 4, chunks[1].StartLine)
	assert.Equal(t, 5, chunks[1].EndLine)
	assert.Equal(t, "function", chunks[1].Intent)
}

func TestChunkCode_ClassIntent(t *testing.T) {
	content := "class Repo:\n    def save(self):\n        pass"

	chunks := ChunkContent(content, ContentTypeCode, "python", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "class", chunks[0].Intent)
}

func TestChunkCode_GoDefinitions(t *testing.T) {
	content := "package main\n\nfunc A() {}\n\nfunc B() {}"

	chunks := ChunkContent(content, ContentTypeCode, "go", 1000, 200)
	require.Len(t, chunks, 3)
	assert.Equal(t, "package main", chunks[0].Text)
	assert.Equal(t, "func A() {}", chunks[1].Text)
	assert.Equal(t, "func B() {}", chunks[2].Text)
	for _, c := range chunks {
		assert.Equal(t, "go", c.Language)
	}
}

func TestChunkCode_UnknownLanguageFallsBackToPlain(t *testing.T) {
	content := "SELECT * FROM users;\nSELECT * FROM orders;"

	chunks := ChunkContent(content, ContentTypeCode, "sql", 1000, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "sql", chunks[0].Language)
	assert.Equal(t, "query", chunks[0].Intent)
}

func TestChunkCode_OversizedDefinitionIsResplit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("def big():\n")
	for i := 0; i < 50; i++ {
		sb.WriteString("    x = 1\n")
	}

	chunks := ChunkContent(sb.String(), ContentTypeCode, "python", 100, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 100)
		assert.Equal(t, "python", c.Language)
		assert.Equal(t, "function", c.Intent)
	}
}

func TestChunkMarkdown_SplitsOnHeadings(t *testing.T) {
	content := "# Intro\nWelcome.\n## Setup\nInstall it.\n"

	chunks := ChunkContent(content, ContentTypeMarkdown, "markdown", 1000, 200)
	require.Len(t, chunks, 2)

	assert.Equal(t, "# Intro\nWelcome.\n", chunks[0].Text)
	assert.Equal(t, "## Setup\nInstall it.\n", chunks[1].Text)
	for _, c := range chunks {
		assert.Equal(t, "markdown", c.Language)
		assert.Equal(t, "section", c.Intent)
	}
}

func TestChunkMarkdown_NoHeadings(t *testing.T) {
	content := "just a paragraph\nwith two lines\n"

	chunks := ChunkContent(content, ContentTypeMarkdown, "markdown", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text)
}

func TestChunkPlain_SizeAndSpans(t *testing.T) {
	content := "aaaa\nbbbb\ncccc"

	chunks := ChunkContent(content, ContentTypePlain, "", 9, 0)
	require.Len(t, chunks, 2)

	assert.Equal(t, "aaaa\nbbbb", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)

	assert.Equal(t, "cccc", chunks[1].Text)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 3, chunks[1].EndLine)

	for _, c := range chunks {
		assert.Equal(t, "plain", c.Language)
		assert.Equal(t, "text", c.Intent)
	}
}

func TestChunkPlain_LanguageIsPlain(t *testing.T) {
	chunks := ChunkContent("hello world\nsecond line", ContentTypePlain, "plain", 1000, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "plain", chunks[0].Language)
}

func TestChunkPlain_OverlapSeedsNextChunk(t *testing.T) {
	content := "aaaa\nbbbb\ncccc"

	chunks := ChunkContent(content, ContentTypePlain, "", 9, 1)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa\nbbbb", chunks[0].Text)
	assert.Equal(t, "bbbb\ncccc", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].StartLine)
}

func TestChunkPlain_SeedDroppedWhenItWouldOverflow(t *testing.T) {
	content := "aaaa\nbbbb\ncccc"

	chunks := ChunkContent(content, ContentTypePlain, "", 5, 1)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 5)
	}
}

func TestChunkPlain_LongLineIsHardSplit(t *testing.T) {
	chunks := ChunkContent("abcdefghij", ContentTypePlain, "", 4, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Text)
	assert.Equal(t, "efgh", chunks[1].Text)
	assert.Equal(t, "ij", chunks[2].Text)
}

func TestChunkPlain_SizeBoundHolds(t *testing.T) {
	content := strings.Repeat("some words on a line\n", 200)

	for _, maxSize := range []int{1, 10, 50, 1000} {
		chunks := ChunkContent(content, ContentTypePlain, "", maxSize, 5)
		require.NotEmpty(t, chunks, "maxSize=%d", maxSize)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c.Text), maxSize, "maxSize=%d", maxSize)
		}
	}
}

func TestChunkPlain_ZeroOverlapCoversAllLines(t *testing.T) {
	content := "one\ntwo\nthree\nfour\nfive"

	chunks := ChunkContent(content, ContentTypePlain, "", 8, 0)
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	assert.Equal(t, content, strings.Join(parts, "\n"))
}
