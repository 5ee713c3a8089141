package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHighlights(t *testing.T) {
	t.Run("matching sentences only", func(t *testing.T) {
		text := "The auth module handles login. Nothing to see here. Tokens expire after an hour."
		got := ExtractHighlights(text, "auth tokens")
		assert.Equal(t, []string{
			"The auth module handles login",
			"Tokens expire after an hour",
		}, got)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := ExtractHighlights("LOGIN is handled here.", "login")
		require.Len(t, got, 1)
	})

	t.Run("capped at three", func(t *testing.T) {
		text := "auth one. auth two. auth three. auth four."
		got := ExtractHighlights(text, "auth")
		assert.Len(t, got, 3)
	})

	t.Run("long sentences are truncated", func(t *testing.T) {
		text := "auth " + strings.Repeat("x", 300)
		got := ExtractHighlights(text, "auth")
		require.Len(t, got, 1)
		assert.Len(t, got[0], 203)
		assert.True(t, strings.HasSuffix(got[0], "..."))
	})

	t.Run("truncation keeps runes whole", func(t *testing.T) {
		// Pad so the cut lands inside a multi-byte rune.
		text := "auth " + strings.Repeat("é", 150)
		got := ExtractHighlights(text, "auth")
		require.Len(t, got, 1)
		assert.True(t, utf8.ValidString(got[0]))
		assert.True(t, strings.HasSuffix(got[0], "..."))
	})

	t.Run("no match", func(t *testing.T) {
		got := ExtractHighlights("nothing relevant here.", "kubernetes")
		assert.Empty(t, got)
	})

	t.Run("empty query", func(t *testing.T) {
		got := ExtractHighlights("some text.", "   ")
		assert.Empty(t, got)
	})

	t.Run("newlines split sentences", func(t *testing.T) {
		got := ExtractHighlights("auth line one\nplain line\nauth line two", "auth")
		assert.Equal(t, []string{"auth line one", "auth line two"}, got)
	})
}
