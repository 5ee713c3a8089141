package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?\n]`)

const (
	maxHighlights   = 3
	maxHighlightLen = 200
)

// ExtractHighlights returns up to three sentences from text that contain any
// term of the query, each capped at 200 characters.
func ExtractHighlights(text, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []string{}
	}

	highlights := []string{}
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		matched := false
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		highlights = append(highlights, truncate(sentence, maxHighlightLen))
		if len(highlights) == maxHighlights {
			break
		}
	}
	return highlights
}

// truncate caps s at max bytes without splitting a UTF-8 rune, appending "..."
// when anything was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
