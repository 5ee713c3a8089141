// Package categorize assigns a category, tags and a short summary to raw
// document content. The Heuristic categorizer is rule-based and always
// available; the Gemini-backed categorizer in internal/adapter/gemini wraps
// it as a fallback.
package categorize

import (
	"context"
	"regexp"
	"strings"
)

type Result struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
	Language string   `json:"language,omitempty"`
}

// Categories is the closed vocabulary shared with the LLM prompt.
var Categories = []string{
	"documentation",
	"configuration",
	"api",
	"database",
	"testing",
	"deployment",
	"authentication",
	"utilities",
	"models",
	"views",
	"controllers",
	"services",
	"middleware",
	"other",
}

// ValidCategory reports whether c is in the closed vocabulary.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"testing", []string{"test", "pytest", "unittest", "spec"}},
	{"configuration", []string{"config", "settings", ".env", "yaml", "toml"}},
	{"utilities", []string{"def ", "class ", "function", "async"}},
	{"api", []string{"api", "endpoint", "route", "request", "response"}},
	{"database", []string{"database", "sql", "query", "model", "schema"}},
	{"deployment", []string{"deploy", "docker", "kubernetes", "ci/cd"}},
	{"authentication", []string{"auth", "login", "token", "jwt", "oauth"}},
	{"documentation", []string{"readme", "doc", "guide", "documentation"}},
}

var languagePatterns = map[string][]*regexp.Regexp{
	"python": {
		regexp.MustCompile(`(?i)def `), regexp.MustCompile(`(?i)import `),
		regexp.MustCompile(`(?i)from .* import`), regexp.MustCompile(`(?i)class .*:`),
		regexp.MustCompile(`(?i)if __name__`),
	},
	"javascript": {
		regexp.MustCompile(`(?i)const `), regexp.MustCompile(`(?i)let `),
		regexp.MustCompile(`(?i)function `), regexp.MustCompile(`=>`),
		regexp.MustCompile(`(?i)require\(`),
	},
	"typescript": {
		regexp.MustCompile(`(?i): string`), regexp.MustCompile(`(?i): number`),
		regexp.MustCompile(`(?i)interface `), regexp.MustCompile(`(?i)type .*=`),
		regexp.MustCompile(`<T>`),
	},
	"java": {
		regexp.MustCompile(`(?i)public class`), regexp.MustCompile(`(?i)private `),
		regexp.MustCompile(`(?i)void `), regexp.MustCompile(`(?i)import java`),
	},
	"go": {
		regexp.MustCompile(`(?i)func `), regexp.MustCompile(`(?i)package `),
		regexp.MustCompile(`(?i)import `), regexp.MustCompile(`:=`),
	},
	"rust": {
		regexp.MustCompile(`(?i)fn `), regexp.MustCompile(`(?i)let mut`),
		regexp.MustCompile(`(?i)impl `), regexp.MustCompile(`(?i)use `),
	},
	"sql": {
		regexp.MustCompile(`(?i)SELECT `), regexp.MustCompile(`(?i)FROM `),
		regexp.MustCompile(`(?i)WHERE `), regexp.MustCompile(`(?i)INSERT INTO`),
		regexp.MustCompile(`(?i)CREATE TABLE`),
	},
	"yaml": {
		regexp.MustCompile(`(?m)^---`), regexp.MustCompile(`(?m)^\w+:\s*$`),
		regexp.MustCompile(`(?m)^\s+-\s+\w`),
	},
	"shell": {
		regexp.MustCompile(`#!/bin/bash`), regexp.MustCompile(`#!/bin/sh`),
		regexp.MustCompile(`(?i)echo `), regexp.MustCompile(`\$\(`),
	},
	"html": {
		regexp.MustCompile(`(?i)<html`), regexp.MustCompile(`(?i)<div`),
		regexp.MustCompile(`(?i)<span`), regexp.MustCompile(`(?i)<!DOCTYPE`),
	},
	"json": {
		regexp.MustCompile(`(?m)^\s*\{`), regexp.MustCompile(`(?m)^\s*\[`),
		regexp.MustCompile(`"[^"]+"\s*:`),
	},
	"css": {
		regexp.MustCompile(`\{[^}]*:[^}]*;`), regexp.MustCompile(`@media`),
		regexp.MustCompile(`\.[a-z-]+\s*\{`),
	},
}

// Heuristic is the rule-based categorizer. It never fails, which makes it the
// degradation target when the LLM collaborator is unreachable.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Categorize(_ context.Context, content string) (*Result, error) {
	lower := strings.ToLower(content)

	language := DetectLanguage(content)

	category := "other"
	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			category = rule.category
			break
		}
	}

	var tags []string
	if language != "" {
		tags = append(tags, language)
	}
	if category != "other" {
		tags = append(tags, category)
	}

	return &Result{
		Category: category,
		Tags:     tags,
		Summary:  firstMeaningfulLine(content),
		Language: language,
	}, nil
}

// DetectLanguage guesses the programming language from content alone. At
// least two pattern hits are required to avoid false positives on prose.
func DetectLanguage(content string) string {
	for _, lang := range []string{
		"python", "javascript", "typescript", "java", "go",
		"rust", "sql", "yaml", "json", "shell", "html", "css",
	} {
		hits := 0
		for _, re := range languagePatterns[lang] {
			if re.MatchString(content) {
				hits++
			}
		}
		if hits >= 2 {
			return lang
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func firstMeaningfulLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "//") || strings.HasPrefix(line, "<!--") {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
		}
		return line
	}
	return ""
}
