package text

import (
	"path/filepath"
	"regexp"
	"strings"
)

type ContentType string

const (
	ContentTypeCode     ContentType = "code"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypePlain    ContentType = "plain"
)

// languageByExt maps file extensions to language tags. Unmapped extensions
// fall back to "plain".
var languageByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".jsx":  "javascript",
	".tsx":  "typescript",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".sql":  "sql",
	".sh":   "shell",
	".bash": "shell",
	".go":   "go",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".cpp":  "cpp",
	".h":    "c",
	".html": "html",
	".css":  "css",
	".scss": "scss",
	".md":   "markdown",
	".txt":  "plain",
}

var sourceExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true,
	".rs": true, ".java": true, ".sql": true, ".sh": true,
}

var configExts = map[string]bool{
	".json": true, ".yaml": true, ".toml": true,
}

var fencedBlockRe = regexp.MustCompile("(?s)```.*?```")

// Classify infers content type and language from a file path and its raw
// content. Markdown files that are mostly fenced code blocks are treated as
// code so the chunker picks the code path for them.
func Classify(path, content string) (ContentType, string) {
	ext := strings.ToLower(filepath.Ext(path))

	language, ok := languageByExt[ext]
	if !ok {
		language = "plain"
	}

	switch {
	case ext == ".md":
		if len(fencedBlockRe.FindAllString(content, -1)) > 2 {
			return ContentTypeCode, language
		}
		return ContentTypeMarkdown, language
	case sourceExts[ext], configExts[ext]:
		return ContentTypeCode, language
	default:
		return ContentTypePlain, language
	}
}
