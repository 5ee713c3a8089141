package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_SourceFiles(t *testing.T) {
	cases := []struct {
		path     string
		language string
	}{
		{"app/main.py", "python"},
		{"web/index.js", "javascript"},
		{"web/app.ts", "typescript"},
		{"cmd/server.go", "go"},
		{"src/lib.rs", "rust"},
		{"db/schema.sql", "sql"},
		{"scripts/deploy.sh", "shell"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			ct, lang := Classify(tc.path, "content")
			assert.Equal(t, ContentTypeCode, ct)
			assert.Equal(t, tc.language, lang)
		})
	}
}

func TestClassify_ConfigFiles(t *testing.T) {
	for _, path := range []string{"config.json", "deploy.yaml", "Cargo.toml"} {
		ct, _ := Classify(path, "key: value")
		assert.Equal(t, ContentTypeCode, ct, path)
	}
}

func TestClassify_Markdown(t *testing.T) {
	ct, lang := Classify("README.md", "# Title\n\nSome prose.")
	assert.Equal(t, ContentTypeMarkdown, ct)
	assert.Equal(t, "markdown", lang)
}

func TestClassify_MarkdownWithManyCodeBlocks(t *testing.T) {
	content := "# Examples\n" +
		"```go\nfunc a() {}\n```\n" +
		"```go\nfunc b() {}\n```\n" +
		"```go\nfunc c() {}\n```\n"

	ct, _ := Classify("examples.md", content)
	assert.Equal(t, ContentTypeCode, ct)
}

func TestClassify_PlainFallback(t *testing.T) {
	ct, lang := Classify("notes.txt", "just some notes")
	assert.Equal(t, ContentTypePlain, ct)
	assert.Equal(t, "plain", lang)

	ct, lang = Classify("data.csv", "a,b,c")
	assert.Equal(t, ContentTypePlain, ct)
	assert.Equal(t, "plain", lang)
}

func TestClassify_CaseInsensitiveExtension(t *testing.T) {
	ct, lang := Classify("Main.PY", "def main(): pass")
	assert.Equal(t, ContentTypeCode, ct)
	assert.Equal(t, "python", lang)
}
