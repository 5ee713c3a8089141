package text

import (
	"regexp"
	"strings"
)

// Chunk is a draft retrieval unit produced by the chunker. StartLine and
// EndLine are 1-based inclusive; markdown sections are not line-addressed and
// carry the placeholder span 1/1.
type Chunk struct {
	Text      string
	StartLine int
	EndLine   int
	Language  string
	Intent    string
}

// definitionRe holds the per-language patterns that open a new code chunk.
// Matched against the trimmed line.
var definitionRe = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`^(def |class |async def )`),
	"javascript": regexp.MustCompile(`^(function |const |let |class |async )`),
	"typescript": regexp.MustCompile(`^(function |const |let |class |async )`),
	"go":         regexp.MustCompile(`^(func |type |package )`),
	"rust":       regexp.MustCompile(`^(fn |struct |enum |impl )`),
}

var headingLineRe = regexp.MustCompile(`(?m)^#{1,6} .+\n`)

// ChunkContent splits raw content into retrieval chunks. The split policy
// depends on content type: code is split at definition boundaries, markdown
// at headings, everything else by line accumulation. Deterministic, no I/O.
func ChunkContent(content string, contentType ContentType, language string, maxSize, overlap int) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	switch contentType {
	case ContentTypeCode:
		return chunkCode(content, language, maxSize, overlap)
	case ContentTypeMarkdown:
		return chunkMarkdown(content, maxSize, overlap)
	default:
		return chunkPlain(content, maxSize, overlap)
	}
}

// chunkCode splits code at function/class/type definition boundaries for
// languages with a known pattern, then runs a size-bounded second pass. With
// no pattern it degrades to plain chunking.
func chunkCode(content, language string, maxSize, overlap int) []Chunk {
	pattern, ok := definitionRe[language]
	if !ok {
		chunks := chunkPlain(content, maxSize, overlap)
		for i := range chunks {
			chunks[i].Language = language
			chunks[i].Intent = DetectCodeIntent(chunks[i].Text)
		}
		return chunks
	}

	lines := strings.Split(content, "\n")
	var chunks []Chunk
	var current []string
	startLine := 1

	flush := func(endLine int) {
		// Trailing blank lines belong to the gap between definitions,
		// not to the definition itself.
		for len(current) > 0 && strings.TrimSpace(current[len(current)-1]) == "" {
			current = current[:len(current)-1]
			endLine--
		}
		if len(current) == 0 {
			return
		}
		txt := strings.Join(current, "\n")
		chunks = append(chunks, Chunk{
			Text:      txt,
			StartLine: startLine,
			EndLine:   endLine,
			Language:  language,
			Intent:    DetectCodeIntent(txt),
		})
	}

	for i, line := range lines {
		lineNo := i + 1
		if pattern.MatchString(strings.TrimSpace(line)) && len(current) > 0 {
			flush(lineNo - 1)
			current = []string{line}
			startLine = lineNo
			continue
		}
		current = append(current, line)
	}
	flush(len(lines))

	return enforceMaxSize(chunks, maxSize, overlap)
}

// enforceMaxSize re-splits oversized chunks with the plain chunker. Sub-chunks
// inherit the parent's span, language and intent since the exact sub-span is
// lost once the parent is cut by size rather than structure.
func enforceMaxSize(chunks []Chunk, maxSize, overlap int) []Chunk {
	final := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Text) <= maxSize {
			final = append(final, c)
			continue
		}
		for _, sub := range chunkPlain(c.Text, maxSize, overlap) {
			final = append(final, Chunk{
				Text:      sub.Text,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Language:  c.Language,
				Intent:    c.Intent,
			})
		}
	}
	return final
}

type mdSegment struct {
	text    string
	heading bool
}

// chunkMarkdown splits on heading lines, accumulating heading+body sections.
// When a section outgrows maxSize it is flushed and the next chunk is seeded
// with the trailing `overlap` segments of the flushed one. Sections are not
// line-addressed; every chunk carries the placeholder span 1/1.
func chunkMarkdown(content string, maxSize, overlap int) []Chunk {
	var segments []mdSegment
	last := 0
	for _, loc := range headingLineRe.FindAllStringIndex(content, -1) {
		if loc[0] > last {
			segments = append(segments, mdSegment{text: content[last:loc[0]]})
		}
		segments = append(segments, mdSegment{text: content[loc[0]:loc[1]], heading: true})
		last = loc[1]
	}
	if last < len(content) {
		segments = append(segments, mdSegment{text: content[last:]})
	}

	var chunks []Chunk
	var current []string
	currentSize := 0

	flush := func() {
		txt := strings.Join(current, "")
		if strings.TrimSpace(txt) == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Text:      txt,
			StartLine: 1,
			EndLine:   1,
			Language:  "markdown",
			Intent:    "section",
		})
	}

	for _, seg := range segments {
		if seg.heading {
			if len(current) > 0 {
				flush()
			}
			current = []string{seg.text}
			currentSize = len(seg.text)
			continue
		}
		if currentSize+len(seg.text) > maxSize && len(current) > 0 {
			flush()
			seed := trailingJoin(current, overlap)
			current = current[:0]
			currentSize = 0
			if seed != "" {
				current = append(current, seed)
				currentSize = len(seed)
			}
		}
		current = append(current, seg.text)
		currentSize += len(seg.text)
	}
	if len(current) > 0 {
		flush()
	}

	return chunks
}

func trailingJoin(parts []string, n int) string {
	if n <= 0 || len(parts) == 0 {
		return ""
	}
	if n > len(parts) {
		n = len(parts)
	}
	return strings.Join(parts[len(parts)-n:], "")
}

// chunkPlain greedily accumulates lines up to maxSize, seeding each follow-up
// chunk with the last `overlap` lines of the flushed one. Single lines longer
// than maxSize are hard-split so no emitted chunk ever exceeds the bound.
func chunkPlain(content string, maxSize, overlap int) []Chunk {
	if maxSize < 1 {
		maxSize = 1
	}

	var chunks []Chunk
	lines := splitLongLines(strings.Split(content, "\n"), maxSize)
	var current []lineSpan
	currentSize := 0

	flush := func() {
		parts := make([]string, len(current))
		for i, l := range current {
			parts[i] = l.text
		}
		chunks = append(chunks, Chunk{
			Text:      strings.Join(parts, "\n"),
			StartLine: current[0].line,
			EndLine:   current[len(current)-1].line,
			Language:  "plain",
			Intent:    "text",
		})
	}

	// currentSize tracks the length of the joined chunk text, newlines
	// included, so the emitted chunk never exceeds maxSize.
	for _, l := range lines {
		added := len(l.text)
		if len(current) > 0 {
			added++
		}
		if currentSize+added > maxSize && len(current) > 0 {
			flush()
			keep := overlap
			if keep > len(current) {
				keep = len(current)
			}
			if keep > 0 {
				current = append([]lineSpan(nil), current[len(current)-keep:]...)
			} else {
				current = current[:0]
			}
			currentSize = 0
			for i, o := range current {
				if i > 0 {
					currentSize++
				}
				currentSize += len(o.text)
			}
			added = len(l.text)
			if len(current) > 0 {
				added++
			}
			// A seed that leaves no room for the incoming line would
			// reintroduce an oversized chunk; drop it instead.
			if currentSize+added > maxSize {
				current = current[:0]
				currentSize = 0
				added = len(l.text)
			}
		}
		current = append(current, l)
		currentSize += added
	}
	if len(current) > 0 {
		flush()
	}

	return chunks
}

type lineSpan struct {
	text string
	line int
}

func splitLongLines(lines []string, maxSize int) []lineSpan {
	out := make([]lineSpan, 0, len(lines))
	for i, line := range lines {
		lineNo := i + 1
		for len(line) > maxSize {
			out = append(out, lineSpan{text: line[:maxSize], line: lineNo})
			line = line[maxSize:]
		}
		out = append(out, lineSpan{text: line, line: lineNo})
	}
	return out
}
