package chunk

import (
	"regexp"
	"strings"

	"github.com/akarwowski/docdex"
)

var (
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	codeBlockRe = regexp.MustCompile("(?s)```.*?```")
)

// looksLikeAPIReference reports whether content resembles structured API
// reference material: several heading-delimited sections relative to its
// length. Headings inside code blocks are ignored.
func looksLikeAPIReference(s string) bool {
	cleaned := codeBlockRe.ReplaceAllString(s, "")
	headings := headingRe.FindAllStringIndex(cleaned, -1)
	if len(headings) < 3 {
		return false
	}
	// Roughly one section per 2000 characters or denser.
	return len(headings) >= len(cleaned)/2000
}

// splitSections splits heading-structured content on heading boundaries
// first, then applies the generic splitter to oversized sections.
func (c *Chunker) splitSections(content string) []piece {
	var pieces []piece

	for _, section := range splitOnHeadings(content) {
		if len(section) <= c.chunkSize {
			kind := docTypeOf(section)
			pieces = append(pieces, piece{text: section, kind: kind})
			continue
		}
		if hasCodeFences(section) {
			pieces = append(pieces, c.splitWithCodeFences(section)...)
		} else {
			pieces = append(pieces, c.splitProse(section)...)
		}
	}

	return pieces
}

// splitOnHeadings cuts content at markdown headings that sit outside code
// fences. Content before the first heading forms its own section.
func splitOnHeadings(s string) []string {
	lines := strings.Split(s, "\n")

	var sections []string
	var cur []string
	inCode := false

	emit := func() {
		text := strings.TrimSpace(strings.Join(cur, "\n"))
		if text != "" {
			sections = append(sections, text)
		}
		cur = cur[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fenceMarker) {
			inCode = !inCode
		}
		if !inCode && isHeading(line) && len(cur) > 0 {
			emit()
		}
		cur = append(cur, line)
	}
	emit()

	return sections
}

func isHeading(line string) bool {
	return headingRe.MatchString(line)
}

func docTypeOf(section string) string {
	if hasCodeFences(section) {
		return docdex.ChunkTypeMixed
	}
	return docdex.ChunkTypeText
}
