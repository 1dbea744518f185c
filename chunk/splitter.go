package chunk

import (
	"regexp"
	"strings"
)

var (
	crlfRe     = regexp.MustCompile(`\r\n?`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	trailingRe = regexp.MustCompile(`(?m)[ \t]+$`)
)

// normalizeWhitespace canonicalizes line endings, strips trailing spaces,
// and collapses runs of blank lines so paragraph detection is stable.
func normalizeWhitespace(s string) string {
	s = crlfRe.ReplaceAllString(s, "\n")
	s = trailingRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// splitParagraphs splits text on blank-line boundaries.
func splitParagraphs(s string) []string {
	parts := strings.Split(s, "\n\n")
	paras := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences splits text after terminal punctuation followed by
// whitespace. Any trailing text without a terminator becomes the final
// sentence.
func splitSentences(s string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(s); i++ {
		if !isTerminator(s[i]) {
			continue
		}
		// Consume consecutive terminators ("...", "?!").
		end := i + 1
		for end < len(s) && isTerminator(s[end]) {
			end++
		}
		if end < len(s) && !isSpaceByte(s[end]) {
			i = end - 1
			continue
		}
		if sent := strings.TrimSpace(s[start:end]); sent != "" {
			sentences = append(sentences, sent)
		}
		start = end
		i = end - 1
	}

	if rest := strings.TrimSpace(s[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

// sentenceStart returns the index of the first sentence beginning inside s,
// or -1 when s contains no sentence boundary.
func sentenceStart(s string) int {
	for i := 0; i < len(s)-1; i++ {
		if !isTerminator(s[i]) {
			continue
		}
		j := i + 1
		for j < len(s) && isTerminator(s[j]) {
			j++
		}
		if j >= len(s) || !isSpaceByte(s[j]) {
			continue
		}
		for j < len(s) && isSpaceByte(s[j]) {
			j++
		}
		if j < len(s) {
			return j
		}
	}
	return -1
}

// hardSplit cuts text into fixed-size character windows. Used as the last
// resort for text with no usable boundaries.
func hardSplit(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}

	windows := make([]string, 0, len(s)/size+1)
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		if w := strings.TrimSpace(s[start:end]); w != "" {
			windows = append(windows, w)
		}
	}
	return windows
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}
