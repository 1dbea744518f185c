package chunk

import "strings"

const fenceMarker = "```"

// hasCodeFences reports whether the content contains a fenced code block.
func hasCodeFences(s string) bool {
	if strings.HasPrefix(s, fenceMarker) {
		return true
	}
	return strings.Contains(s, "\n"+fenceMarker)
}

// segment is a run of either prose or fenced code.
type segment struct {
	text string
	code bool
}

// segmentCodeFences splits content into alternating prose and code
// segments. Fence markers stay attached to their code segment; an
// unterminated fence runs to the end of the content.
func segmentCodeFences(s string) []segment {
	var segments []segment
	lines := strings.Split(s, "\n")

	var buf []string
	inCode := false

	emit := func(code bool) {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			segments = append(segments, segment{text: text, code: code})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fenceMarker) {
			if inCode {
				buf = append(buf, line)
				emit(true)
				inCode = false
				continue
			}
			emit(false)
			inCode = true
			buf = append(buf, line)
			continue
		}
		buf = append(buf, line)
	}
	emit(inCode)

	return segments
}

// splitWithCodeFences splits mixed prose-and-code content. Code blocks are
// kept atomic inside one chunk when they fit; oversized blocks are split
// with a code-aware splitter that prefers blank lines and statement starts,
// never separating a fence marker from its content.
func (c *Chunker) splitWithCodeFences(content string) []piece {
	acc := c.newAccumulator()

	for _, seg := range segmentCodeFences(content) {
		if !seg.code {
			c.feedProse(acc, seg.text)
			continue
		}
		if len(seg.text) <= c.chunkSize {
			acc.add(seg.text, "\n\n", true)
			continue
		}
		for _, block := range c.splitCodeBlock(seg.text) {
			acc.add(block, "\n\n", true)
		}
	}

	acc.drain()
	return acc.pieces
}

// splitCodeBlock splits an oversized fenced block into multiple smaller
// fenced blocks. Cut points prefer blank lines, then statement starts
// (non-indented lines); each resulting block is re-fenced with the original
// info string.
func (c *Chunker) splitCodeBlock(block string) []string {
	lines := strings.Split(block, "\n")
	if len(lines) < 3 {
		return hardSplit(block, c.chunkSize)
	}

	opening := lines[0]
	body := lines[1 : len(lines)-1]
	if !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), fenceMarker) {
		body = lines[1:]
	}

	// Room left for code once both fence lines are accounted for.
	budget := c.chunkSize - len(opening) - len(fenceMarker) - 2
	if budget < 1 {
		budget = c.chunkSize / 2
	}

	var blocks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		blocks = append(blocks, opening+"\n"+strings.Join(cur, "\n")+"\n"+fenceMarker)
		cur = cur[:0]
		curLen = 0
	}

	for _, line := range body {
		lineLen := len(line) + 1
		// A single line larger than the budget is cut into character
		// windows, each re-fenced on its own.
		if lineLen > budget {
			flush()
			for _, w := range hardSplit(line, budget) {
				blocks = append(blocks, opening+"\n"+w+"\n"+fenceMarker)
			}
			continue
		}
		if curLen > 0 && curLen+lineLen > budget {
			if isCutPoint(line) || curLen+lineLen > budget+c.overlap {
				flush()
			}
		}
		cur = append(cur, line)
		curLen += lineLen
	}
	flush()

	return blocks
}

// isCutPoint reports whether a code line is an acceptable split boundary:
// a blank line or a statement start (no leading indentation).
func isCutPoint(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return len(line) > 0 && line[0] != ' ' && line[0] != '\t'
}
