package lexer

import (
	"sort"
	"unicode/utf8"
)

// PositionCache converts byte offsets to line and column.
//
// The line table is built with a single scan of the input; each lookup is a binary search.
// "\n", "\r\n" and a lone "\r" each terminate a line.
type PositionCache struct {
	filename string
	input    string
	lines    []int // Byte offset of the start of each line.
}

// NewPositionCache scans input and returns a cache for it.
func NewPositionCache(filename, input string) *PositionCache {
	lines := []int{0}
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '\r':
			if i+1 < len(input) && input[i+1] == '\n' {
				i++
			}
			lines = append(lines, i+1)
		case '\n':
			lines = append(lines, i+1)
		}
	}
	return &PositionCache{filename: filename, input: input, lines: lines}
}

// Filename the cache was created with.
func (p *PositionCache) Filename() string { return p.filename }

// Lines returns the number of lines in the input.
func (p *PositionCache) Lines() int { return len(p.lines) }

// Position of the byte at offset.
func (p *PositionCache) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	} else if offset > len(p.input) {
		offset = len(p.input)
	}
	line := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > offset }) - 1
	return Position{
		Filename: p.filename,
		Offset:   offset,
		Line:     line + 1,
		Column:   utf8.RuneCountInString(p.input[p.lines[line]:offset]),
	}
}

// LineText returns the text of the 1-based line, without its terminator.
func (p *PositionCache) LineText(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	start := p.lines[line-1]
	end := len(p.input)
	if line < len(p.lines) {
		end = p.lines[line]
	}
	text := p.input[start:end]
	for len(text) > 0 && (text[len(text)-1] == '\n' || text[len(text)-1] == '\r') {
		text = text[:len(text)-1]
	}
	return text
}
