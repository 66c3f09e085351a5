package lexer

import (
	"fmt"
)

const (
	// EOF represents an end of file.
	EOF rune = -(iota + 1)
)

// Position of a character in the input.
//
// Line is 1-based. Column is the number of characters preceding the position on its line, so
// the first character of a line is at column 0.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) GoString() string {
	return fmt.Sprintf("Position{Filename: %q, Offset: %d, Line: %d, Column: %d}",
		p.Filename, p.Offset, p.Line, p.Column)
}

func (p Position) String() string {
	filename := p.Filename
	if filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", filename, p.Line, p.Column)
}
