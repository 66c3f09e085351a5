package lexer

import (
	"strings"
	"unicode/utf8"
)

// Cursor is a position in an immutable input buffer.
//
// A Cursor is a value: copying it saves the position, assigning a saved copy back restores it.
// This is the only state the parser needs to backtrack.
type Cursor struct {
	input  string
	offset int
}

// NewCursor creates a Cursor at the start of input.
func NewCursor(input string) Cursor {
	return Cursor{input: input}
}

// Input returns the whole buffer.
func (c *Cursor) Input() string { return c.input }

// Offset in bytes from the start of the input.
func (c *Cursor) Offset() int { return c.offset }

// Seek moves the cursor to an absolute byte offset.
func (c *Cursor) Seek(offset int) {
	if offset < 0 {
		offset = 0
	} else if offset > len(c.input) {
		offset = len(c.input)
	}
	c.offset = offset
}

// EOF returns true if the cursor is at the end of the input.
func (c *Cursor) EOF() bool { return c.offset >= len(c.input) }

// Peek returns the next rune without consuming it, or EOF.
func (c *Cursor) Peek() rune {
	if c.offset >= len(c.input) {
		return EOF
	}
	if b := c.input[c.offset]; b < utf8.RuneSelf {
		return rune(b)
	}
	r, _ := utf8.DecodeRuneInString(c.input[c.offset:])
	return r
}

// Next consumes and returns the next rune, or EOF.
func (c *Cursor) Next() rune {
	if c.offset >= len(c.input) {
		return EOF
	}
	if b := c.input[c.offset]; b < utf8.RuneSelf {
		c.offset++
		return rune(b)
	}
	r, size := utf8.DecodeRuneInString(c.input[c.offset:])
	c.offset += size
	return r
}

// Rest of the input from the cursor.
func (c *Cursor) Rest() string { return c.input[c.offset:] }

// HasPrefix returns true if the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool { return strings.HasPrefix(c.input[c.offset:], s) }

// Advance the cursor by n bytes.
func (c *Cursor) Advance(n int) { c.Seek(c.offset + n) }

// Since returns the input between offset start and the cursor.
func (c *Cursor) Since(start int) string { return c.input[start:c.offset] }
