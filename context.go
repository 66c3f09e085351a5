package blockconf

import (
	"fmt"
	"strings"

	"github.com/sikol/blockconf/lexer"
)

// parseContext is the mutable state of a single parse.
//
// The cursor is embedded by value: nodes save it by copying ctx.Cursor and restore it by
// assigning the copy back.
type parseContext struct {
	lexer.Cursor
	// Furthest offset at which a leaf failed to match, and what was expected there.
	deepest  int
	expected []string
	// Hard errors recovered from so far.
	errors    []*parseError
	maxErrors int
	// Block nesting depth.
	depth int
}

func newParseContext(input string, maxErrors int) *parseContext {
	return &parseContext{
		Cursor:    lexer.NewCursor(input),
		deepest:   -1,
		maxErrors: maxErrors,
	}
}

// expect records that "what" was expected at offset.
//
// Only the furthest offset is kept, so after a failed alternation the expectation list
// describes the branch that got the furthest.
func (c *parseContext) expect(offset int, what string) {
	switch {
	case offset > c.deepest:
		c.deepest = offset
		c.expected = []string{what}
	case offset == c.deepest:
		for _, e := range c.expected {
			if e == what {
				return
			}
		}
		c.expected = append(c.expected, what)
	}
}

// resetExpected forgets all expectations.
func (c *parseContext) resetExpected() { c.deepest, c.expected = -1, nil }

// saveExpected returns the current expectations and resets them.
func (c *parseContext) saveExpected() (int, []string) {
	deepest, expected := c.deepest, c.expected
	c.deepest, c.expected = -1, nil
	return deepest, expected
}

// mergeExpected folds previously saved expectations back in.
func (c *parseContext) mergeExpected(deepest int, expected []string) {
	if deepest < 0 {
		return
	}
	if deepest > c.deepest {
		c.deepest = deepest
		c.expected = append([]string(nil), expected...)
		return
	}
	if deepest == c.deepest {
		for _, e := range expected {
			c.expect(deepest, e)
		}
	}
}

// unexpected builds a syntax error at the furthest failure.
func (c *parseContext) unexpected() *parseError {
	offset := c.deepest
	if offset < 0 {
		offset = c.Offset()
	}
	message := "unexpected " + describeInput(c.Input(), offset)
	if len(c.expected) > 0 {
		message += " (expected " + joinExpected(c.expected) + ")"
	}
	return &parseError{kind: SyntaxError, offset: offset, message: message}
}

// recover records err and skips to the start of the next declaration.
//
// Skipping starts at from, the start of the failed declaration, so that braces opened by the
// declaration are balanced before its terminator is accepted. It continues until the cursor
// is past the error. It returns err unchanged if the error budget is exhausted.
func (c *parseContext) recover(err error, from int, terminator Token) error {
	perr := toParseError(err)
	if len(c.errors)+1 >= c.maxErrors {
		return perr
	}
	c.errors = append(c.errors, perr)
	if !perr.consumed {
		c.Seek(from)
		for !c.EOF() && c.Offset() <= perr.offset {
			before := c.Offset()
			skipDeclaration(&c.Cursor, terminator, c.depth > 0)
			if c.Offset() == before {
				break
			}
		}
	}
	c.resetExpected()
	return nil
}

func toParseError(err error) *parseError {
	if perr, ok := err.(*parseError); ok {
		return perr
	}
	return &parseError{kind: SyntaxError, message: err.Error()}
}

func joinExpected(expected []string) string {
	switch len(expected) {
	case 0:
		return ""
	case 1:
		return expected[0]
	}
	return strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
}

func errorf(kind ErrorKind, offset int, format string, args ...interface{}) *parseError {
	return &parseError{kind: kind, offset: offset, message: fmt.Sprintf(format, args...)}
}
