package blockconf

import (
	"sort"
	"strings"

	"github.com/sikol/blockconf/lexer"
)

// ErrorKind classifies a Diagnostic.
type ErrorKind int

const (
	// SyntaxError is reported when expected input is absent.
	SyntaxError ErrorKind = iota
	// SemanticError is reported for structurally valid input that cannot be bound, such as a
	// duplicate key or value.
	SemanticError
	// RangeError is reported when a numeric literal does not fit its destination.
	RangeError
	// IOError is reported when the input could not be read.
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case SemanticError:
		return "semantic error"
	case RangeError:
		return "range error"
	case IOError:
		return "I/O error"
	}
	return "error"
}

// parseError is a hard failure inside the engine.
//
// Offsets are converted to positions only when the parse fails as a whole.
type parseError struct {
	kind    ErrorKind
	offset  int
	message string
	// The cursor is already past the declaration that failed.
	consumed bool
	// The input did not fit the value's shape, so a union may still try its next alternative.
	mismatch bool
}

func (p *parseError) Error() string { return p.message }

// A Diagnostic describes one problem in the input.
type Diagnostic struct {
	Pos lexer.Position
	// Text of the source line containing Pos, without its terminator.
	Context string
	Message string
	Kind    ErrorKind
}

// Header returns the diagnostic in the form "[<filename>:]<line>:<column>: <message>".
func (d Diagnostic) Header() string { return lexer.FormatError(d.Pos, d.Message) }

// String renders the header, the source line and a caret under the offending column.
func (d Diagnostic) String() string {
	if d.Pos.Line == 0 {
		return d.Header()
	}
	var caret strings.Builder
	column := 0
	for _, r := range d.Context {
		if column >= d.Pos.Column {
			break
		}
		if r == '\t' {
			caret.WriteRune('\t')
		} else {
			caret.WriteByte(' ')
		}
		column++
	}
	for ; column < d.Pos.Column; column++ {
		caret.WriteByte(' ')
	}
	caret.WriteByte('^')
	return d.Header() + "\n" + d.Context + "\n" + caret.String()
}

// Error is returned when a parse fails.
//
// It always carries at least one Diagnostic, ordered by position in the input.
type Error struct {
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.Header())
	}
	return strings.Join(lines, "\n")
}

// Kinds returns the kind of each diagnostic, in order.
func (e *Error) Kinds() []ErrorKind {
	out := make([]ErrorKind, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

// ioError creates the single diagnostic reported when input cannot be read.
func ioError(filename string, err error) *Error {
	return &Error{Diagnostics: []Diagnostic{{
		Pos:     lexer.Position{Filename: filename},
		Message: "cannot read file: " + err.Error(),
		Kind:    IOError,
	}}}
}

// report converts engine failures into diagnostics.
//
// Every offset is moved past whitespace so that it points at the offending input, then
// resolved through a single PositionCache.
func report(filename, input string, errs []*parseError) *Error {
	cache := lexer.NewPositionCache(filename, input)
	type located struct {
		offset int
		diag   Diagnostic
	}
	out := make([]located, 0, len(errs))
	for _, err := range errs {
		cur := lexer.NewCursor(input)
		cur.Seek(err.offset)
		for isSpace(cur.Peek()) {
			cur.Next()
		}
		pos := cache.Position(cur.Offset())
		out = append(out, located{cur.Offset(), Diagnostic{
			Pos:     pos,
			Context: cache.LineText(pos.Line),
			Message: err.message,
			Kind:    err.kind,
		}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].offset < out[j].offset })
	diags := make([]Diagnostic, 0, len(out))
	for _, l := range out {
		diags = append(diags, l.diag)
	}
	return &Error{Diagnostics: diags}
}
