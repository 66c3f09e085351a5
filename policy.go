package blockconf

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/sikol/blockconf/lexer"
)

// A Token is a separator or terminator in a Policy.
//
// Match consumes the token at the cursor and returns true, or returns false. The cursor is
// restored by the caller on failure.
type Token interface {
	Match(cur *lexer.Cursor) bool
	String() string
}

// Policy controls the punctuation of a configuration language.
type Policy struct {
	// Separator between an option keyword and its value.
	Separator Token
	// Terminator after each option, block and braced list element.
	Terminator Token
	// AllowInlineLists accepts "a, b, c".
	AllowInlineLists bool
	// AllowBracedLists accepts "{ a; b; c; }".
	AllowBracedLists bool
}

// DefaultPolicy separates keywords from values with whitespace, terminates declarations
// with ";" and accepts both list forms.
func DefaultPolicy() Policy {
	return Policy{
		Separator:        Whitespace,
		Terminator:       Literal(";"),
		AllowInlineLists: true,
		AllowBracedLists: true,
	}
}

func (p Policy) validate() error {
	if p.Separator == nil {
		return fmt.Errorf("policy has no separator")
	}
	if p.Terminator == nil {
		return fmt.Errorf("policy has no terminator")
	}
	if !p.AllowInlineLists && !p.AllowBracedLists {
		return fmt.Errorf("policy must allow inline lists, braced lists or both")
	}
	return nil
}

var (
	// Whitespace matches one or more whitespace characters or comments.
	Whitespace Token = whitespaceToken{}
	// EndOfLine matches the end of a line, optionally preceded by blanks and a comment.
	// It also matches at the end of the input.
	EndOfLine Token = endOfLineToken{}
)

type whitespaceToken struct{}

func (whitespaceToken) String() string { return "whitespace" }

func (whitespaceToken) Match(cur *lexer.Cursor) bool {
	start := cur.Offset()
	skipSpace(cur)
	return cur.Offset() > start
}

type endOfLineToken struct{}

func (endOfLineToken) String() string { return "end of line" }

func (endOfLineToken) Match(cur *lexer.Cursor) bool {
	skipBlank(cur)
	switch cur.Peek() {
	case lexer.EOF:
		return true
	case '\n':
		cur.Next()
		return true
	case '\r':
		cur.Next()
		if cur.Peek() == '\n' {
			cur.Next()
		}
		return true
	}
	return false
}

// Literal matches s after any whitespace or comments.
func Literal(s string) Token { return literalToken(s) }

type literalToken string

func (l literalToken) String() string { return strconv.Quote(string(l)) }

func (l literalToken) Match(cur *lexer.Cursor) bool {
	skipSpace(cur)
	if !cur.HasPrefix(string(l)) {
		return false
	}
	cur.Advance(len(l))
	return true
}

// Pattern matches a regular expression, anchored at the cursor, after any whitespace or
// comments.
//
// It panics if expr does not compile.
func Pattern(expr string) Token {
	return &patternToken{expr: expr, re: regexp.MustCompile(`^(?:` + expr + `)`)}
}

type patternToken struct {
	expr string
	re   *regexp.Regexp
}

func (p *patternToken) String() string { return "/" + p.expr + "/" }

func (p *patternToken) Match(cur *lexer.Cursor) bool {
	skipSpace(cur)
	loc := p.re.FindStringIndex(cur.Rest())
	if loc == nil {
		return false
	}
	cur.Advance(loc[1])
	return true
}
