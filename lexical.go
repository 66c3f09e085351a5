package blockconf

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/sikol/blockconf/lexer"
)

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' }

func isIdentStart(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentChar(r rune) bool { return isIdentStart(r) || isDigit(r) || r == '-' || r == '_' }

// atBoundary returns true if a token may end at the cursor.
func atBoundary(cur *lexer.Cursor) bool {
	r := cur.Peek()
	return !isIdentChar(r) && r != '.'
}

// skipSpace skips whitespace and "#" comments.
func skipSpace(cur *lexer.Cursor) {
	for {
		switch r := cur.Peek(); {
		case isSpace(r):
			cur.Next()
		case r == '#':
			skipComment(cur)
		default:
			return
		}
	}
}

// skipBlank skips horizontal whitespace and a trailing comment, leaving any newline in place.
func skipBlank(cur *lexer.Cursor) {
	for {
		switch r := cur.Peek(); {
		case r == ' ' || r == '\t' || r == '\f' || r == '\v':
			cur.Next()
		case r == '#':
			skipComment(cur)
		default:
			return
		}
	}
}

// skipComment skips from "#" up to but not including the end of the line.
func skipComment(cur *lexer.Cursor) {
	for r := cur.Peek(); r != lexer.EOF && r != '\n' && r != '\r'; r = cur.Peek() {
		cur.Next()
	}
}

// scanIdent consumes an identifier, if there is one at the cursor.
func scanIdent(cur *lexer.Cursor) string {
	start := cur.Offset()
	if !isIdentStart(cur.Peek()) {
		return ""
	}
	for isIdentChar(cur.Peek()) {
		cur.Next()
	}
	return cur.Since(start)
}

func scanDigits(cur *lexer.Cursor) int {
	n := 0
	for isDigit(cur.Peek()) {
		cur.Next()
		n++
	}
	return n
}

func scanSign(cur *lexer.Cursor) {
	if r := cur.Peek(); r == '+' || r == '-' {
		cur.Next()
	}
}

// matchInteger matches [+-]?digit+.
func matchInteger(cur *lexer.Cursor) bool {
	scanSign(cur)
	return scanDigits(cur) > 0
}

// matchDecimal matches integer and decimal forms with an optional exponent.
func matchDecimal(cur *lexer.Cursor) bool {
	scanSign(cur)
	whole := scanDigits(cur)
	if cur.Peek() == '.' {
		cur.Next()
		if scanDigits(cur) == 0 && whole == 0 {
			return false
		}
	} else if whole == 0 {
		return false
	}
	if r := cur.Peek(); r == 'e' || r == 'E' {
		saved := *cur
		cur.Next()
		scanSign(cur)
		if scanDigits(cur) == 0 {
			*cur = saved
		}
	}
	return true
}

// matchBoolean matches one of the boolean words.
func matchBoolean(cur *lexer.Cursor) bool {
	switch scanIdent(cur) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// A string: a bare identifier or a quoted literal.
type stringNode struct{}

func (s *stringNode) String() string { return "a string" }

func (s *stringNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	skipSpace(&ctx.Cursor)
	start := ctx.Offset()
	switch r := ctx.Peek(); {
	case isIdentStart(r):
		word := scanIdent(&ctx.Cursor)
		return []parsed{{start, reflect.ValueOf(word)}}, nil
	case r == '\'' || r == '"':
		text, err := scanQuoted(&ctx.Cursor)
		if err != nil {
			return nil, err
		}
		return []parsed{{start, reflect.ValueOf(text)}}, nil
	}
	ctx.expect(start, s.String())
	return nil, nil
}

// scanQuoted consumes a quoted string literal and returns its unescaped contents.
func scanQuoted(cur *lexer.Cursor) (string, error) {
	start := cur.Offset()
	quote := cur.Next()
	var out strings.Builder
	for {
		escape := cur.Offset()
		switch r := cur.Next(); r {
		case lexer.EOF:
			return "", errorf(SyntaxError, start, "unterminated string")
		case quote:
			return out.String(), nil
		case '\\':
			switch e := cur.Next(); e {
			case 't':
				out.WriteRune('\t')
			case 'n':
				out.WriteRune('\n')
			case '\\', '\'', '"':
				out.WriteRune(e)
			case lexer.EOF:
				return "", errorf(SyntaxError, start, "unterminated string")
			default:
				return "", errorf(SyntaxError, escape, "invalid escape sequence \"\\%c\"", e)
			}
		default:
			out.WriteRune(r)
		}
	}
}

// skipQuoted consumes a quoted string without interpreting it.
func skipQuoted(cur *lexer.Cursor) {
	quote := cur.Next()
	for {
		switch cur.Next() {
		case lexer.EOF, quote:
			return
		case '\\':
			cur.Next()
		}
	}
}

// describeInput renders the input at offset for an "unexpected ..." message.
func describeInput(input string, offset int) string {
	cur := lexer.NewCursor(input)
	cur.Seek(offset)
	switch r := cur.Peek(); {
	case r == lexer.EOF:
		return "end of input"
	case isIdentStart(r):
		return strconv.Quote(scanIdent(&cur))
	case isDigit(r) || r == '+' || r == '-' || r == '.':
		cur.Next()
		for r := cur.Peek(); isIdentChar(r) || r == '.'; r = cur.Peek() {
			cur.Next()
		}
		return strconv.Quote(cur.Since(offset))
	case r == '\'' || r == '"':
		skipQuoted(&cur)
		text := cur.Since(offset)
		if i := strings.IndexAny(text, "\r\n"); i >= 0 {
			text = text[:i]
		}
		return strconv.Quote(text)
	case !unicode.IsPrint(r):
		return strconv.QuoteRune(r)
	default:
		return strconv.Quote(string(r))
	}
}

// skipDeclaration moves the cursor past the end of the declaration it is in.
//
// It stops after the next terminator at brace depth zero. Quoted strings and comments are
// skipped whole. Inside a block it stops before an unmatched "}" so the enclosing block can
// still close; at top level a stray "}" is skipped.
func skipDeclaration(cur *lexer.Cursor, terminator Token, nested bool) {
	depth := 0
	for !cur.EOF() {
		switch r := cur.Peek(); {
		case r == '#':
			skipComment(cur)
			continue
		case r == '\'' || r == '"':
			skipQuoted(cur)
			continue
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			} else if nested {
				return
			}
		case depth == 0:
			saved := *cur
			if terminator.Match(cur) && cur.Offset() > saved.Offset() {
				return
			}
			*cur = saved
		}
		cur.Next()
	}
}
