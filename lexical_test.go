package blockconf

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sikol/blockconf/lexer"
)

func TestMatchDecimal(t *testing.T) {
	tests := map[string]string{
		"1":       "1",
		"-1.5":    "-1.5",
		".5":      ".5",
		"3.":      "3.",
		"1e3":     "1e3",
		"2.5E-10": "2.5E-10",
		"1e":      "1",
		"1ex":     "1",
		"7.x":     "7.",
	}
	for input, expected := range tests {
		cur := lexer.NewCursor(input)
		require.True(t, matchDecimal(&cur), input)
		require.Equal(t, expected, cur.Since(0), input)
	}
	for _, input := range []string{".", "-", "+.", "e5", ""} {
		cur := lexer.NewCursor(input)
		require.False(t, matchDecimal(&cur), input)
	}
}

func TestDescribeInput(t *testing.T) {
	tests := []struct {
		input  string
		offset int
		want   string
	}{
		{"", 0, "end of input"},
		{"a b", 3, "end of input"},
		{"key-word; x", 0, `"key-word"`},
		{"-12.5e3;", 0, `"-12.5e3"`},
		{"9lives x", 0, `"9lives"`},
		{`'it\'s' x`, 0, `"'it\\'s'"`},
		{"'open\nrest", 0, `"'open"`},
		{"}", 0, `"}"`},
		{"\x01", 0, `'\x01'`},
	}
	for _, test := range tests {
		require.Equal(t, test.want, describeInput(test.input, test.offset), test.input)
	}
}

func TestSkipDeclaration(t *testing.T) {
	semicolon := Literal(";")
	tests := []struct {
		input  string
		nested bool
		rest   string
	}{
		{"a x; b 1;", false, " b 1;"},
		{"a { x; y; }; b 1;", false, " b 1;"},
		{"a 'x;y' # c;\n z; b;", false, " b;"},
		{"a x } b; c;", false, " c;"},
		{"a x } b; c;", true, "} b; c;"},
		{"a { x", false, ""},
	}
	for _, test := range tests {
		cur := lexer.NewCursor(test.input)
		skipDeclaration(&cur, semicolon, test.nested)
		require.Equal(t, test.rest, cur.Rest(), test.input)
	}

	cur := lexer.NewCursor("a = 1 # x\nb = 2\n")
	skipDeclaration(&cur, EndOfLine, false)
	require.Equal(t, "b = 2\n", cur.Rest())
}

func TestScanQuoted(t *testing.T) {
	cur := lexer.NewCursor(`"a\tb\\" rest`)
	text, err := scanQuoted(&cur)
	require.NoError(t, err)
	require.Equal(t, "a\tb\\", text)
	require.Equal(t, " rest", cur.Rest())

	cur = lexer.NewCursor(`'abc`)
	_, err = scanQuoted(&cur)
	require.EqualError(t, err, "unterminated string")
}
