package blockconf_test

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sikol/blockconf"
)

func TestIntegerWidths(t *testing.T) {
	type grammar struct {
		I   int    `config:"i"`
		I8  int8   `config:"i8"`
		I16 int16  `config:"i16"`
		I32 int32  `config:"i32"`
		I64 int64  `config:"i64"`
		U   uint   `config:"u"`
		U8  uint8  `config:"u8"`
		U16 uint16 `config:"u16"`
		U32 uint32 `config:"u32"`
		U64 uint64 `config:"u64"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", fmt.Sprintf(
		"i -1; i8 -128; i16 32767; i32 -2147483648; i64 %d; u +7; u8 255; u16 65535; u32 4294967295; u64 %d;",
		int64(math.MaxInt64), uint64(math.MaxUint64)))
	require.NoError(t, err)
	require.Equal(t, &grammar{
		I: -1, I8: -128, I16: 32767, I32: -2147483648, I64: math.MaxInt64,
		U: 7, U8: 255, U16: 65535, U32: 4294967295, U64: math.MaxUint64,
	}, actual)

	overflows := []string{
		"i8 128;", "i16 32768;", "i32 2147483648;", "i64 9223372036854775808;",
		"u8 256;", "u16 65536;", "u32 4294967296;", "u64 18446744073709551616;", "u -2;",
	}
	for _, input := range overflows {
		_, err := parser.ParseString("", input)
		diags := requireDiagnostics(t, err)
		require.Equal(t, blockconf.RangeError, diags[0].Kind, input)
	}

	actual, err = parser.ParseString("", "u -0;")
	require.NoError(t, err)
	require.Equal(t, uint(0), actual.U)
}

func TestIntegerRequiresBoundary(t *testing.T) {
	type grammar struct {
		I int `config:"i"`
	}
	parser := mustTestParser[grammar](t)
	for _, input := range []string{"i 12abc;", "i 1.5;", "i -;", "i +;"} {
		_, err := parser.ParseString("", input)
		diags := requireDiagnostics(t, err)
		require.Equal(t, blockconf.SyntaxError, diags[0].Kind, input)
		require.Equal(t, 2, diags[0].Pos.Column, input)
	}
}

func TestFloats(t *testing.T) {
	type grammar struct {
		F32 float32   `config:"f32"`
		F64 []float64 `config:"f64"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "f32 1.5; f64 1, 2.5, -.5, 3., 1e3, 2.5E-1, +4;")
	require.NoError(t, err)
	require.Equal(t, float32(1.5), actual.F32)
	require.Equal(t, []float64{1, 2.5, -0.5, 3, 1000, 0.25, 4}, actual.F64)

	_, err = parser.ParseString("", "f64 .;")
	diags := requireDiagnostics(t, err)
	require.Equal(t, `unexpected "." (expected a decimal number or "{")`, diags[0].Message)
}

func TestBooleans(t *testing.T) {
	type grammar struct {
		B []bool `config:"b"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "b true, false, yes, no;")
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true, false}, actual.B)

	for _, input := range []string{"b maybe;", "b yess;", "b True;", "b 1;"} {
		_, err := parser.ParseString("", input)
		diags := requireDiagnostics(t, err)
		require.Contains(t, diags[0].Message, "expected a boolean", input)
	}
}

func TestStrings(t *testing.T) {
	type grammar struct {
		S []string `config:"s"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", `s bare-word_1, "double", 'single', "tab\there", 'new\nline', "q\"uote", 'a\'b', "back\\slash", '', "héllo";`)
	require.NoError(t, err)
	require.Equal(t, []string{
		"bare-word_1", "double", "single", "tab\there", "new\nline", `q"uote`, "a'b", `back\slash`, "", "héllo",
	}, actual.S)

	_, err = parser.ParseString("", "s 'abc;\n")
	diags := requireDiagnostics(t, err)
	require.Equal(t, "unterminated string", diags[0].Message)
	require.Equal(t, 2, diags[0].Pos.Column)

	_, err = parser.ParseString("", `s "a\qb";`)
	diags = requireDiagnostics(t, err)
	require.Equal(t, `invalid escape sequence "\q"`, diags[0].Message)
	require.Equal(t, 4, diags[0].Pos.Column)

	_, err = parser.ParseString("", "s 9lives;")
	diags = requireDiagnostics(t, err)
	require.Equal(t, `unexpected "9lives" (expected a string or "{")`, diags[0].Message)
}

type mode string

func TestNamedAndPointerTypes(t *testing.T) {
	type level int
	type grammar struct {
		Mode    mode     `config:"mode"`
		Level   level    `config:"level"`
		Limit   *int     `config:"limit"`
		Label   *string  `config:"label"`
		Modes   []mode   `config:"modes"`
		Weights []*uint8 `config:"weights"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "mode fast; level 3; limit 10; label 'x'; modes a, b; weights 1, 2;")
	require.NoError(t, err)
	require.Equal(t, mode("fast"), actual.Mode)
	require.Equal(t, level(3), actual.Level)
	require.NotNil(t, actual.Limit)
	require.Equal(t, 10, *actual.Limit)
	require.Equal(t, "x", *actual.Label)
	require.Equal(t, []mode{"a", "b"}, actual.Modes)
	require.Len(t, actual.Weights, 2)
	require.Equal(t, uint8(2), *actual.Weights[1])
}

func TestDuration(t *testing.T) {
	type grammar struct {
		Timeout  time.Duration   `config:"timeout"`
		Backoffs []time.Duration `config:"backoff"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "timeout 1h30m; backoff 100ms, 1.5s;")
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, actual.Timeout)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 1500 * time.Millisecond}, actual.Backoffs)

	_, err = parser.ParseString("", "timeout 10;")
	diags := requireDiagnostics(t, err)
	require.Equal(t, `unexpected "10" (expected a duration)`, diags[0].Message)
}

func TestTextUnmarshaler(t *testing.T) {
	type grammar struct {
		Addr  net.IP   `config:"addr"`
		Peers []net.IP `config:"peer"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "addr '10.0.0.1'; peer '::1', '192.168.0.1';")
	require.NoError(t, err)
	require.True(t, net.ParseIP("10.0.0.1").Equal(actual.Addr))
	require.Len(t, actual.Peers, 2)
	require.True(t, net.IPv6loopback.Equal(actual.Peers[0]))

	_, err = parser.ParseString("", "addr 'nope';")
	diags := requireDiagnostics(t, err)
	require.Equal(t, blockconf.SemanticError, diags[0].Kind)
	require.True(t, strings.HasPrefix(diags[0].Message, `invalid net.IP "nope"`), diags[0].Message)
	require.Equal(t, 5, diags[0].Pos.Column)
}

type percent uint8

func parsePercent(text string) (percent, error) {
	n, err := strconv.ParseUint(strings.TrimSuffix(text, "%"), 10, 8)
	if err != nil {
		return 0, err
	}
	if n > 100 {
		return 0, fmt.Errorf("%d%% is more than 100%%: %w", n, strconv.ErrRange)
	}
	return percent(n), nil
}

func TestCustomScalar(t *testing.T) {
	type grammar struct {
		Load    percent   `config:"load"`
		History []percent `config:"history"`
	}
	parser := mustTestParser[grammar](t, blockconf.Scalar("a percentage", blockconf.Pattern(`[0-9]+%`), parsePercent))
	actual, err := parser.ParseString("", "load 50%; history 10%, 20%;")
	require.NoError(t, err)
	require.Equal(t, percent(50), actual.Load)
	require.Equal(t, []percent{10, 20}, actual.History)

	_, err = parser.ParseString("", "load 150%;")
	diags := requireDiagnostics(t, err)
	require.Equal(t, blockconf.RangeError, diags[0].Kind)
	require.Equal(t, "value 150% out of range for blockconf_test.percent", diags[0].Message)

	_, err = parser.ParseString("", "load 50;")
	diags = requireDiagnostics(t, err)
	require.Equal(t, `unexpected "50" (expected a percentage)`, diags[0].Message)

	_, err = blockconf.Build[grammar](blockconf.Scalar[percent]("a percentage", nil, parsePercent))
	require.EqualError(t, err, "Scalar[blockconf_test.percent]: nil token")
}
