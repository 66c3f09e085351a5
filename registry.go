package blockconf

import (
	"encoding"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/sikol/blockconf/lexer"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	positionalType      = reflect.TypeOf((*positional)(nil)).Elem()
)

// positional is implemented by tuple types defined in this package.
type positional interface{ positional() }

// Pair is a two-element tuple, written "first, second" or "{ first; second; }".
type Pair[A, B any] struct {
	First  A
	Second B
}

func (Pair[A, B]) positional() {}

// A scalar registered with the Scalar option.
type scalarDef struct {
	describe  string
	token     Token
	construct func(text string) (reflect.Value, error)
}

// A scalar value: a token whose text is converted by a constructor.
type scalarNode struct {
	typ      reflect.Type
	describe string
	// Name of the lexical production in the EBNF.
	lexical   string
	token     Token
	match     func(cur *lexer.Cursor) bool
	boundary  bool
	construct func(text string) (reflect.Value, error)
}

func (s *scalarNode) String() string { return s.describe }

func (s *scalarNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	skipSpace(&ctx.Cursor)
	start := ctx.Cursor
	if !s.match(&ctx.Cursor) || ctx.Offset() == start.Offset() || s.boundary && !atBoundary(&ctx.Cursor) {
		ctx.Cursor = start
		ctx.expect(start.Offset(), s.describe)
		return nil, nil
	}
	text := ctx.Since(start.Offset())
	v, err := s.construct(text)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, errorf(RangeError, start.Offset(), "value %s out of range for %s", text, s.typ)
		}
		return nil, errorf(SemanticError, start.Offset(), "invalid %s %q: %s", s.typ, text, constructorMessage(err))
	}
	return []parsed{{start.Offset(), v}}, nil
}

// constructorMessage strips the function prefix from strconv errors.
func constructorMessage(err error) string {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err.Error()
	}
	return err.Error()
}

// A string converted to a named string type or through encoding.TextUnmarshaler.
type textNode struct {
	typ       reflect.Type
	unmarshal bool
}

func (t *textNode) String() string { return "a string" }

func (t *textNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	out, err := (&stringNode{}).Parse(ctx, parent)
	if err != nil || out == nil {
		return out, err
	}
	text := out[0].value.String()
	if !t.unmarshal {
		return []parsed{{out[0].offset, out[0].value.Convert(t.typ)}}, nil
	}
	v := reflect.New(t.typ)
	if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, errorf(RangeError, out[0].offset, "value %q out of range for %s", text, t.typ)
		}
		return nil, errorf(SemanticError, out[0].offset, "invalid %s %q: %s", t.typ, text, err)
	}
	return []parsed{{out[0].offset, v.Elem()}}, nil
}

// A tagged union: the first alternative that matches wins.
//
// An alternative that fails with a range or arity error is skipped. That error is reported
// only if no later alternative matches.
type unionNode struct {
	typ  reflect.Type
	alts []node
}

func (u *unionNode) String() string {
	parts := make([]string, 0, len(u.alts))
	for _, alt := range u.alts {
		parts = append(parts, alt.String())
	}
	return joinExpected(parts)
}

func (u *unionNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	var rejected error
	for _, alt := range u.alts {
		out, err := alt.Parse(ctx, parent)
		if err != nil {
			var perr *parseError
			if errors.As(err, &perr) && (perr.kind == RangeError || perr.mismatch) {
				if rejected == nil {
					rejected = err
				}
				ctx.Cursor = start
				continue
			}
			return nil, err
		}
		if out != nil {
			for i := range out {
				out[i].value = conform(u.typ, out[i].value)
			}
			return out, nil
		}
		ctx.Cursor = start
	}
	return nil, rejected
}

// A fixed-arity heterogeneous tuple.
type tupleNode struct {
	typ    reflect.Type
	elems  []node
	fields [][]int // struct field per element, nil for arrays
	policy *Policy
	// strict tuples reject a trailing ",": they are not inside an inline list.
	strict bool
}

func (t *tupleNode) String() string {
	parts := make([]string, 0, len(t.elems))
	for _, elem := range t.elems {
		parts = append(parts, elem.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *tupleNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	skipSpace(&ctx.Cursor)
	start := ctx.Cursor
	if t.policy.AllowInlineLists {
		out, err := t.parseInline(ctx, parent)
		if err != nil || out != nil {
			return out, err
		}
		ctx.Cursor = start
	}
	if t.policy.AllowBracedLists {
		out, err := t.parseBraced(ctx, parent)
		if err != nil || out != nil {
			return out, err
		}
		ctx.Cursor = start
	}
	return nil, nil
}

func (t *tupleNode) parseInline(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Offset()
	value := reflect.New(t.typ).Elem()
	for i, elem := range t.elems {
		if i > 0 {
			if out, _ := (&literal{","}).Parse(ctx, parent); out == nil {
				return nil, t.arityError(ctx.Offset(), "expected %d values, got %d", len(t.elems), i)
			}
		}
		out, err := elem.Parse(ctx, parent)
		if err != nil || out == nil {
			return nil, err
		}
		t.set(value, i, out[0].value)
	}
	if t.strict {
		probe := ctx.Cursor
		skipSpace(&probe)
		if probe.Peek() == ',' {
			return nil, t.arityError(probe.Offset(), "too many values (expected %d)", len(t.elems))
		}
	}
	return []parsed{{start, value}}, nil
}

func (t *tupleNode) parseBraced(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Offset()
	if out, _ := (&literal{"{"}).Parse(ctx, parent); out == nil {
		return nil, nil
	}
	terminator := &tokenNode{t.policy.Terminator}
	value := reflect.New(t.typ).Elem()
	for i, elem := range t.elems {
		probe := ctx.Cursor
		skipSpace(&probe)
		if probe.Peek() == '}' {
			return nil, t.arityError(probe.Offset(), "expected %d values, got %d", len(t.elems), i)
		}
		out, err := elem.Parse(ctx, parent)
		if err != nil || out == nil {
			return nil, err
		}
		t.set(value, i, out[0].value)
		if out, _ := terminator.Parse(ctx, parent); out == nil {
			return nil, nil
		}
	}
	probe := ctx.Cursor
	skipSpace(&probe)
	if r := probe.Peek(); r != '}' && r != lexer.EOF {
		return nil, t.arityError(probe.Offset(), "too many values (expected %d)", len(t.elems))
	}
	if out, _ := (&literal{"}"}).Parse(ctx, parent); out == nil {
		return nil, nil
	}
	return []parsed{{start, value}}, nil
}

// arityError reports a tuple with the wrong number of values at offset.
func (t *tupleNode) arityError(offset int, format string, args ...interface{}) *parseError {
	err := errorf(SyntaxError, offset, format, args...)
	err.mismatch = true
	return err
}

func (t *tupleNode) set(tuple reflect.Value, i int, v reflect.Value) {
	var dst reflect.Value
	if t.fields == nil {
		dst = tuple.Index(i)
	} else {
		dst = tuple.FieldByIndex(t.fields[i])
	}
	dst.Set(conform(dst.Type(), v))
}

// conform converts a parsed value to the type of its destination.
func conform(t reflect.Type, v reflect.Value) reflect.Value {
	if v.Type() == t {
		return v
	}
	switch {
	case t.Kind() == reflect.Ptr && v.Type() == t.Elem():
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ptr
	case t.Kind() == reflect.Interface && !v.Type().Implements(t) && reflect.PtrTo(v.Type()).Implements(t):
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		v = ptr
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}

// isValue returns true if t can be parsed as a single value.
func (g *generatorContext) isValue(t reflect.Type) bool {
	if _, ok := g.scalars[t]; ok {
		return true
	}
	if _, ok := g.unions[t]; ok {
		return true
	}
	if g.isTuple(t) || reflect.PtrTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Array:
		return t.Len() > 0 && g.isValue(t.Elem())
	case reflect.Ptr:
		return g.isValue(t.Elem())
	}
	return false
}

func (g *generatorContext) isTuple(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	return g.tuples[t] || t.Implements(positionalType)
}

// parseValue builds the grammar for a single value of type t.
func (g *generatorContext) parseValue(t reflect.Type, policy *Policy, strict bool) node {
	if t.Kind() == reflect.Ptr {
		return g.parseValue(t.Elem(), policy, strict)
	}
	if def, ok := g.scalars[t]; ok {
		return &scalarNode{
			typ:       t,
			describe:  def.describe,
			lexical:   lexicalName(t),
			token:     def.token,
			match:     def.token.Match,
			construct: def.construct,
		}
	}
	if alts, ok := g.unions[t]; ok {
		out := &unionNode{typ: t}
		for _, alt := range alts {
			out.alts = append(out.alts, g.parseValue(alt, policy, strict))
		}
		return out
	}
	if g.isTuple(t) {
		return g.parseTuple(t, policy, strict)
	}
	if reflect.PtrTo(t).Implements(textUnmarshalerType) {
		return &textNode{typ: t, unmarshal: true}
	}
	switch t.Kind() {
	case reflect.Bool:
		return &scalarNode{typ: t, describe: "a boolean", lexical: "boolean", match: matchBoolean, boundary: true,
			construct: func(text string) (reflect.Value, error) {
				v := reflect.New(t).Elem()
				v.SetBool(text == "true" || text == "yes")
				return v, nil
			}}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &scalarNode{typ: t, describe: "an integer", lexical: "integer", match: matchInteger, boundary: true,
			construct: func(text string) (reflect.Value, error) {
				n, err := strconv.ParseInt(text, 10, t.Bits())
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				v.SetInt(n)
				return v, nil
			}}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &scalarNode{typ: t, describe: "a positive integer", lexical: "integer", match: matchInteger, boundary: true,
			construct: func(text string) (reflect.Value, error) {
				n, err := parseUnsigned(text, t.Bits())
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				v.SetUint(n)
				return v, nil
			}}
	case reflect.Float32, reflect.Float64:
		return &scalarNode{typ: t, describe: "a decimal number", lexical: "decimal", match: matchDecimal, boundary: true,
			construct: func(text string) (reflect.Value, error) {
				n, err := strconv.ParseFloat(text, t.Bits())
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				v.SetFloat(n)
				return v, nil
			}}
	case reflect.String:
		if t == reflect.TypeOf("") {
			return &stringNode{}
		}
		return &textNode{typ: t}
	case reflect.Array:
		if t.Len() > 0 {
			return g.parseTuple(t, policy, strict)
		}
	}
	panicf("unsupported value type %s", t)
	return nil
}

// parseUnsigned parses an unsigned integer that may carry a sign. "-0" is zero, any other
// negative value is out of range.
func parseUnsigned(text string, bits int) (uint64, error) {
	switch {
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	case strings.HasPrefix(text, "-"):
		if strings.Trim(text[1:], "0") != "" {
			return 0, &strconv.NumError{Func: "ParseUint", Num: text, Err: strconv.ErrRange}
		}
		return 0, nil
	}
	return strconv.ParseUint(text, 10, bits)
}

func (g *generatorContext) parseTuple(t reflect.Type, policy *Policy, strict bool) node {
	out := &tupleNode{typ: t, policy: policy, strict: strict}
	if t.Kind() == reflect.Array {
		for i := 0; i < t.Len(); i++ {
			out.elems = append(out.elems, g.parseValue(t.Elem(), policy, false))
		}
		return out
	}
	out.fields = [][]int{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if !g.isValue(f.Type) {
			panicf("%s.%s: unsupported tuple element type %s", t.Name(), f.Name, f.Type)
		}
		out.fields = append(out.fields, f.Index)
		out.elems = append(out.elems, g.parseValue(f.Type, policy, false))
	}
	if len(out.elems) == 0 {
		panicf("tuple %s has no exported fields", t)
	}
	return out
}

// lexicalName derives an EBNF lexical production name from a type name.
func lexicalName(t reflect.Type) string {
	name := strings.Map(func(r rune) rune {
		if isIdentStart(r) || isDigit(r) {
			return r
		}
		return -1
	}, t.Name())
	if name == "" || !isIdentStart(rune(name[0])) {
		name = "value" + name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
