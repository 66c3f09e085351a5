package blockconf

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// A parsed value and the offset it started at.
type parsed struct {
	offset int
	value  reflect.Value
}

// matched is returned by nodes that match without producing a value.
var matched = []parsed{}

// A node in the grammar.
//
// Parse returns (nil, nil) if the node did not match, in which case the caller restores the
// cursor. A non-nil error is a hard failure that is not backtracked past.
type node interface {
	Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error)
	String() string
}

func decorate(name func() string) {
	if msg := recover(); msg != nil {
		switch msg := msg.(type) {
		case buildError:
			panicf("%s: %s", name(), msg)
		default:
			panic(msg)
		}
	}
}

func recoverToError(err *error) {
	if msg := recover(); msg != nil {
		switch msg := msg.(type) {
		case buildError:
			*err = msg
		default:
			panic(msg)
		}
	}
}

func panicf(f string, args ...interface{}) {
	panic(buildError(fmt.Sprintf(f, args...)))
}

// buildError is raised while compiling a grammar.
type buildError string

func (e buildError) Error() string { return string(e) }

// Match all nodes in order.
type sequence struct {
	nodes []node
}

func (s *sequence) String() string {
	parts := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " ")
}

func (s *sequence) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	out := matched
	for _, n := range s.nodes {
		child, err := n.Parse(ctx, parent)
		if err != nil {
			return nil, err
		}
		if child == nil {
			ctx.Cursor = start
			return nil, nil
		}
		out = append(out, child...)
	}
	return out, nil
}

// Match the first of a set of alternatives.
type disjunction struct {
	nodes []node
}

func (d *disjunction) String() string {
	parts := make([]string, 0, len(d.nodes))
	for _, n := range d.nodes {
		parts = append(parts, n.String())
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func (d *disjunction) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	for _, n := range d.nodes {
		out, err := n.Parse(ctx, parent)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
		ctx.Cursor = start
	}
	return nil, nil
}

// Match a node repeatedly, at least min times.
type repetition struct {
	min  int
	node node
}

func (r *repetition) String() string {
	if r.min > 0 {
		return r.node.String() + "+"
	}
	return "{ " + r.node.String() + " }"
}

func (r *repetition) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	out := matched
	for count := 0; ; count++ {
		before := ctx.Cursor
		child, err := r.node.Parse(ctx, parent)
		if err != nil {
			return nil, err
		}
		if child == nil {
			ctx.Cursor = before
			if count < r.min {
				ctx.Cursor = start
				return nil, nil
			}
			return out, nil
		}
		out = append(out, child...)
		if ctx.Offset() == before.Offset() {
			return out, nil
		}
	}
}

// Match a node zero or one times.
type optional struct {
	node node
}

func (o *optional) String() string { return "[ " + o.node.String() + " ]" }

func (o *optional) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	out, err := o.node.Parse(ctx, parent)
	if err != nil {
		return nil, err
	}
	if out == nil {
		ctx.Cursor = start
		return matched, nil
	}
	return out, nil
}

// A commit point: failure to match the body is a hard error.
//
// Expectations are tracked afresh inside the body so that the error describes the body and
// not alternatives tried before the commit point was reached.
type commit struct {
	node node
}

func (c *commit) String() string { return c.node.String() }

func (c *commit) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	deepest, expected := ctx.saveExpected()
	out, err := c.node.Parse(ctx, parent)
	if err == nil && out == nil {
		err = ctx.unexpected()
	}
	ctx.mergeExpected(deepest, expected)
	return out, err
}

// Match a literal string, after skipping whitespace and comments.
type literal struct {
	s string
}

func (l *literal) String() string { return strconv.Quote(l.s) }

func (l *literal) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	skipSpace(&ctx.Cursor)
	if !ctx.HasPrefix(l.s) {
		ctx.expect(ctx.Offset(), l.String())
		return nil, nil
	}
	ctx.Advance(len(l.s))
	return matched, nil
}

// Match a keyword: a literal identifier that is not followed by another identifier character.
type keyword struct {
	s string
}

func (k *keyword) String() string { return strconv.Quote(k.s) }

func (k *keyword) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	skipSpace(&ctx.Cursor)
	start := ctx.Cursor
	if ctx.HasPrefix(k.s) {
		ctx.Advance(len(k.s))
		if !isIdentChar(ctx.Peek()) {
			return matched, nil
		}
	}
	ctx.Cursor = start
	ctx.expect(start.Offset(), k.String())
	return nil, nil
}

// Match a policy token.
//
// The cursor is not pre-skipped: tokens such as EndOfLine decide for themselves what
// whitespace they consume. The expectation is recorded past any whitespace so that it lines
// up with the leaves around it.
type tokenNode struct {
	token Token
}

func (t *tokenNode) String() string { return t.token.String() }

func (t *tokenNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	start := ctx.Cursor
	if t.token.Match(&ctx.Cursor) {
		return matched, nil
	}
	ctx.Cursor = start
	probe := start
	skipSpace(&probe)
	ctx.expect(probe.Offset(), t.token.String())
	return nil, nil
}

// Capture the value matched by node into a field of the parent record.
type capture struct {
	field fieldRef
	node  node
}

func (c *capture) String() string { return c.node.String() }

func (c *capture) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	out, err := c.node.Parse(ctx, parent)
	if err != nil || out == nil {
		return out, err
	}
	if err := (overwriteBinder{}).merge(c.field.get(parent), out); err != nil {
		return nil, err
	}
	return out, nil
}

// The declarations of a record type, repeated until none matches.
//
// parent is the record being populated.
type record struct {
	typ    reflect.Type
	policy *Policy
	decls  *disjunction
}

func (r *record) String() string { return r.typ.Name() }

func (r *record) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	for {
		start := ctx.Cursor
		ctx.resetExpected()
		out, err := r.decls.Parse(ctx, parent)
		if err == nil && out != nil {
			continue
		}
		if err == nil {
			ctx.Cursor = start
			if err = unknownKeyword(ctx); err == nil {
				return matched, nil
			}
		}
		if err = ctx.recover(err, start.Offset(), r.policy.Terminator); err != nil {
			return nil, err
		}
		if ctx.Offset() <= start.Offset() {
			return matched, nil
		}
	}
}

// unknownKeyword returns an error if the cursor is at an identifier.
//
// It is called once no declaration matches, so the identifier is not a keyword.
func unknownKeyword(ctx *parseContext) error {
	probe := ctx.Cursor
	skipSpace(&probe)
	offset := probe.Offset()
	if word := scanIdent(&probe); word != "" {
		return errorf(SyntaxError, offset, "unknown keyword %q", word)
	}
	return nil
}

// An option: keyword separator value terminator.
type optionNode struct {
	keyword *keyword
	field   fieldRef
	kind    containerKind
	body    node
	binder  binder
}

func (o *optionNode) String() string { return o.keyword.String() }

func (o *optionNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	if out, _ := o.keyword.Parse(ctx, parent); out == nil {
		return nil, nil
	}
	values, err := o.body.Parse(ctx, parent)
	if err != nil {
		return nil, err
	}
	if err := o.binder.merge(o.field.get(parent), values); err != nil {
		return nil, err
	}
	return matched, nil
}

// A block: keyword [key] "{" declarations "}" terminator.
//
// The sub-record is built from scratch and only merged into the field once the whole block,
// terminator included, has matched without errors.
type blockNode struct {
	keyword *keyword
	field   fieldRef
	kind    containerKind
	key     *fieldRef
	record  *record
	body    node
	binder  binder
}

func (b *blockNode) String() string { return b.keyword.String() }

func (b *blockNode) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	if out, _ := b.keyword.Parse(ctx, parent); out == nil {
		return nil, nil
	}
	offset := ctx.Offset() - len(b.keyword.s)
	sub := reflect.New(b.record.typ).Elem()
	recovered := len(ctx.errors)
	ctx.depth++
	out, err := b.body.Parse(ctx, sub)
	ctx.depth--
	if err != nil {
		return nil, err
	}
	if len(ctx.errors) > recovered {
		return matched, nil
	}
	if b.key != nil && len(out) > 0 {
		offset = out[0].offset
	}
	if err := b.binder.merge(b.field.get(parent), []parsed{{offset, sub}}); err != nil {
		return nil, err
	}
	return matched, nil
}
