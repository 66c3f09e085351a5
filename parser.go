package blockconf

import (
	"fmt"
	"io"
	"os"
	"reflect"
)

// A Parser for configuration files bound to record type T.
//
// A Parser is immutable once built and may be used concurrently.
type Parser[T any] struct {
	root      *record
	entry     node
	maxErrors int
}

// Build a parser for the declarations of record type T.
//
// T must be a struct. Its fields tagged with `config:"..."` are the declarations.
func Build[T any](options ...Option) (parser *Parser[T], err error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct but got %s", t)
	}
	opts := newParserOptions()
	for _, option := range options {
		if err := option(opts); err != nil {
			return nil, err
		}
	}
	if err := opts.policy.validate(); err != nil {
		return nil, err
	}
	defer recoverToError(&err)
	context := newGeneratorContext(opts)
	root := context.parseRecord(t)
	p := &Parser[T]{root: root, entry: root, maxErrors: opts.maxErrors}
	if opts.trace != nil {
		p.entry = injectTrace(opts.trace, 0, root, map[node]node{})
	}
	return p, nil
}

// MustBuild calls Build and panics if an error occurs.
func MustBuild[T any](options ...Option) *Parser[T] {
	parser, err := Build[T](options...)
	if err != nil {
		panic(err)
	}
	return parser
}

// ParseString parses text into a new T.
//
// filename is used only in diagnostics. On failure the returned record holds whatever was
// bound before the failure and must not be used.
func (p *Parser[T]) ParseString(filename, text string) (*T, error) {
	v := new(T)
	return v, p.ParseInto(filename, text, v)
}

// ParseBytes parses data into a new T.
func (p *Parser[T]) ParseBytes(filename string, data []byte) (*T, error) {
	return p.ParseString(filename, string(data))
}

// Parse reads r to the end and parses it into a new T.
func (p *Parser[T]) Parse(filename string, r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return new(T), ioError(filename, err)
	}
	return p.ParseBytes(filename, data)
}

// ParseFile reads and parses the file at path.
//
// A file that cannot be read is reported as a single diagnostic at line 0, column 0.
func (p *Parser[T]) ParseFile(path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return new(T), ioError(path, err)
	}
	return p.ParseBytes(path, data)
}

// ParseInto parses text into v.
//
// Fields that do not appear in text keep their current values, so v can carry defaults.
func (p *Parser[T]) ParseInto(filename, text string, v *T) error {
	if v == nil {
		return fmt.Errorf("ParseInto: nil %T", v)
	}
	ctx := newParseContext(text, p.maxErrors)
	rv := reflect.ValueOf(v).Elem()
	var final error
	for {
		start := ctx.Offset()
		_, err := p.entry.Parse(ctx, rv)
		if err == nil {
			skipSpace(&ctx.Cursor)
			if ctx.EOF() {
				break
			}
			err = ctx.unexpected()
		}
		if final = ctx.recover(err, ctx.Offset(), p.root.policy.Terminator); final != nil {
			break
		}
		if ctx.Offset() <= start {
			break
		}
	}
	errs := ctx.errors
	if final != nil {
		errs = append(errs, toParseError(final))
	}
	if len(errs) > 0 {
		return report(filename, text, errs)
	}
	return nil
}
