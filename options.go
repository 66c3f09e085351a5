package blockconf

import (
	"fmt"
	"io"
	"reflect"
	"time"
)

// An Option to modify the behaviour of the Parser.
type Option func(p *parserOptions) error

type parserOptions struct {
	policy    Policy
	policies  map[reflect.Type]Policy
	scalars   map[reflect.Type]*scalarDef
	unions    map[reflect.Type][]reflect.Type
	tuples    map[reflect.Type]bool
	maxErrors int
	trace     io.Writer
}

func newParserOptions() *parserOptions {
	p := &parserOptions{
		policy:    DefaultPolicy(),
		policies:  map[reflect.Type]Policy{},
		scalars:   map[reflect.Type]*scalarDef{},
		unions:    map[reflect.Type][]reflect.Type{},
		tuples:    map[reflect.Type]bool{},
		maxErrors: 1,
	}
	// Durations are registered the same way user scalars are.
	if err := Scalar("a duration", Pattern(durationPattern), time.ParseDuration)(p); err != nil {
		panic(err)
	}
	return p
}

const durationPattern = `[+-]?(([0-9]+(\.[0-9]*)?|\.[0-9]+)(ns|us|µs|μs|ms|s|m|h))+`

// WithPolicy sets the policy used by every record type without its own policy.
func WithPolicy(policy Policy) Option {
	return func(p *parserOptions) error {
		if err := policy.validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// PolicyFor sets the policy used for the declarations of record type S.
func PolicyFor[S any](policy Policy) Option {
	return func(p *parserOptions) error {
		t := reflect.TypeOf((*S)(nil)).Elem()
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("PolicyFor: %s is not a struct", t)
		}
		if err := policy.validate(); err != nil {
			return fmt.Errorf("PolicyFor[%s]: %w", t, err)
		}
		p.policies[t] = policy
		return nil
	}
}

// Union declares the alternatives of a tagged union.
//
// Fields of interface type I accept a value of any of the alternatives' dynamic types. The
// alternatives are tried in the order given and the first one that matches wins, even if a
// later alternative could also match the same input.
//
//	blockconf.Union[Value](int64(0), "")
func Union[I any](alternatives ...I) Option {
	return func(p *parserOptions) error {
		t := reflect.TypeOf((*I)(nil)).Elem()
		if t.Kind() != reflect.Interface {
			return fmt.Errorf("Union: %s is not an interface", t)
		}
		if len(alternatives) == 0 {
			return fmt.Errorf("Union[%s]: no alternatives", t)
		}
		alts := make([]reflect.Type, 0, len(alternatives))
		for i, alt := range alternatives {
			v := reflect.ValueOf(alt)
			if !v.IsValid() {
				return fmt.Errorf("Union[%s]: alternative %d is nil", t, i)
			}
			alts = append(alts, v.Type())
		}
		p.unions[t] = alts
		return nil
	}
}

// Tuple declares that struct S is written as a fixed-arity list of values.
//
// The exported fields of S are the elements, in declaration order.
func Tuple[S any]() Option {
	return func(p *parserOptions) error {
		t := reflect.TypeOf((*S)(nil)).Elem()
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("Tuple: %s is not a struct", t)
		}
		p.tuples[t] = true
		return nil
	}
}

// Scalar registers a new scalar type.
//
// Values of type T are matched by token and converted by construct. describe is used in error
// messages, eg. "a duration". A construct error wrapping strconv.ErrRange is reported as a
// range error.
func Scalar[T any](describe string, token Token, construct func(text string) (T, error)) Option {
	return func(p *parserOptions) error {
		t := reflect.TypeOf((*T)(nil)).Elem()
		if token == nil {
			return fmt.Errorf("Scalar[%s]: nil token", t)
		}
		p.scalars[t] = &scalarDef{
			describe: describe,
			token:    token,
			construct: func(text string) (reflect.Value, error) {
				v, err := construct(text)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(&v).Elem(), nil
			},
		}
		return nil
	}
}

// MaxErrors sets how many diagnostics to collect before giving up.
//
// With n > 1 the parser skips past a declaration that fails and carries on with the next.
// The default is 1.
func MaxErrors(n int) Option {
	return func(p *parserOptions) error {
		if n < 1 {
			return fmt.Errorf("MaxErrors: %d is less than 1", n)
		}
		p.maxErrors = n
		return nil
	}
}

// Trace the parse to "w".
func Trace(w io.Writer) Option {
	return func(p *parserOptions) error {
		p.trace = w
		return nil
	}
}
