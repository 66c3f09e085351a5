package blockconf

import (
	"reflect"

	"github.com/alecthomas/repr"
)

// containerKind is the semantic kind of a declaration's field.
type containerKind int

const (
	scalarKind containerKind = iota
	sequenceKind
	setKind
	blockKind
	blockSequenceKind
	mapKind
)

func (k containerKind) String() string {
	switch k {
	case scalarKind:
		return "scalar"
	case sequenceKind:
		return "sequence"
	case setKind:
		return "unique set"
	case blockKind:
		return "block"
	case blockSequenceKind:
		return "block sequence"
	case mapKind:
		return "keyed map"
	}
	return "unknown"
}

// A binder merges the values parsed for one declaration into its field.
//
// merge is only called once the whole declaration has matched. A failing merge leaves the
// field unmodified.
type binder interface {
	merge(field reflect.Value, values []parsed) error
}

// Replace the field with the last value.
type overwriteBinder struct{}

func (overwriteBinder) merge(field reflect.Value, values []parsed) error {
	if len(values) == 0 {
		return nil
	}
	field.Set(conform(field.Type(), values[len(values)-1].value))
	return nil
}

// Append values in encounter order.
type sequenceBinder struct{}

func (sequenceBinder) merge(field reflect.Value, values []parsed) error {
	elem := field.Type().Elem()
	out := field
	for _, v := range values {
		out = reflect.Append(out, conform(elem, v.value))
	}
	field.Set(out)
	return nil
}

// Insert values into a map[T]struct{} or map[T]bool, rejecting duplicates.
type setBinder struct{}

func (setBinder) merge(field reflect.Value, values []parsed) error {
	t := field.Type()
	keys := make([]reflect.Value, 0, len(values))
	seen := map[interface{}]bool{}
	for _, v := range values {
		key := conform(t.Key(), v.value)
		if field.MapIndex(key).IsValid() || seen[key.Interface()] {
			return &parseError{
				kind:     SemanticError,
				offset:   v.offset,
				message:  "duplicate value " + repr.String(v.value.Interface()),
				consumed: true,
			}
		}
		seen[key.Interface()] = true
		keys = append(keys, key)
	}
	if field.IsNil() {
		field.Set(reflect.MakeMap(t))
	}
	member := reflect.New(t.Elem()).Elem()
	if member.Kind() == reflect.Bool {
		member.SetBool(true)
	}
	for _, key := range keys {
		field.SetMapIndex(key, member)
	}
	return nil
}

// Insert sub-records into a map keyed by a field of the sub-record.
type mapBinder struct {
	key fieldRef
}

func (m *mapBinder) merge(field reflect.Value, values []parsed) error {
	t := field.Type()
	for _, v := range values {
		sub := reflect.Indirect(v.value)
		key := m.key.get(sub).Convert(t.Key())
		if field.MapIndex(key).IsValid() {
			return &parseError{
				kind:     SemanticError,
				offset:   v.offset,
				message:  "duplicate key " + repr.String(m.key.get(sub).Interface()),
				consumed: true,
			}
		}
		if field.IsNil() {
			field.Set(reflect.MakeMap(t))
		}
		field.SetMapIndex(key, conform(t.Elem(), sub))
	}
	return nil
}
