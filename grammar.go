package blockconf

import (
	"reflect"
)

type generatorContext struct {
	*parserOptions
	records map[reflect.Type]*record
}

func newGeneratorContext(options *parserOptions) *generatorContext {
	return &generatorContext{parserOptions: options, records: map[reflect.Type]*record{}}
}

func (g *generatorContext) policyFor(t reflect.Type) *Policy {
	if policy, ok := g.policies[t]; ok {
		return &policy
	}
	policy := g.policy
	return &policy
}

// isRecord returns true if t (or *t) is a struct holding declarations rather than a value.
func (g *generatorContext) isRecord(t reflect.Type) bool {
	t = indirectType(t)
	return t.Kind() == reflect.Struct && !g.isValue(t)
}

// classify returns the container kind of a declaration of type t.
func (g *generatorContext) classify(t reflect.Type) containerKind {
	switch {
	case g.isRecord(t):
		return blockKind
	case g.isValue(t):
		return scalarKind
	}
	switch t.Kind() {
	case reflect.Slice:
		if g.isRecord(t.Elem()) {
			return blockSequenceKind
		}
		if g.isValue(t.Elem()) {
			return sequenceKind
		}
	case reflect.Map:
		elem := t.Elem()
		if (elem.Kind() == reflect.Bool || elem.Kind() == reflect.Struct && elem.NumField() == 0) && g.isValue(t.Key()) {
			return setKind
		}
		if g.isRecord(elem) && g.isValue(t.Key()) {
			return mapKind
		}
	}
	panicf("unsupported field type %s", t)
	return 0
}

// Takes a record type and builds the alternation over its declarations.
func (g *generatorContext) parseRecord(t reflect.Type) (out *record) {
	t = indirectType(t)
	if r, ok := g.records[t]; ok {
		return r
	}
	out = &record{typ: t, policy: g.policyFor(t), decls: &disjunction{}}
	g.records[t] = out
	defer decorate(func() string { return t.Name() })
	seen := map[string]bool{}
	for _, decl := range collectDeclarations(t) {
		if seen[decl.keyword] {
			panicf("%s: duplicate keyword %q", decl.field.name, decl.keyword)
		}
		seen[decl.keyword] = true
		out.decls.nodes = append(out.decls.nodes, g.parseDeclaration(decl, out.policy))
	}
	return out
}

func (g *generatorContext) parseDeclaration(decl declaration, policy *Policy) node {
	defer decorate(func() string { return decl.field.name })
	kind := g.classify(decl.field.typ)
	if decl.key != "" && kind < blockKind {
		panicf("key= is only valid on blocks")
	}
	switch kind {
	case blockKind, blockSequenceKind, mapKind:
		return g.parseBlock(decl, kind, policy)
	}
	var value node
	var bind binder
	switch kind {
	case sequenceKind:
		value = g.parseList(decl.field.typ.Elem(), policy)
		bind = sequenceBinder{}
	case setKind:
		value = g.parseList(decl.field.typ.Key(), policy)
		bind = setBinder{}
	default:
		value = g.parseValue(decl.field.typ, policy, true)
		bind = overwriteBinder{}
	}
	return &optionNode{
		keyword: &keyword{decl.keyword},
		field:   decl.field,
		kind:    kind,
		body: &commit{&sequence{[]node{
			&tokenNode{policy.Separator},
			value,
			&tokenNode{policy.Terminator},
		}}},
		binder: bind,
	}
}

// parseList builds "elem { "," elem }" and "{" { elem terminator } "}", as allowed by policy.
func (g *generatorContext) parseList(elem reflect.Type, policy *Policy) node {
	value := g.parseValue(elem, policy, false)
	out := &disjunction{}
	if policy.AllowInlineLists {
		out.nodes = append(out.nodes, &sequence{[]node{
			value,
			&repetition{node: &sequence{[]node{&literal{","}, value}}},
		}})
	}
	if policy.AllowBracedLists {
		out.nodes = append(out.nodes, &sequence{[]node{
			&literal{"{"},
			&repetition{node: &sequence{[]node{value, &tokenNode{policy.Terminator}}}},
			&literal{"}"},
		}})
	}
	if len(out.nodes) == 1 {
		return out.nodes[0]
	}
	return out
}

func (g *generatorContext) parseBlock(decl declaration, kind containerKind, policy *Policy) node {
	var elem reflect.Type
	switch kind {
	case blockKind:
		elem = indirectType(decl.field.typ)
	default:
		elem = indirectType(decl.field.typ.Elem())
	}
	out := &blockNode{
		keyword: &keyword{decl.keyword},
		field:   decl.field,
		kind:    kind,
		record:  g.parseRecord(elem),
	}
	body := []node{}
	if decl.key != "" {
		f, ok := elem.FieldByName(decl.key)
		if !ok || !f.IsExported() {
			panicf("key field %s.%s does not exist", elem.Name(), decl.key)
		}
		if !g.isValue(f.Type) {
			panicf("key field %s.%s has unsupported type %s", elem.Name(), decl.key, f.Type)
		}
		key := fieldRef{name: f.Name, index: f.Index, typ: f.Type}
		out.key = &key
		body = append(body, &capture{field: key, node: g.parseValue(f.Type, policy, true)})
	}
	switch kind {
	case mapKind:
		if out.key == nil {
			panicf("map blocks require key=")
		}
		if !keyConvertible(out.key.typ, decl.field.typ.Key()) {
			panicf("key field %s.%s of type %s does not convert to %s", elem.Name(), out.key.name, out.key.typ, decl.field.typ.Key())
		}
		out.binder = &mapBinder{key: *out.key}
	case blockSequenceKind:
		out.binder = sequenceBinder{}
	default:
		out.binder = overwriteBinder{}
	}
	body = append(body,
		&literal{"{"},
		out.record,
		&literal{"}"},
		&tokenNode{policy.Terminator},
	)
	out.body = &commit{&sequence{body}}
	return out
}

// keyConvertible returns true if a key field of type from can index a map keyed by to.
//
// Conversions are only allowed within a family of kinds: reflect converts an integer to a
// string as a rune, which would silently change the key.
func keyConvertible(from, to reflect.Type) bool {
	if from == to {
		return true
	}
	family := func(t reflect.Type) reflect.Kind {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.Int
		case reflect.Float32, reflect.Float64:
			return reflect.Float64
		}
		return t.Kind()
	}
	return family(from) == family(to) && family(from) != reflect.Interface && from.ConvertibleTo(to)
}
