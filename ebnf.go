package blockconf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// String returns the EBNF for the grammar, in the syntax of golang.org/x/exp/ebnf.
//
// Productions for record types are capitalised and the first is the start production.
// Lexical productions are lower case.
func (p *Parser[T]) String() string {
	e := &ebnfWriter{records: map[*record]bool{}, lexical: map[string]string{}, tokens: map[string]string{}}
	e.enqueue(p.root)
	out := []string{}
	for len(e.pending) > 0 {
		r := e.pending[0]
		e.pending = e.pending[1:]
		decls := make([]string, 0, len(r.decls.nodes))
		for _, decl := range r.decls.nodes {
			decls = append(decls, e.expr(decl, false))
		}
		if len(decls) == 0 {
			out = append(out, recordName(r)+" = .")
			continue
		}
		out = append(out, fmt.Sprintf("%s = { %s } .", recordName(r), strings.Join(decls, " | ")))
	}
	names := make([]string, 0, len(e.lexical))
	for name := range e.lexical {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s = %s .", name, e.lexical[name]))
	}
	return strings.Join(out, "\n")
}

var lexicalProductions = map[string]struct {
	def  string
	deps []string
}{
	"boolean":    {`"true" | "false" | "yes" | "no"`, nil},
	"integer":    {`[ "+" | "-" ] digit { digit }`, []string{"digit"}},
	"decimal":    {`[ "+" | "-" ] ( digit { digit } [ "." { digit } ] | "." digit { digit } ) [ ( "e" | "E" ) [ "+" | "-" ] digit { digit } ]`, []string{"digit"}},
	"string":     {`identifier | quoted`, []string{"identifier", "quoted"}},
	"identifier": {`letter { letter | digit | "-" | "_" }`, []string{"letter", "digit"}},
	"quoted":     {`"\"" { char | escape } "\"" | "'" { char | escape } "'"`, []string{"char", "escape"}},
	"escape":     {`"\\" ( "t" | "n" | "\\" | "'" | "\"" )`, nil},
	"letter":     {`"a" … "z" | "A" … "Z"`, nil},
	"digit":      {`"0" … "9"`, nil},
	"char":       {`" " … "\U0010FFFF"`, nil},
	"whitespace": {`space { space }`, []string{"space"}},
	"space":      {`" " | "\t" | "\n" | "\r"`, nil},
	"eol":        {`[ "\r" ] "\n"`, nil},
}

type ebnfWriter struct {
	records map[*record]bool
	pending []*record
	lexical map[string]string
	// Production names of opaque tokens, by their description.
	tokens map[string]string
}

func (e *ebnfWriter) enqueue(r *record) {
	if !e.records[r] {
		e.records[r] = true
		e.pending = append(e.pending, r)
	}
}

// use adds a builtin lexical production and its dependencies.
func (e *ebnfWriter) use(name string) string {
	if _, ok := e.lexical[name]; ok {
		return name
	}
	prod := lexicalProductions[name]
	e.lexical[name] = prod.def
	for _, dep := range prod.deps {
		e.use(dep)
	}
	return name
}

// opaque adds a lexical production for a token that EBNF cannot describe.
func (e *ebnfWriter) opaque(name, describe string) string {
	if existing, ok := e.tokens[describe]; ok {
		return existing
	}
	if _, ok := e.lexical[name]; ok {
		name = fmt.Sprintf("%s%d", name, len(e.tokens))
	}
	e.tokens[describe] = name
	e.lexical[name] = "char { char } /* " + strings.ReplaceAll(describe, "*/", "* /") + " */"
	e.use("char")
	return name
}

func (e *ebnfWriter) token(t Token) string {
	switch t := t.(type) {
	case literalToken:
		return strconv.Quote(string(t))
	case whitespaceToken:
		return e.use("whitespace")
	case endOfLineToken:
		return e.use("eol")
	}
	return e.opaque("token", t.String())
}

func (e *ebnfWriter) expr(n node, group bool) string {
	switch n := n.(type) {
	case *trace:
		return e.expr(n.node, group)

	case *record:
		e.enqueue(n)
		return recordName(n)

	case *optionNode:
		return strconv.Quote(n.keyword.s) + " " + e.expr(n.body, false)

	case *blockNode:
		return strconv.Quote(n.keyword.s) + " " + e.expr(n.body, false)

	case *commit:
		return e.expr(n.node, group)

	case *capture:
		return e.expr(n.node, group)

	case *sequence:
		parts := make([]string, 0, len(n.nodes))
		for _, child := range n.nodes {
			parts = append(parts, e.expr(child, true))
		}
		out := strings.Join(parts, " ")
		if group && len(parts) > 1 {
			return "( " + out + " )"
		}
		return out

	case *disjunction:
		parts := make([]string, 0, len(n.nodes))
		for _, child := range n.nodes {
			parts = append(parts, e.expr(child, false))
		}
		out := strings.Join(parts, " | ")
		if group && len(parts) > 1 {
			return "( " + out + " )"
		}
		return out

	case *repetition:
		inner := e.expr(n.node, false)
		if n.min > 0 {
			return e.expr(n.node, true) + " { " + inner + " }"
		}
		return "{ " + inner + " }"

	case *optional:
		return "[ " + e.expr(n.node, false) + " ]"

	case *literal:
		return strconv.Quote(n.s)

	case *keyword:
		return strconv.Quote(n.s)

	case *tokenNode:
		return e.token(n.token)

	case *scalarNode:
		if n.token != nil {
			if _, builtin := lexicalProductions[n.lexical]; builtin {
				return e.opaque(n.lexical+"Value", n.token.String())
			}
			return e.opaque(n.lexical, n.token.String())
		}
		return e.use(n.lexical)

	case *stringNode, *textNode:
		return e.use("string")

	case *unionNode:
		parts := make([]string, 0, len(n.alts))
		for _, alt := range n.alts {
			parts = append(parts, e.expr(alt, false))
		}
		out := strings.Join(parts, " | ")
		if group && len(parts) > 1 {
			return "( " + out + " )"
		}
		return out

	case *tupleNode:
		forms := []string{}
		if n.policy.AllowInlineLists {
			parts := make([]string, 0, len(n.elems))
			for _, elem := range n.elems {
				parts = append(parts, e.expr(elem, true))
			}
			forms = append(forms, strings.Join(parts, ` "," `))
		}
		if n.policy.AllowBracedLists {
			terminator := e.token(n.policy.Terminator)
			parts := []string{`"{"`}
			for _, elem := range n.elems {
				parts = append(parts, e.expr(elem, true), terminator)
			}
			forms = append(forms, strings.Join(append(parts, `"}"`), " "))
		}
		out := strings.Join(forms, " | ")
		if group && (len(forms) > 1 || len(n.elems) > 1) {
			return "( " + out + " )"
		}
		return out
	}
	panic(fmt.Sprintf("unsupported node type %T", n))
}

func recordName(r *record) string {
	name := r.typ.Name()
	if name == "" {
		return "Record"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
