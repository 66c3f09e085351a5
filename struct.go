package blockconf

import (
	"reflect"
	"strings"
	"unicode"
)

// A fieldRef names a field of a record type and how to reach it.
type fieldRef struct {
	name  string
	index []int
	typ   reflect.Type
}

func (f fieldRef) get(record reflect.Value) reflect.Value {
	return record.FieldByIndex(f.index)
}

// A declaration is a tagged field of a record type.
type declaration struct {
	field   fieldRef
	keyword string
	key     string
}

// collectDeclarations returns the tagged fields of t in declaration order, including those
// of anonymous embedded structs.
func collectDeclarations(t reflect.Type) (out []declaration) {
	collectFieldIndexes(t, nil, &out)
	return out
}

func collectFieldIndexes(t reflect.Type, prefix []int, out *[]declaration) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		tag, tagged := f.Tag.Lookup("config")
		if f.Anonymous && !tagged {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				panicf("%s: embedded pointer structs are not supported", f.Name)
			}
			if ft.Kind() == reflect.Struct {
				collectFieldIndexes(ft, index, out)
			}
			continue
		}
		if !tagged {
			continue
		}
		if !f.IsExported() {
			panicf("%s: tagged field is unexported", f.Name)
		}
		decl := declaration{field: fieldRef{name: f.Name, index: index, typ: f.Type}}
		parseTag(f.Name, tag, &decl)
		*out = append(*out, decl)
	}
}

// parseTag parses `config:"[keyword][,key=Field]"`.
func parseTag(name, tag string, decl *declaration) {
	parts := strings.Split(tag, ",")
	decl.keyword = strings.TrimSpace(parts[0])
	if decl.keyword == "" {
		decl.keyword = kebabCase(name)
	}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if !ok || k != "key" || v == "" {
			panicf("%s: invalid tag option %q", name, part)
		}
		decl.key = v
	}
	if !isIdentifier(decl.keyword) {
		panicf("%s: keyword %q is not an identifier", name, decl.keyword)
	}
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || i > 0 && !isIdentChar(r) {
			return false
		}
	}
	return s != ""
}

// kebabCase converts a Go field name to a keyword: "MaxConns" becomes "max-conns" and
// "HTTPPort" becomes "http-port".
func kebabCase(name string) string {
	runes := []rune(name)
	var out strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || unicode.IsUpper(prev) && nextLower {
					out.WriteByte('-')
				}
			}
			r = unicode.ToLower(r)
		} else if r == '_' {
			r = '-'
		}
		out.WriteRune(r)
	}
	return out.String()
}

func indirectType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
