// Package blockconf parses a small block/option configuration language directly into Go structs.
//
// The grammar is derived from the struct declaration. Each field tagged with `config:"..."` is a
// declaration, and what it accepts depends only on the field's type:
//
//	type Server struct {
//	    Name   string            // key of the block, set from `server web { ... };`
//	    Listen []string          `config:"listen"`    // listen a, b; listen c;
//	    Ports  map[int]struct{}  `config:"ports"`     // duplicates are an error
//	    Debug  bool              `config:"debug"`     // true/false/yes/no
//	}
//
//	type Config struct {
//	    Workers int                `config:"workers"`
//	    Servers map[string]*Server `config:"server,key=Name"`
//	}
//
//	parser := blockconf.MustBuild[Config]()
//	config, err := parser.ParseString("app.conf", `
//	    workers 4;
//	    server web {
//	        listen 'localhost:80', 'localhost:443';
//	        debug yes;
//	    };
//	`)
//
// Fields whose type is a struct (or slice or map of structs) are blocks, everything else is an
// option. Slices append on every occurrence, maps of struct{} or bool are sets that reject
// duplicate values, and maps of structs reject duplicate keys. Interface fields declared with
// Union hold one of several alternatives, tried in declaration order. Arrays, Pair and structs
// declared with Tuple are fixed-arity lists.
//
// Separators, terminators and the accepted list forms are controlled by a Policy.
//
// A failed parse returns an *Error holding one Diagnostic per problem, each with the file,
// line, column and text of the offending line.
package blockconf
