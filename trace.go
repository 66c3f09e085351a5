package blockconf

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

type trace struct {
	w      io.Writer
	indent int
	node
}

func (t *trace) Parse(ctx *parseContext, parent reflect.Value) ([]parsed, error) {
	upcoming := ctx.Rest()
	if i := strings.IndexAny(upcoming, "\r\n"); i >= 0 {
		upcoming = upcoming[:i]
	}
	if len(upcoming) > 32 {
		upcoming = upcoming[:32]
	}
	fmt.Fprintf(t.w, "%s%q %s\n", strings.Repeat(" ", t.indent), upcoming, t.node.String())
	out, err := t.node.Parse(ctx, parent)
	switch {
	case err != nil:
		fmt.Fprintf(t.w, "%s! %s\n", strings.Repeat(" ", t.indent), err)
	case out == nil:
		fmt.Fprintf(t.w, "%s- %s\n", strings.Repeat(" ", t.indent), t.node.String())
	}
	return out, err
}

// injectTrace wraps n and its children with tracing nodes.
//
// Records are shared between blocks and may be recursive, so each is wrapped once.
func injectTrace(w io.Writer, indent int, n node, seen map[node]node) node {
	if wrapped, ok := seen[n]; ok {
		return wrapped
	}
	out := &trace{w, indent, n}
	seen[n] = out
	switch n := n.(type) {
	case *record:
		for i, child := range n.decls.nodes {
			n.decls.nodes[i] = injectTrace(w, indent+2, child, seen)
		}
	case *optionNode:
		n.body = injectTrace(w, indent+2, n.body, seen)
	case *blockNode:
		n.body = injectTrace(w, indent+2, n.body, seen)
	case *commit:
		n.node = injectTrace(w, indent, n.node, seen)
	case *sequence:
		for i, child := range n.nodes {
			n.nodes[i] = injectTrace(w, indent+2, child, seen)
		}
	case *disjunction:
		for i, child := range n.nodes {
			n.nodes[i] = injectTrace(w, indent+2, child, seen)
		}
	case *repetition:
		n.node = injectTrace(w, indent+2, n.node, seen)
	case *optional:
		n.node = injectTrace(w, indent+2, n.node, seen)
	case *capture:
		n.node = injectTrace(w, indent+2, n.node, seen)
	}
	return out
}
