package blockconf

import (
	"github.com/hashicorp/hcl/v2"
)

// HCLDiagnostics converts the diagnostics to hcl.Diagnostics, so that a host program can render
// them with hcl's diagnostic writers.
//
// HCL columns are 1-based and count characters, so each column is one more than the
// Diagnostic's. The subject range covers the offending character. I/O diagnostics have no
// subject.
func (e *Error) HCLDiagnostics() hcl.Diagnostics {
	diags := make(hcl.Diagnostics, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		diag := &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  summary(d.Kind),
			Detail:   d.Message,
		}
		if d.Pos.Line > 0 {
			start := hcl.Pos{Line: d.Pos.Line, Column: d.Pos.Column + 1, Byte: d.Pos.Offset}
			end := start
			if rest := []rune(d.Context); d.Pos.Column < len(rest) {
				end.Column++
				end.Byte += len(string(rest[d.Pos.Column]))
			}
			diag.Subject = &hcl.Range{Filename: d.Pos.Filename, Start: start, End: end}
		}
		diags = append(diags, diag)
	}
	return diags
}

func summary(kind ErrorKind) string {
	switch kind {
	case SyntaxError:
		return "Syntax error"
	case SemanticError:
		return "Invalid value"
	case RangeError:
		return "Value out of range"
	case IOError:
		return "Cannot read configuration"
	}
	return "Error"
}
