// Package diag holds the diagnostic list shared by every compiler stage.
//
// Diagnostics are hcl.Diagnostic values so they carry a source range and can
// be rendered with the hcl text writer. Each one is tagged with a Kind in its
// Extra field.
package diag

import (
	"fmt"
	"go/token"
	"sort"

	"github.com/hashicorp/hcl/v2"
)

// Kind classifies a diagnostic.
type Kind string

const (
	MalformedAttribute    Kind = "malformed-attribute-syntax"
	UnknownOption         Kind = "unknown-option"
	DuplicateRoleTag      Kind = "duplicate-role-tag"
	DuplicateName         Kind = "duplicate-name"
	UnresolvedAccumulator Kind = "unresolved-accumulator-reference"
	DisallowedCombination Kind = "disallowed-modifier-combination"
	MissingName           Kind = "missing-name"
	UnmetCapability       Kind = "unmet-capability"
	TypeShapeMismatch     Kind = "type-shape-mismatch"
	UnresolvedReference   Kind = "unresolved-reference"
	ExtensionHook         Kind = "extension-hook"
	SourceError           Kind = "source-error"
)

// List accumulates diagnostics for one compilation unit. Stages append to it
// and never remove entries.
type List struct {
	diags hcl.Diagnostics
}

// Add appends an error diagnostic.
func (l *List) Add(kind Kind, rng hcl.Range, summary, detail string) {
	r := rng
	l.diags = append(l.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  &r,
		Extra:    kind,
	})
}

// Errorf appends an error diagnostic whose detail is formatted.
func (l *List) Errorf(kind Kind, rng hcl.Range, summary, format string, args ...any) {
	l.Add(kind, rng, summary, fmt.Sprintf(format, args...))
}

// Append adds diagnostics produced by hcl itself. Entries without a kind are
// classified as fallback.
func (l *List) Append(diags hcl.Diagnostics, fallback Kind) {
	for _, d := range diags {
		if _, ok := d.Extra.(Kind); !ok {
			d.Extra = fallback
		}
		l.diags = append(l.diags, d)
	}
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other *List) {
	l.diags = append(l.diags, other.diags...)
}

func (l *List) HasErrors() bool { return l.diags.HasErrors() }

func (l *List) Len() int { return len(l.diags) }

// Diagnostics returns the collected diagnostics in the order they were added.
func (l *List) Diagnostics() hcl.Diagnostics { return l.diags }

// Sorted returns the diagnostics ordered by file and position.
func (l *List) Sorted() hcl.Diagnostics {
	out := make(hcl.Diagnostics, len(l.diags))
	copy(out, l.diags)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Subject, out[j].Subject
		if a == nil || b == nil {
			return b != nil
		}
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Start.Byte < b.Start.Byte
	})
	return out
}

// Kinds lists the kind of every diagnostic in order.
func (l *List) Kinds() []Kind {
	out := make([]Kind, 0, len(l.diags))
	for _, d := range l.diags {
		out = append(out, KindOf(d))
	}
	return out
}

// Has reports whether a diagnostic of the given kind was recorded.
func (l *List) Has(kind Kind) bool {
	for _, d := range l.diags {
		if KindOf(d) == kind {
			return true
		}
	}
	return false
}

// KindOf returns the kind stored on d, or "" for foreign diagnostics.
func KindOf(d *hcl.Diagnostic) Kind {
	k, _ := d.Extra.(Kind)
	return k
}

// Range converts a go/token span into an hcl range.
func Range(fset *token.FileSet, from, to token.Pos) hcl.Range {
	start := fset.Position(from)
	end := start
	if to.IsValid() {
		end = fset.Position(to)
	}
	return hcl.Range{
		Filename: start.Filename,
		Start:    hcl.Pos{Line: start.Line, Column: start.Column, Byte: start.Offset},
		End:      hcl.Pos{Line: end.Line, Column: end.Column, Byte: end.Offset},
	}
}
