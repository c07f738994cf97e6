package diag

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Flag is an option as seen by the combination checks: its name and, if it
// was given, where.
type Flag struct {
	Name  string
	Range *hcl.Range
}

func (f Flag) Set() bool { return f.Range != nil }

// F builds a Flag from an optional range.
func F(name string, rng *hcl.Range) Flag { return Flag{Name: name, Range: rng} }

// OnlyOneOf reports every set flag after the first one. It returns true when
// at most one flag is set.
func OnlyOneOf(l *List, flags ...Flag) bool {
	var first *Flag
	ok := true
	for i := range flags {
		f := &flags[i]
		if !f.Set() {
			continue
		}
		if first == nil {
			first = f
			continue
		}
		ok = false
		l.Errorf(DisallowedCombination, *f.Range, "Conflicting options",
			"%q cannot be combined with %q; only one of %s may be given.", f.Name, first.Name, names(flags))
	}
	return ok
}

// Disallow reports every set flag. reason completes the sentence
// "<flag> is not allowed ...". It returns true when no flag is set.
func Disallow(l *List, reason string, flags ...Flag) bool {
	ok := true
	for _, f := range flags {
		if !f.Set() {
			continue
		}
		ok = false
		l.Errorf(DisallowedCombination, *f.Range, "Option not allowed", "%q is not allowed %s.", f.Name, reason)
	}
	return ok
}

// Requires reports flag when it is set but one of deps is not.
func Requires(l *List, flag Flag, deps ...Flag) bool {
	if !flag.Set() {
		return true
	}
	ok := true
	for _, d := range deps {
		if d.Set() {
			continue
		}
		ok = false
		l.Errorf(DisallowedCombination, *flag.Range, "Missing required option", "%q requires %q.", flag.Name, d.Name)
	}
	return ok
}

func names(flags []Flag) string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.Name
	}
	return strings.Join(out, ", ")
}
