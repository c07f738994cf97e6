package common

import (
	"cmp"
	"regexp"
	"slices"
)

// RuntimePath is the import path of the runtime used by generated code.
const RuntimePath = "github.com/Alia5/gobjgen/gobject"

// NumericKinds maps the predeclared numeric types to their bit size; 0 marks
// the platform sized ones.
var NumericKinds = map[string]int{
	"int": 0, "int8": 8, "int16": 16, "int32": 32, "int64": 64,
	"uint": 0, "uint8": 8, "uint16": 16, "uint32": 32, "uint64": 64, "uintptr": 0,
	"byte": 8, "rune": 32,
	"float32": 32, "float64": 64,
}

// IsNumeric reports whether goType is a predeclared numeric type.
func IsNumeric(goType string) bool {
	_, ok := NumericKinds[goType]
	return ok
}

var qualifierPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.[A-Za-z_]`)

// Qualifiers returns the package qualifiers referenced by a Go type string,
// sorted and without duplicates.
// Example: "map[string]*time.Time" -> ["time"].
func Qualifiers(goType string) []string {
	var out []string
	for _, m := range qualifierPattern.FindAllStringSubmatch(goType, -1) {
		out = append(out, m[1])
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
