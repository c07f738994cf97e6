// Package golang renders a ClassDefinition as Go source on top of the gobject
// runtime.
package golang

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

const fileTemplate = `{{.Header}}
{{.Digest}}

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{range .Decls}}
{{.}}
{{end}}`

var fileTmpl = template.Must(template.New("file").Parse(fileTemplate))

// FileName is the name of the file generated for def, placed next to its
// input file.
func FileName(def *meta.ClassDefinition) string {
	return common.ToSnakeCase(def.Name) + scanner.GeneratedSuffix
}

// Generate renders def. source is the input file the digest is computed
// over. The output only depends on its arguments.
func Generate(def *meta.ClassDefinition, source []byte, version string) ([]byte, error) {
	e := newEmitter(def)
	decls := e.decls()

	data := struct {
		Header  string
		Digest  string
		Package string
		Imports []importEntry
		Decls   []string
	}{
		Header:  common.GeneratedHeader,
		Digest:  common.DigestLine(common.Digest(source, version)),
		Package: def.Package,
		Imports: e.sortedImports(),
		Decls:   decls,
	}

	var buf strings.Builder
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := imports.Process(FileName(def), []byte(buf.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated source for %s: %w", def.Name, err)
	}
	return out, nil
}

type importEntry struct {
	Path  string
	Alias string
}

// sortedImports lists the runtime and every package a rendered type refers
// to, resolved through the imports of the input file.
func (e *emitter) sortedImports() []importEntry {
	paths := map[string]string{runtimeName: common.RuntimePath}
	for _, q := range common.SortedKeys(e.quals) {
		if q == runtimeName {
			continue
		}
		path, ok := e.def.Imports[q]
		if !ok {
			continue
		}
		paths[q] = path
	}

	var entries []importEntry
	for name, path := range paths {
		entry := importEntry{Path: path}
		if importName(path) != name {
			entry.Alias = name
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Alias < entries[j].Alias
	})
	return entries
}

// importName guesses the package name of an import path. A wrong guess only
// costs a redundant alias.
func importName(path string) string {
	parts := strings.Split(path, "/")
	last := parts[len(parts)-1]
	if len(parts) > 1 && len(last) > 1 && last[0] == 'v' && strings.Trim(last[1:], "0123456789") == "" {
		last = parts[len(parts)-2]
	}
	last = strings.TrimPrefix(last, "go-")
	if i := strings.Index(last, "."); i >= 0 {
		last = last[:i]
	}
	return last
}
