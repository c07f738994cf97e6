package scanner

import (
	"fmt"
	"go/ast"
	"go/parser"
	goscanner "go/scanner"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
)

// TagKey is the struct tag key read for property options.
const TagKey = "gobject"

// GeneratedSuffix marks files written by the generator; they are never scanned.
const GeneratedSuffix = "_gobject.go"

// Directive is a //prefix:role comment line, e.g. //gobject:signal run_first.
type Directive struct {
	Prefix string
	Role   string
	Args   attr.Source
	Range  hcl.Range
}

// Is reports whether d is prefix:role.
func (d Directive) Is(prefix, role string) bool { return d.Prefix == prefix && d.Role == role }

// Param is a function parameter or result.
type Param struct {
	Name string
	Type string
	// Ellipsis marks a variadic final parameter; Type is then the element type.
	Ellipsis bool
}

// Field is a struct field of a tagged type.
type Field struct {
	Name       string
	Type       string
	TypeExpr   ast.Expr
	Embedded   bool
	Tags       reflect.StructTag
	Tag        attr.Source
	HasTag     bool
	Directives []Directive
	Range      hcl.Range
}

// Method is a method declared on some receiver in the package.
type Method struct {
	Name       string
	Receiver   string
	PtrRecv    bool
	Params     []Param
	Results    []Param
	Directives []Directive
	Range      hcl.Range
	NameRange  hcl.Range
}

// Collection groups the methods of one receiver declared in one file.
type Collection struct {
	Receiver string
	File     string
	Methods  []*Method
}

// Unit is one tagged struct and everything needed to compile it.
type Unit struct {
	Struct     string
	Package    string
	File       string
	Source     []byte
	Directives []Directive
	Fields     []*Field
	// Imports maps the qualifiers of the declaring file to import paths.
	Imports map[string]string
	Range   hcl.Range

	pkg *Package
}

// Collections returns the method collections of receiver across the package,
// ordered by file name.
func (u *Unit) Collections(receiver string) []*Collection {
	if u.pkg == nil {
		return nil
	}
	return u.pkg.collections[receiver]
}

// Package is the scan result of one directory or file set.
type Package struct {
	Name    string
	Dir     string
	Units   []*Unit
	Sources map[string][]byte

	collections map[string][]*Collection
}

var directivePattern = regexp.MustCompile(`^//([a-z][a-z0-9]*):([a-z_]+)\b`)

// ScanFiles parses the given Go files, which must belong to one package. Source
// errors are reported to diags; the files that parsed are still scanned.
func ScanFiles(paths []string, diags *diag.List) (*Package, error) {
	sources := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		sources[p] = data
	}
	return ScanSources(sources, diags), nil
}

// ScanDir scans every non-test, non-generated Go file in dir.
func ScanDir(dir string, diags *diag.List) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, GeneratedSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	pkg, err := ScanFiles(paths, diags)
	if err != nil {
		return nil, err
	}
	pkg.Dir = dir
	return pkg, nil
}

// ScanSources scans in-memory files keyed by file name.
func ScanSources(sources map[string][]byte, diags *diag.List) *Package {
	pkg := &Package{
		Sources:     sources,
		collections: make(map[string][]*Collection),
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	for _, name := range names {
		src := sources[name]
		file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			reportParseError(err, name, diags)
			if file == nil {
				continue
			}
		}
		if pkg.Dir == "" {
			pkg.Dir = filepath.Dir(name)
		}
		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if pkg.Name != file.Name.Name {
			diags.Errorf(diag.SourceError, diag.Range(fset, file.Name.Pos(), file.Name.End()), "Mixed packages",
				"%s declares package %s, expected %s.", name, file.Name.Name, pkg.Name)
			continue
		}
		s := &fileScanner{fset: fset, name: name, src: src, pkg: pkg}
		s.scan(file)
	}
	return pkg
}

func reportParseError(err error, name string, diags *diag.List) {
	list, ok := err.(goscanner.ErrorList)
	if !ok {
		diags.Add(diag.SourceError, hcl.Range{Filename: name}, "Invalid Go source", err.Error())
		return
	}
	for _, e := range list {
		pos := hcl.Pos{Line: e.Pos.Line, Column: e.Pos.Column, Byte: e.Pos.Offset}
		diags.Add(diag.SourceError, hcl.Range{Filename: name, Start: pos, End: pos}, "Invalid Go source", e.Msg)
	}
}

type fileScanner struct {
	fset    *token.FileSet
	name    string
	src     []byte
	pkg     *Package
	imports map[string]string
}

func (s *fileScanner) rng(from, to token.Pos) hcl.Range { return diag.Range(s.fset, from, to) }

func (s *fileScanner) scan(file *ast.File) {
	s.imports = make(map[string]string)
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := importName(path)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		s.imports[name] = path
	}

	byReceiver := make(map[string]*Collection)
	var order []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				s.scanTypes(d, file.Name.Name)
			}
		case *ast.FuncDecl:
			m := s.scanMethod(d)
			if m == nil {
				continue
			}
			c, ok := byReceiver[m.Receiver]
			if !ok {
				c = &Collection{Receiver: m.Receiver, File: s.name}
				byReceiver[m.Receiver] = c
				order = append(order, m.Receiver)
			}
			c.Methods = append(c.Methods, m)
		}
	}
	for _, recv := range order {
		s.pkg.collections[recv] = append(s.pkg.collections[recv], byReceiver[recv])
	}
}

func importName(path string) string {
	name := path[strings.LastIndex(path, "/")+1:]
	if len(name) > 1 && name[0] == 'v' {
		if _, err := strconv.Atoi(name[1:]); err == nil {
			trimmed := strings.TrimSuffix(path, "/"+name)
			return trimmed[strings.LastIndex(trimmed, "/")+1:]
		}
	}
	return name
}

func (s *fileScanner) scanTypes(d *ast.GenDecl, pkgName string) {
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			continue
		}
		doc := ts.Doc
		if doc == nil && len(d.Specs) == 1 {
			doc = d.Doc
		}
		directives := s.directives(doc)
		if !hasTypeDirective(directives) {
			continue
		}
		u := &Unit{
			Struct:     ts.Name.Name,
			Package:    pkgName,
			File:       s.name,
			Source:     s.src,
			Directives: directives,
			Imports:    s.imports,
			Range:      s.rng(ts.Name.Pos(), ts.Name.End()),
			pkg:        s.pkg,
		}
		for _, f := range st.Fields.List {
			u.Fields = append(u.Fields, s.scanField(f)...)
		}
		s.pkg.Units = append(s.pkg.Units, u)
	}
}

func hasTypeDirective(ds []Directive) bool {
	for _, d := range ds {
		if d.Prefix == TagKey && (d.Role == "class" || d.Role == "interface" || d.Role == "element") {
			return true
		}
	}
	return false
}

func (s *fileScanner) scanField(f *ast.Field) []*Field {
	typ := types.ExprString(f.Type)
	var tags reflect.StructTag
	var tagSrc attr.Source
	hasTag := false
	if f.Tag != nil {
		raw, err := strconv.Unquote(f.Tag.Value)
		if err == nil {
			tags = reflect.StructTag(raw)
			if v, ok := tags.Lookup(TagKey); ok {
				hasTag = true
				tagSrc = attr.Source{Text: v, Range: s.tagRange(f.Tag, v)}
			}
		}
	}
	directives := s.directives(f.Doc)

	if len(f.Names) == 0 {
		name := typ
		if i := strings.LastIndexAny(name, ".*"); i >= 0 {
			name = name[i+1:]
		}
		return []*Field{{
			Name: name, Type: typ, TypeExpr: f.Type, Embedded: true,
			Tags: tags, Tag: tagSrc, HasTag: hasTag, Directives: directives,
			Range: s.rng(f.Type.Pos(), f.Type.End()),
		}}
	}
	out := make([]*Field, 0, len(f.Names))
	for _, n := range f.Names {
		out = append(out, &Field{
			Name: n.Name, Type: typ, TypeExpr: f.Type,
			Tags: tags, Tag: tagSrc, HasTag: hasTag, Directives: directives,
			Range: s.rng(n.Pos(), n.End()),
		})
	}
	return out
}

// tagRange locates the gobject tag value inside the raw tag literal so that
// option ranges point at real source columns.
func (s *fileScanner) tagRange(lit *ast.BasicLit, value string) hcl.Range {
	start := s.fset.Position(lit.Pos())
	r := hcl.Range{
		Filename: start.Filename,
		Start:    hcl.Pos{Line: start.Line, Column: start.Column, Byte: start.Offset},
	}
	key := TagKey + `:"`
	if idx := strings.Index(lit.Value, key); idx >= 0 && strings.HasPrefix(lit.Value, "`") {
		off := idx + len(key)
		r.Start.Column += off
		r.Start.Byte += off
	}
	r.End = r.Start
	r.End.Column += len(value)
	r.End.Byte += len(value)
	return r
}

func (s *fileScanner) scanMethod(d *ast.FuncDecl) *Method {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return nil
	}
	recv, ptr := receiverName(d.Recv.List[0].Type)
	if recv == "" {
		return nil
	}
	m := &Method{
		Name:       d.Name.Name,
		Receiver:   recv,
		PtrRecv:    ptr,
		Params:     s.params(d.Type.Params),
		Results:    s.params(d.Type.Results),
		Directives: s.directives(d.Doc),
		Range:      s.rng(d.Pos(), d.Type.End()),
		NameRange:  s.rng(d.Name.Pos(), d.Name.End()),
	}
	return m
}

func receiverName(expr ast.Expr) (string, bool) {
	ptr := false
	if star, ok := expr.(*ast.StarExpr); ok {
		expr, ptr = star.X, true
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, ptr
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, ptr
		}
	}
	return "", false
}

func (s *fileScanner) params(fl *ast.FieldList) []Param {
	if fl == nil {
		return nil
	}
	var out []Param
	for _, f := range fl.List {
		typ := f.Type
		ellipsis := false
		if e, ok := typ.(*ast.Ellipsis); ok {
			typ, ellipsis = e.Elt, true
		}
		ts := types.ExprString(typ)
		if len(f.Names) == 0 {
			out = append(out, Param{Type: ts, Ellipsis: ellipsis})
			continue
		}
		for _, n := range f.Names {
			out = append(out, Param{Name: n.Name, Type: ts, Ellipsis: ellipsis})
		}
	}
	return out
}

func (s *fileScanner) directives(doc *ast.CommentGroup) []Directive {
	if doc == nil {
		return nil
	}
	var out []Directive
	for _, c := range doc.List {
		m := directivePattern.FindStringSubmatchIndex(c.Text)
		if m == nil {
			continue
		}
		pos := s.fset.Position(c.Pos())
		argOff := m[1]
		for argOff < len(c.Text) && (c.Text[argOff] == ' ' || c.Text[argOff] == '\t') {
			argOff++
		}
		args := strings.TrimRight(c.Text[argOff:], " \t")
		start := hcl.Pos{Line: pos.Line, Column: pos.Column, Byte: pos.Offset}
		argStart := hcl.Pos{Line: pos.Line, Column: pos.Column + argOff, Byte: pos.Offset + argOff}
		out = append(out, Directive{
			Prefix: c.Text[m[2]:m[3]],
			Role:   c.Text[m[4]:m[5]],
			Args: attr.Source{
				Text:  args,
				Range: hcl.Range{Filename: pos.Filename, Start: argStart, End: argStart},
			},
			Range: hcl.Range{
				Filename: pos.Filename,
				Start:    start,
				End:      hcl.Pos{Line: pos.Line, Column: pos.Column + len(c.Text), Byte: pos.Offset + len(c.Text)},
			},
		})
	}
	return out
}
