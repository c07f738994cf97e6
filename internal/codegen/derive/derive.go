// Package derive extracts properties, signals, virtual methods, constructors,
// accessors and lifecycle hooks from a scanned compilation unit. Every
// deriver reports problems to the shared diagnostic list and keeps going.
package derive

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/hashicorp/hcl/v2"

	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// Context is what the derivers know about the type being compiled.
type Context struct {
	// Struct is the implementation struct identifier.
	Struct string
	// Wrapper is the resolved type name; *Wrapper marks an explicit receiver.
	Wrapper string
	Kind    meta.BaseKind
	Pod     bool
	Imports map[string]string
}

// runtimeQualifier is the name under which the declaring file imports the
// runtime package.
func (c *Context) runtimeQualifier() string {
	for q, path := range c.Imports {
		if path == common.RuntimePath {
			return q
		}
	}
	return "gobject"
}

func (c *Context) receiverType() string { return "*" + c.Wrapper }

// storageOf classifies a field type. ok is false for shapes that are not
// runtime storage wrappers; valueType is then the plain field type.
func (c *Context) storageOf(expr ast.Expr, typ string) (mode meta.StorageMode, valueType string, ok bool) {
	idx, isIndex := expr.(*ast.IndexExpr)
	if !isIndex {
		return meta.StoragePlain, typ, false
	}
	sel, isSel := idx.X.(*ast.SelectorExpr)
	if !isSel {
		return meta.StoragePlain, typ, false
	}
	pkg, isIdent := sel.X.(*ast.Ident)
	if !isIdent || pkg.Name != c.runtimeQualifier() {
		return meta.StoragePlain, typ, false
	}
	mode, ok = storageShapes[sel.Sel.Name]
	if !ok {
		return meta.StoragePlain, typ, false
	}
	return mode, types.ExprString(idx.Index), true
}

var storageShapes = map[string]meta.StorageMode{
	"Cell":     meta.StorageOwned,
	"Synced":   meta.StorageSynced,
	"OnceCell": meta.StorageConstructOnly,
	"Computed": meta.StorageComputed,
	"WeakRef":  meta.StorageWeak,
	"Ref":      meta.StorageBorrowed,
}

// signature splits params into the explicit receiver flag and the remaining
// parameters. A receiver anywhere but first is reported.
func (c *Context) signature(params []scanner.Param, what string, rng hcl.Range, diags *diag.List) (bool, []meta.Param) {
	recv := false
	var out []meta.Param
	for i, p := range params {
		if p.Type == c.receiverType() {
			if i != 0 {
				diags.Errorf(diag.DisallowedCombination, rng, "Receiver must be first",
					"The %s parameter of type %s must come before all other parameters.", what, c.receiverType())
				continue
			}
			recv = true
			continue
		}
		if p.Ellipsis {
			diags.Errorf(diag.TypeShapeMismatch, rng, "Variadic parameter",
				"The %s cannot take variadic parameter %s.", what, paramName(p, i))
		}
		out = append(out, meta.Param{Name: paramName(p, i), Type: p.Type})
	}
	return recv, out
}

func paramName(p scanner.Param, i int) string {
	if p.Name == "" || p.Name == "_" {
		return fmt.Sprintf("arg%d", i)
	}
	return p.Name
}

func resultTypes(results []scanner.Param) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Type)
	}
	return out
}

func findProperty(props []*meta.PropertyDefinition, ref string) *meta.PropertyDefinition {
	return meta.LookupProperty(props, ref)
}
