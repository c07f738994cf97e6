// Package element registers //gobject:element types with a plugin factory so
// pipeline hosts can instantiate them by name.
//
//	//gobject:element
//	//element:factory name=test-src, rank=primary, klass="Source/Video"
package element

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/hooks"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

const prefix = "element"

// Ranks names the usual factory ranks.
var Ranks = map[string]int{
	"none":      0,
	"marginal":  64,
	"secondary": 128,
	"primary":   256,
}

// metadataKeys are the factory options copied into Factory.Metadata.
var metadataKeys = []string{"long_name", "klass", "description", "author"}

var factorySchema = attr.Schema{
	Context: "element factory",
	Options: []attr.Option{
		{Name: "name", Kind: attr.String},
		{Name: "rank", Kind: attr.String},
		{Name: "long_name", Kind: attr.String},
		{Name: "klass", Kind: attr.String},
		{Name: "description", Kind: attr.String},
		{Name: "author", Kind: attr.String},
	},
}

type hook struct{}

func init() { hooks.Register(hook{}) }

func (hook) Name() string { return "element" }

func (hook) Apply(h *meta.Handle) {
	ds := h.Directives(prefix)
	if h.BaseKind() != meta.Element {
		for _, d := range ds {
			h.Errorf(d.Range, "Element metadata on non-element",
				"%s is a %s; //element:%s needs //gobject:element.", h.Name(), h.BaseKind(), d.Role)
		}
		return
	}

	name := common.ToKebabCase(h.Name())
	rank := 0
	metadata := make(map[string]string)
	for i, d := range ds {
		if d.Role != "factory" {
			h.Errorf(d.Range, "Unknown element directive", "//element:%s is unknown; expected //element:factory.", d.Role)
			continue
		}
		if i > 0 {
			h.Errorf(d.Range, "Duplicate element factory", "%s already declares its factory.", h.Name())
			continue
		}
		v := attr.Parse(d.Args, factorySchema, h.Diagnostics())
		if n := v.String("name"); n != "" {
			name = n
		}
		if r := v.Get("rank"); r != nil {
			var err error
			if rank, err = parseRank(r.Str); err != nil {
				h.Errorf(r.Range, "Invalid rank", "%v", err)
			}
		}
		for _, key := range metadataKeys {
			if s := v.String(key); s != "" {
				metadata[key] = s
			}
		}
	}

	var md string
	if len(metadata) > 0 {
		var entries []string
		for _, key := range common.SortedKeys(metadata) {
			entries = append(entries, fmt.Sprintf("%q: %q", key, metadata[key]))
		}
		md = fmt.Sprintf(", Metadata: map[string]string{%s}", strings.Join(entries, ", "))
	}
	stmt := fmt.Sprintf("if err := gobject.RegisterFactory(&gobject.Factory{Name: %q, Rank: %d, Type: %s%s}); err != nil {\npanic(err)\n}",
		name, rank, h.TypeVar(), md)
	if err := h.AppendStatement(meta.PhasePackageInit, stmt); err != nil {
		h.Errorf(h.Range(), "Cannot register factory", "%v", err)
	}
}

// parseRank accepts a rank name or a non-negative number.
func parseRank(s string) (int, error) {
	if r, ok := Ranks[strings.ToLower(s)]; ok {
		return r, nil
	}
	r, err := strconv.Atoi(s)
	if err != nil || r < 0 {
		return 0, fmt.Errorf("rank %q is neither a number nor one of none, marginal, secondary, primary", s)
	}
	return r, nil
}
