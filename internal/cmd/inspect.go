package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/compiler"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

type Inspect struct {
	Pipeline `embed:""`
	Format   string `help:"Output format" enum:"json,yaml,toml" default:"json" env:"GOBJGEN_INSPECT_FORMAT"`
}

// Run prints the resolved model of every unit. Units with diagnostics are
// printed as far as they were resolved, and the diagnostics are reported.
func (i *Inspect) Run(logger *slog.Logger) error {
	res, _, err := i.compile(logger, false)
	if err != nil {
		return err
	}
	if err := writeModel(os.Stdout, res, i.Format); err != nil {
		return err
	}
	return i.report(os.Stderr, res)
}

type modelDoc struct {
	Types []typeView `json:"types" yaml:"types" toml:"types"`
}

type typeView struct {
	Name         string              `json:"name" yaml:"name" toml:"name"`
	TypeName     string              `json:"typeName" yaml:"typeName" toml:"typeName"`
	Kind         string              `json:"kind" yaml:"kind" toml:"kind"`
	Struct       string              `json:"struct" yaml:"struct" toml:"struct"`
	File         string              `json:"file" yaml:"file" toml:"file"`
	Parent       string              `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	Extends      []string            `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty"`
	Implements   []string            `json:"implements,omitempty" yaml:"implements,omitempty" toml:"implements,omitempty"`
	Final        bool                `json:"final" yaml:"final" toml:"final"`
	Abstract     bool                `json:"abstract" yaml:"abstract" toml:"abstract"`
	Pod          bool                `json:"pod" yaml:"pod" toml:"pod"`
	Concurrent   bool                `json:"concurrent" yaml:"concurrent" toml:"concurrent"`
	Wrapper      bool                `json:"wrapper" yaml:"wrapper" toml:"wrapper"`
	ExtTrait     string              `json:"extTrait,omitempty" yaml:"extTrait,omitempty" toml:"extTrait,omitempty"`
	Properties   []propertyView      `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
	Signals      []signalView        `json:"signals,omitempty" yaml:"signals,omitempty" toml:"signals,omitempty"`
	Virtuals     []virtualView       `json:"virtuals,omitempty" yaml:"virtuals,omitempty" toml:"virtuals,omitempty"`
	Constructors []constructorView   `json:"constructors,omitempty" yaml:"constructors,omitempty" toml:"constructors,omitempty"`
	Lifecycle    map[string]string   `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty" toml:"lifecycle,omitempty"`
	Statements   map[string][]string `json:"statements,omitempty" yaml:"statements,omitempty" toml:"statements,omitempty"`
	Diagnostics  int                 `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

type propertyView struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Field    string   `json:"field" yaml:"field" toml:"field"`
	Type     string   `json:"type" yaml:"type" toml:"type"`
	Storage  string   `json:"storage" yaml:"storage" toml:"storage"`
	Flags    []string `json:"flags,omitempty" yaml:"flags,omitempty" toml:"flags,omitempty"`
	Minimum  string   `json:"minimum,omitempty" yaml:"minimum,omitempty" toml:"minimum,omitempty"`
	Maximum  string   `json:"maximum,omitempty" yaml:"maximum,omitempty" toml:"maximum,omitempty"`
	Default  string   `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Override string   `json:"override,omitempty" yaml:"override,omitempty" toml:"override,omitempty"`
}

type signalView struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Method      string   `json:"method" yaml:"method" toml:"method"`
	Params      []string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Return      string   `json:"return,omitempty" yaml:"return,omitempty" toml:"return,omitempty"`
	Timing      string   `json:"timing" yaml:"timing" toml:"timing"`
	Flags       []string `json:"flags,omitempty" yaml:"flags,omitempty" toml:"flags,omitempty"`
	Accumulator string   `json:"accumulator,omitempty" yaml:"accumulator,omitempty" toml:"accumulator,omitempty"`
}

type virtualView struct {
	Method   string   `json:"method" yaml:"method" toml:"method"`
	Params   []string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Results  []string `json:"results,omitempty" yaml:"results,omitempty" toml:"results,omitempty"`
	Override string   `json:"override,omitempty" yaml:"override,omitempty" toml:"override,omitempty"`
}

type constructorView struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Method   string   `json:"method" yaml:"method" toml:"method"`
	Params   []string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Fallible bool     `json:"fallible" yaml:"fallible" toml:"fallible"`
}

func writeModel(w io.Writer, res *compiler.Result, format string) error {
	doc := modelDoc{Types: []typeView{}}
	for _, u := range res.Units {
		if u.Definition != nil {
			v := viewOf(u.Definition)
			v.Diagnostics = u.Diagnostics.Len()
			doc.Types = append(doc.Types, v)
		}
	}

	var data []byte
	var err error
	switch normalizeFormat(format) {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(doc)
	case "toml":
		data, err = toml.Marshal(doc)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func viewOf(def *meta.ClassDefinition) typeView {
	v := typeView{
		Name:       def.Name,
		TypeName:   def.TypeName,
		Kind:       def.BaseKind.String(),
		Struct:     def.Struct,
		File:       def.File,
		Extends:    paths(def.Extends),
		Implements: paths(def.Implements),
		Final:      def.Final,
		Abstract:   def.Abstract,
		Pod:        def.Pod,
		Concurrent: def.Concurrent,
		Wrapper:    def.Wrapper,
		ExtTrait:   def.ExtTrait,
	}
	if def.Parent != nil {
		v.Parent = def.Parent.String()
	}
	for _, p := range def.Properties {
		v.Properties = append(v.Properties, propertyViewOf(p))
	}
	for _, s := range def.Signals {
		sv := signalView{
			Name:        s.Name,
			Method:      s.Method,
			Params:      params(s.Params),
			Return:      s.Return,
			Timing:      s.Timing.String(),
			Accumulator: s.Accumulator,
			Flags:       flags(map[string]bool{"detailed": s.Detailed, "action": s.Action, "override": s.Override}),
		}
		v.Signals = append(v.Signals, sv)
	}
	for _, m := range def.Virtuals {
		vv := virtualView{Method: m.Method, Params: params(m.Params), Results: m.Results}
		switch {
		case m.OverrideIface != nil:
			vv.Override = m.OverrideIface.String()
		case m.Override:
			vv.Override = "parent"
		}
		v.Virtuals = append(v.Virtuals, vv)
	}
	for _, c := range def.Constructors {
		v.Constructors = append(v.Constructors, constructorView{
			Name: c.Name, Method: c.Method, Params: params(c.Params), Fallible: c.Fallible,
		})
	}

	lc := map[string]string{"init": def.Lifecycle.Init, "constructed": def.Lifecycle.Constructed, "dispose": def.Lifecycle.Dispose}
	for k, m := range lc {
		if m == "" {
			delete(lc, k)
		}
	}
	if len(lc) > 0 {
		v.Lifecycle = lc
	}
	if len(def.Statements) > 0 {
		v.Statements = make(map[string][]string, len(def.Statements))
		for phase, stmts := range def.Statements {
			v.Statements[string(phase)] = stmts
		}
	}
	return v
}

func propertyViewOf(p *meta.PropertyDefinition) propertyView {
	pv := propertyView{
		Name:    p.Name,
		Field:   p.Field,
		Type:    p.ValueType,
		Storage: p.Storage.String(),
		Default: p.Default,
		Flags: flags(map[string]bool{
			"get": p.Get, "set": p.Set, "construct_only": p.ConstructOnly, "explicit_notify": p.ExplicitNotify,
			"lax_validation": p.LaxValidation, "abstract": p.Abstract,
		}),
	}
	if p.Minimum != nil {
		pv.Minimum = strconv.FormatFloat(*p.Minimum, 'g', -1, 64)
	}
	if p.Maximum != nil {
		pv.Maximum = strconv.FormatFloat(*p.Maximum, 'g', -1, 64)
	}
	switch {
	case p.OverrideClass != nil:
		pv.Override = p.OverrideClass.String()
	case p.OverrideIface != nil:
		pv.Override = p.OverrideIface.String()
	}
	return pv
}

func paths(ps []attr.Path) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.String())
	}
	return out
}

func params(ps []meta.Param) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name+" "+p.Type)
	}
	return out
}

// flags lists the set names in sorted order.
func flags(set map[string]bool) []string {
	var out []string
	for _, name := range common.SortedKeys(set) {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}
