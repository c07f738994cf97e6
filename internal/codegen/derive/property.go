package derive

import (
	"math/big"
	"regexp"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/Alia5/gobjgen/internal/codegen/attr"
	"github.com/Alia5/gobjgen/internal/codegen/common"
	"github.com/Alia5/gobjgen/internal/codegen/diag"
	"github.com/Alia5/gobjgen/internal/codegen/meta"
	"github.com/Alia5/gobjgen/internal/codegen/scanner"
)

// PropertySchema lists the options of a property tag.
var PropertySchema = attr.Schema{
	Context: "property",
	Options: []attr.Option{
		{Name: "get", Kind: attr.Flag},
		{Name: "set", Kind: attr.Flag},
		{Name: "construct_only", Kind: attr.Flag},
		{Name: "explicit_notify", Kind: attr.Flag},
		{Name: "lax_validation", Kind: attr.Flag},
		{Name: "abstract", Kind: attr.Flag},
		{Name: "override_class", Kind: attr.TypePath},
		{Name: "override_iface", Kind: attr.TypePath},
		{Name: "minimum", Kind: attr.Number},
		{Name: "maximum", Kind: attr.Number},
		{Name: "default", Kind: attr.Literal},
		{Name: "name", Kind: attr.String},
		{Name: "nick", Kind: attr.String},
		{Name: "blurb", Kind: attr.String},
	},
}

var propertyNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Properties derives one PropertyDefinition per tagged field, in declaration
// order. For pod types untagged named fields become get,set properties.
func Properties(ctx *Context, fields []*scanner.Field, diags *diag.List) ([]*meta.Field, []*meta.PropertyDefinition) {
	var out []*meta.Field
	var props []*meta.PropertyDefinition
	seen := make(map[string]*meta.PropertyDefinition)
	for _, f := range fields {
		mf := &meta.Field{Name: f.Name, Type: f.Type, Tags: f.Tags, Range: f.Range}
		out = append(out, mf)

		tag, tagged := fieldTag(f, diags)
		var values *attr.Values
		switch {
		case tagged && f.Embedded:
			diags.Errorf(diag.DisallowedCombination, tag.Range, "Embedded property",
				"Embedded field %s cannot be a property.", f.Name)
			continue
		case tagged:
			values = attr.Parse(tag.Args, PropertySchema, diags)
		case ctx.Pod && !f.Embedded && f.Name != "_":
			values = nil
		default:
			continue
		}

		p := deriveProperty(ctx, f, values, diags)
		p.Index = len(props)
		if prev, dup := seen[p.Name]; dup {
			diags.Errorf(diag.DuplicateName, p.Range, "Duplicate property",
				"Property %q is already declared by field %s.", p.Name, prev.Field)
			continue
		}
		seen[p.Name] = p
		mf.Property = p
		props = append(props, p)
	}
	return out, props
}

func deriveProperty(ctx *Context, f *scanner.Field, v *attr.Values, diags *diag.List) *meta.PropertyDefinition {
	mode, valueType, wrapped := ctx.storageOf(f.TypeExpr, f.Type)
	p := &meta.PropertyDefinition{
		Field:     f.Name,
		Name:      common.ToKebabCase(f.Name),
		ValueType: valueType,
		Storage:   mode,
		Range:     f.Range,
	}
	if v == nil {
		// untagged pod field
		p.Get, p.Set = true, true
		if !wrapped {
			p.Storage = meta.StoragePlain
		}
		return p
	}

	if !wrapped && !ctx.Pod {
		diags.Errorf(diag.TypeShapeMismatch, f.Range, "Unsupported property storage",
			"Field %s has type %s; properties use gobject.Cell, Synced, OnceCell, Computed, WeakRef or Ref storage.",
			f.Name, f.Type)
	}

	p.Get = v.On("get")
	p.Set = v.On("set")
	p.ConstructOnly = v.On("construct_only")
	p.ExplicitNotify = v.On("explicit_notify")
	p.LaxValidation = v.On("lax_validation")
	p.Abstract = v.On("abstract")
	p.Nick = v.String("nick")
	p.Blurb = v.String("blurb")
	if paths := v.Paths("override_class"); len(paths) > 0 {
		p.OverrideClass = &paths[0]
	}
	if paths := v.Paths("override_iface"); len(paths) > 0 {
		p.OverrideIface = &paths[0]
	}
	if name := v.Get("name"); name != nil {
		if propertyNamePattern.MatchString(name.Str) {
			p.Name = name.Str
		} else {
			diags.Errorf(diag.MalformedAttribute, name.Range, "Invalid property name",
				"%q is not a valid property name; use lower-case words separated by dashes.", name.Str)
		}
	}

	if !p.Get && !p.Set {
		diags.Errorf(diag.DisallowedCombination, f.Range, "Property without access",
			"Property %q needs get, set, or both.", p.Name)
	}

	diag.OnlyOneOf(diags,
		v.Flag("construct_only"), v.Flag("abstract"), v.Flag("override_class"), v.Flag("override_iface"))
	diag.Requires(diags, v.Flag("construct_only"), v.Flag("set"))

	switch p.Storage {
	case meta.StorageConstructOnly:
		if p.Set && !p.ConstructOnly {
			diags.Errorf(diag.DisallowedCombination, f.Range, "Settable OnceCell property",
				"Property %q uses OnceCell storage and can only be set during construction; add construct_only.", p.Name)
		}
	case meta.StorageWeak:
		diag.Disallow(diags, "on weak reference properties", v.Flag("set"), v.Flag("default"))
	case meta.StorageComputed:
		diag.Disallow(diags, "on computed properties", v.Flag("default"))
	}
	if p.ConstructOnly && p.Storage != meta.StorageConstructOnly {
		diags.Errorf(diag.TypeShapeMismatch, f.Range, "construct_only needs OnceCell storage",
			"Property %q is construct_only but field %s has type %s.", p.Name, f.Name, f.Type)
	}
	if p.Abstract && p.Storage != meta.StorageComputed {
		diags.Errorf(diag.TypeShapeMismatch, f.Range, "abstract needs Computed storage",
			"Abstract property %q has no storage; declare field %s as gobject.Computed[%s].", p.Name, f.Name, p.ValueType)
	}

	bounds(p, v, diags)
	defaultValue(p, v, diags)
	return p
}

func bounds(p *meta.PropertyDefinition, v *attr.Values, diags *diag.List) {
	if !common.IsNumeric(p.ValueType) {
		diag.Disallow(diags, "on non-numeric properties", v.Flag("minimum"), v.Flag("maximum"))
		return
	}
	p.Minimum = numberFor(p, v.Get("minimum"), diags)
	p.Maximum = numberFor(p, v.Get("maximum"), diags)
	if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
		diags.Errorf(diag.DisallowedCombination, v.Get("minimum").Range, "Empty range",
			"Property %q has minimum %v greater than maximum %v.", p.Name, *p.Minimum, *p.Maximum)
	}
}

// numberFor range-checks a bound against the property's Go type.
func numberFor(p *meta.PropertyDefinition, val *attr.Value, diags *diag.List) *float64 {
	if val == nil {
		return nil
	}
	if !fitsGoType(val.Val, p.ValueType, val.Range, diags) {
		return nil
	}
	f, _ := val.Val.AsBigFloat().Float64()
	return &f
}

func fitsGoType(v cty.Value, goType string, rng hcl.Range, diags *diag.List) bool {
	var err error
	switch goType {
	case "int":
		var x int
		err = gocty.FromCtyValue(v, &x)
	case "int8":
		var x int8
		err = gocty.FromCtyValue(v, &x)
	case "int16":
		var x int16
		err = gocty.FromCtyValue(v, &x)
	case "int32", "rune":
		var x int32
		err = gocty.FromCtyValue(v, &x)
	case "int64":
		var x int64
		err = gocty.FromCtyValue(v, &x)
	case "uint", "uintptr":
		var x uint
		err = gocty.FromCtyValue(v, &x)
	case "uint8", "byte":
		var x uint8
		err = gocty.FromCtyValue(v, &x)
	case "uint16":
		var x uint16
		err = gocty.FromCtyValue(v, &x)
	case "uint32":
		var x uint32
		err = gocty.FromCtyValue(v, &x)
	case "uint64":
		var x uint64
		err = gocty.FromCtyValue(v, &x)
	case "float32":
		var x float32
		err = gocty.FromCtyValue(v, &x)
	case "float64":
		var x float64
		err = gocty.FromCtyValue(v, &x)
	case "string":
		var x string
		err = gocty.FromCtyValue(v, &x)
	case "bool":
		var x bool
		err = gocty.FromCtyValue(v, &x)
	default:
		diags.Errorf(diag.TypeShapeMismatch, rng, "Unsupported literal",
			"A literal cannot be checked against type %s.", goType)
		return false
	}
	if err != nil {
		diags.Errorf(diag.TypeShapeMismatch, rng, "Value does not fit",
			"%s: %s", goType, err)
		return false
	}
	return true
}

func defaultValue(p *meta.PropertyDefinition, v *attr.Values, diags *diag.List) {
	val := v.Get("default")
	if val == nil || p.Storage == meta.StorageWeak || p.Storage == meta.StorageComputed {
		return
	}
	if !fitsGoType(val.Val, p.ValueType, val.Range, diags) {
		return
	}
	switch val.Val.Type() {
	case cty.String:
		p.Default = strconv.Quote(val.Val.AsString())
	case cty.Bool:
		p.Default = strconv.FormatBool(val.Val.True())
	case cty.Number:
		bf := val.Val.AsBigFloat()
		p.Default = bf.Text('f', -1)
		if p.LaxValidation {
			return
		}
		if outside(bf, p.Minimum, p.Maximum) {
			diags.Errorf(diag.DisallowedCombination, val.Range, "Default out of range",
				"Default %s of property %q lies outside its bounds.", p.Default, p.Name)
		}
	}
}

func outside(bf *big.Float, min, max *float64) bool {
	f, _ := bf.Float64()
	return min != nil && f < *min || max != nil && f > *max
}
