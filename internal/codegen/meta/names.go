package meta

import "github.com/Alia5/gobjgen/internal/codegen/common"

// TypeVar is the package variable holding the registered type of name.
func TypeVar(name string) string { return common.Unexported(name) + "Type" }

// TypeFunc is the exported accessor of the registered type of name.
func TypeFunc(name string) string { return name + "Type" }

// OfFunc converts an instance to the wrapper of name.
func OfFunc(name string) string { return common.Unexported(name) + "Of" }

// AsMethod is the upcast method every wrapper of name provides.
func AsMethod(name string) string { return "As" + name }
