// Package registry links in the bundled extension hooks. Import it for its
// side effects.
package registry

import (
	_ "github.com/Alia5/gobjgen/internal/codegen/hooks/element"  // Register element factory hook
	_ "github.com/Alia5/gobjgen/internal/codegen/hooks/template" // Register template binding hook
)
