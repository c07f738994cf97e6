// Package hooks holds the extension hooks that post-process a built
// definition. Hooks register themselves from init functions and only touch
// the definition through a meta.Handle.
package hooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Alia5/gobjgen/internal/codegen/meta"
)

// Hook is a domain extension run after the core validated a definition.
type Hook interface {
	// Name identifies the hook, e.g. in --hooks and in diagnostics.
	Name() string
	// Apply inspects the definition behind h and appends statements or
	// diagnostics. It is called once per compilation unit.
	Apply(h *meta.Handle)
}

var (
	hookRegistry   = make(map[string]Hook)
	hookRegistryMu sync.RWMutex
)

// Register adds a hook. It should be called from init functions. Names are
// case-insensitive; registering a name twice panics.
func Register(h Hook) {
	hookRegistryMu.Lock()
	defer hookRegistryMu.Unlock()
	key := strings.ToLower(h.Name())
	if _, dup := hookRegistry[key]; dup {
		panic(fmt.Sprintf("hooks: %q registered twice", h.Name()))
	}
	hookRegistry[key] = h
}

// Lookup finds a registered hook by name.
func Lookup(name string) (Hook, bool) {
	hookRegistryMu.RLock()
	defer hookRegistryMu.RUnlock()
	h, ok := hookRegistry[strings.ToLower(name)]
	return h, ok
}

// Names returns the sorted names of all registered hooks.
func Names() []string {
	hookRegistryMu.RLock()
	defer hookRegistryMu.RUnlock()
	names := make([]string, 0, len(hookRegistry))
	for name := range hookRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up the named hooks, in order. An empty list selects every
// registered hook in name order.
func Resolve(names []string) ([]Hook, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]Hook, 0, len(names))
	for _, name := range names {
		h, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown hook %q (registered: %s)", name, strings.Join(Names(), ", "))
		}
		out = append(out, h)
	}
	return out, nil
}

// Run applies hooks to h in order.
func Run(hs []Hook, h *meta.Handle) {
	for _, hook := range hs {
		hook.Apply(h)
	}
}
