package gobject

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory makes a registered type available by name to plugin hosts.
type Factory struct {
	Name     string
	Rank     int
	Type     *Type
	Metadata map[string]string
}

var (
	factories   = make(map[string]*Factory)
	factoriesMu sync.RWMutex
)

// RegisterFactory adds a factory. Names are case-insensitive.
func RegisterFactory(f *Factory) error {
	if f == nil || f.Name == "" || f.Type == nil {
		return fmt.Errorf("gobject: factory needs a name and a type")
	}
	key := strings.ToLower(f.Name)
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[key]; exists {
		return fmt.Errorf("gobject: factory %q already registered", f.Name)
	}
	factories[key] = f
	return nil
}

// LookupFactory finds a factory by name.
func LookupFactory(name string) (*Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[strings.ToLower(name)]
	return f, ok
}

// Factories returns all factories ordered by descending rank, then name.
func Factories() []*Factory {
	factoriesMu.RLock()
	out := make([]*Factory, 0, len(factories))
	for _, f := range factories {
		out = append(out, f)
	}
	factoriesMu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out
}
