package element

import (
	"fmt"
	"sort"
	"sync"

	"github.com/elementio/elementio/internal/errs"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Descriptor)
)

// Register adds d under d.Name to the global registry. Panics if the
// name is empty, New is nil, or the name is already taken — all
// conditions indicate a compile-time bug in the registering element,
// since registration happens from init() before any graph is built.
func Register(d Descriptor) {
	if d.Name == "" {
		panic("element: name cannot be empty")
	}
	if d.New == nil {
		panic(fmt.Sprintf("element: %q: New cannot be nil", d.Name))
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[d.Name]; exists {
		panic(fmt.Sprintf("element: %q already registered", d.Name))
	}
	registry[d.Name] = d
}

// Get returns the descriptor registered under name, or
// errs.ErrElementNotFound.
func Get(name string) (Descriptor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("element %q: %w", name, errs.ErrElementNotFound)
	}
	return d, nil
}

// ResetForTest discards every registration. It exists for tests in
// other packages (graph builder, plugin loader) that register throwaway
// elements and must not leak them into later tests; production code
// never calls it.
func ResetForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Descriptor)
}

// List returns every registered element name, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
