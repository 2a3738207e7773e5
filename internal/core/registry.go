package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]LayoutDefinition)
	registryMu sync.RWMutex
)

// Register adds a layout to the registry.
// Panics if a layout with the same key is already registered or if any of
// its schemas fails validation.
func Register(def LayoutDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("layout already registered: %s", def.Info.Key))
	}
	if len(def.Sheets) == 0 {
		panic(fmt.Sprintf("layout %s has no sheets", def.Info.Key))
	}

	names := make([]string, len(def.Sheets))
	for i, s := range def.Sheets {
		if err := s.Binder.Validate(); err != nil {
			panic(fmt.Sprintf("layout %s: %v", def.Info.Key, err))
		}
		names[i] = s.Binder.Name()
	}
	def.Info.Sheets = names

	registry[def.Info.Key] = def
}

// Get returns a layout by key.
// Returns false if not found.
func Get(key string) (LayoutDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered layouts.
// Sorted by group then by key for consistent ordering.
func All() []LayoutDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]LayoutDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Clear removes all registered layouts.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]LayoutDefinition)
}
