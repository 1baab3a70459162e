package refinery

import (
	"fmt"
	"sort"
	"sync"
)

// RefineryFactory is a function type that creates a refinery instance
type RefineryFactory func(config map[string]interface{}) BaseRefinery

// Registry manages all available refinery implementations
type Registry struct {
	mu         sync.RWMutex
	refineries map[string]RefineryFactory
	aliases    map[string]string
}

var globalRegistry = &Registry{
	refineries: make(map[string]RefineryFactory),
	aliases:    make(map[string]string),
}

// Register adds a refinery to the registry with optional aliases
func Register(version string, factory RefineryFactory, aliases ...string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.refineries[version] = factory

	for _, alias := range aliases {
		globalRegistry.aliases[alias] = version
	}
}

// Get retrieves a refinery factory by version or alias
func Get(identifier string) (RefineryFactory, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	if version, exists := globalRegistry.aliases[identifier]; exists {
		identifier = version
	}

	factory, exists := globalRegistry.refineries[identifier]
	if !exists {
		return nil, fmt.Errorf("unknown refinery %q, available: %v", identifier, ListAvailable())
	}

	return factory, nil
}

// Create creates a new refinery instance
func Create(identifier string, config map[string]interface{}) (BaseRefinery, error) {
	factory, err := Get(identifier)
	if err != nil {
		return nil, err
	}

	return factory(config), nil
}

// ListAvailable returns the registered versions, sorted
func ListAvailable() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	versions := make([]string, 0, len(globalRegistry.refineries))
	for version := range globalRegistry.refineries {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}

func init() {
	Register("v1", func(config map[string]interface{}) BaseRefinery {
		return NewRefineryV1Complaint(config)
	}, "complaint", "standard")
}