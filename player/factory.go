package player

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hifiberry/audiocontrol3/log"
)

// Factory resolves a configuration map to a live Controller instance.
type Factory func(configdata map[string]any) (Controller, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory binds a backend type tag to its factory. Each backend
// implementation registers itself under its tag at startup; the explicit table
// replaces any form of runtime module scanning.
func RegisterFactory(typeTag string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, exists := factories[typeTag]; exists {
		panic("duplicate player factory: " + typeTag)
	}
	factories[typeTag] = f
}

// Create resolves a backend type tag plus configuration map to an instance.
// Unknown tags fail with a reported error, never a crash.
func Create(typeTag string, configdata map[string]any) (Controller, error) {
	factoriesMu.RLock()
	factory, ok := factories[typeTag]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown player type %q", typeTag)
	}

	log.Infof("creating player controller for %s", typeTag)
	ctrl, err := factory(configdata)
	if err != nil {
		return nil, fmt.Errorf("create %s controller: %w", typeTag, err)
	}
	return ctrl, nil
}

// Types lists all registered backend type tags in sorted order.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	tags := make([]string, 0, len(factories))
	for tag := range factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
