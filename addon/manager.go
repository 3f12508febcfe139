package addon

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/log"
)

// ErrNotFound reports an addon name with no loaded instance behind it.
var ErrNotFound = errors.New("addon not loaded")

// Factory builds an addon instance bound to the coordination engine.
type Factory func(engine *audiocontroller.AudioController) (Addon, error)

var (
	catalogMu sync.RWMutex
	catalog   = make(map[string]Factory)
)

// RegisterFactory adds an addon to the catalog. Addons register themselves
// under their name at startup; duplicates are a programming error.
func RegisterFactory(name string, f Factory) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := catalog[name]; exists {
		panic("duplicate addon factory: " + name)
	}
	catalog[name] = f
}

// Catalog lists every registered addon name in sorted order.
func Catalog() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manager owns the loaded addon instances for one engine.
type Manager struct {
	engine *audiocontroller.AudioController

	mu     sync.Mutex
	loaded map[string]Addon
	order  []string
}

// NewManager creates an addon manager bound to the given engine.
func NewManager(engine *audiocontroller.AudioController) *Manager {
	return &Manager{
		engine: engine,
		loaded: make(map[string]Addon),
	}
}

// Load instantiates a cataloged addon without enabling it. Loading an
// already-loaded addon returns the existing instance.
func (m *Manager) Load(name string) (Addon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(name)
}

func (m *Manager) loadLocked(name string) (Addon, error) {
	if a, ok := m.loaded[name]; ok {
		return a, nil
	}

	catalogMu.RLock()
	factory, ok := catalog[name]
	catalogMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown addon %q", name)
	}

	a, err := factory(m.engine)
	if err != nil {
		return nil, fmt.Errorf("load addon %s: %w", name, err)
	}

	m.loaded[name] = a
	m.order = append(m.order, name)
	log.Infof("loaded addon %s", name)
	return a, nil
}

// LoadAll loads every cataloged addon, keeping them disabled.
func (m *Manager) LoadAll() error {
	for _, name := range Catalog() {
		if _, err := m.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// Enable loads the addon if needed and activates it.
func (m *Manager) Enable(name string) error {
	m.mu.Lock()
	a, err := m.loadLocked(name)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return a.Enable()
}

// Disable deactivates a loaded addon. A loaded addon that was never enabled
// disables successfully without its hook running.
func (m *Manager) Disable(name string) error {
	m.mu.Lock()
	a, ok := m.loaded[name]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.Disable()
}

// Get returns a loaded addon by name.
func (m *Manager) Get(name string) (Addon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.loaded[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, nil
}

// Loaded returns the loaded addons in load order.
func (m *Manager) Loaded() []Addon {
	m.mu.Lock()
	defer m.mu.Unlock()

	addons := make([]Addon, 0, len(m.order))
	for _, name := range m.order {
		addons = append(addons, m.loaded[name])
	}
	return addons
}

// EnabledAddons returns the names of all currently enabled addons.
func (m *Manager) EnabledAddons() []string {
	names := make([]string, 0)
	for _, a := range m.Loaded() {
		if a.Enabled() {
			names = append(names, a.Name())
		}
	}
	return names
}

// DisableAll disables every loaded addon, logging failures.
func (m *Manager) DisableAll() {
	for _, a := range m.Loaded() {
		if err := a.Disable(); err != nil {
			log.Warnf("disabling addon %s: %v", a.Name(), err)
		}
	}
}
