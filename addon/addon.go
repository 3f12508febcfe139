// Package addon hosts optional features that extend the coordination engine
// at runtime. Addons are loaded from an explicit factory catalog and toggled
// through an idempotent enable/disable lifecycle.
package addon

import (
	"fmt"
	"sync"

	"github.com/hifiberry/audiocontrol3/log"
)

// Addon is an optional engine extension with a toggleable lifecycle.
type Addon interface {
	// Name returns the catalog name the addon is registered under.
	Name() string

	// Description returns a short human-readable summary.
	Description() string

	// Version returns the addon version string.
	Version() string

	// Enabled reports whether the addon is currently active.
	Enabled() bool

	// Enable activates the addon. Enabling an enabled addon is a no-op.
	Enable() error

	// Disable deactivates the addon. Disabling a disabled addon is a no-op.
	Disable() error

	// Config returns the addon's current configuration values.
	Config() map[string]any

	// SetConfig validates and applies configuration values.
	SetConfig(map[string]any) error
}

// Base carries addon identity and the enable/disable state machine. Concrete
// addons embed it and attach their activation logic through the hooks; a hook
// failure or panic leaves the previous state in place.
type Base struct {
	name        string
	description string
	version     string

	enableHook  func() error
	disableHook func() error

	mu      sync.Mutex
	enabled bool
}

// NewBase initializes the shared addon state.
func NewBase(name, description, version string, enableHook, disableHook func() error) Base {
	return Base{
		name:        name,
		description: description,
		version:     version,
		enableHook:  enableHook,
		disableHook: disableHook,
	}
}

func (b *Base) Name() string        { return b.name }
func (b *Base) Description() string { return b.description }
func (b *Base) Version() string     { return b.version }

func (b *Base) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Base) Enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enabled {
		return nil
	}
	if err := b.runHook(b.enableHook, "enable"); err != nil {
		return err
	}
	b.enabled = true
	log.Infof("addon %s enabled", b.name)
	return nil
}

func (b *Base) Disable() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		return nil
	}
	if err := b.runHook(b.disableHook, "disable"); err != nil {
		return err
	}
	b.enabled = false
	log.Infof("addon %s disabled", b.name)
	return nil
}

// Config returns no values; addons with configuration override it.
func (b *Base) Config() map[string]any { return map[string]any{} }

// SetConfig rejects all values; addons with configuration override it.
func (b *Base) SetConfig(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return fmt.Errorf("addon %s accepts no configuration", b.name)
}

// runHook invokes a lifecycle hook with panic containment.
func (b *Base) runHook(hook func() error, op string) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("addon %s %s panicked: %v", b.name, op, r)
		}
	}()
	if hookErr := hook(); hookErr != nil {
		return fmt.Errorf("addon %s %s: %w", b.name, op, hookErr)
	}
	return nil
}
