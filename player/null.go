package player

import (
	"github.com/hifiberry/audiocontrol3/metadata"
)

// Null is a no-op Controller used as a fallback when no real backend is
// available. All commands fail gracefully and all queries report defaults.
type Null struct {
	Base
}

func init() {
	RegisterFactory("null", func(configdata map[string]any) (Controller, error) {
		id := "null"
		name := "Null Player"
		if v, ok := configdata["player_id"].(string); ok && v != "" {
			id = v
		}
		if v, ok := configdata["name"].(string); ok && v != "" {
			name = v
		}
		return NewNull(id, name), nil
	})
}

// NewNull creates a null player controller.
func NewNull(id, name string) *Null {
	return &Null{Base: NewBase(id, name)}
}

func (n *Null) PlayerInfo() *metadata.Player {
	return &metadata.Player{
		Name:         n.Name(),
		PlayerID:     n.ID(),
		Type:         "null",
		State:        metadata.StateStopped,
		Volume:       metadata.Int(0),
		Muted:        metadata.Bool(false),
		Capabilities: []metadata.Capability{},
	}
}
