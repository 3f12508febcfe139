package metadata

import "encoding/json"

// Player is an immutable point-in-time snapshot of a player backend.
// Snapshots are produced fresh on every query and never mutated in place.
type Player struct {
	Name         string       `json:"name"`
	PlayerID     string       `json:"player_id,omitempty"`
	Type         string       `json:"type,omitempty"` // backend type tag, e.g. "mpd"
	State        PlayerState  `json:"state"`
	Volume       *int         `json:"volume,omitempty"` // 0-100, nil when not reported
	Muted        *bool        `json:"muted,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
	Active       bool         `json:"active"`
	Position     *float64     `json:"position,omitempty"` // seconds
}

// Supports reports whether the snapshot advertises the given capability.
func (p *Player) Supports(c Capability) bool {
	return p != nil && HasCapability(p.Capabilities, c)
}

// ToJSON serializes the player snapshot, omitting absent fields.
func (p *Player) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clone returns a deep copy of the snapshot.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	copied := *p
	if p.Volume != nil {
		v := *p.Volume
		copied.Volume = &v
	}
	if p.Muted != nil {
		m := *p.Muted
		copied.Muted = &m
	}
	if p.Position != nil {
		pos := *p.Position
		copied.Position = &pos
	}
	if p.Capabilities != nil {
		copied.Capabilities = append([]Capability(nil), p.Capabilities...)
	}
	return &copied
}

// Int returns a pointer to v, a convenience for optional snapshot fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
