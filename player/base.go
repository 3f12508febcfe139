package player

import (
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/samber/mo"
)

// Base supplies identity, event dispatch, and conservative defaults for
// Controller implementations. Backends embed it and override the operations
// they actually support; everything else fails with ErrUnsupported, matching
// the capability-based contract.
type Base struct {
	Emitter

	id   string
	name string
}

// NewBase initializes the common backend state.
func NewBase(id, name string) Base {
	return Base{Emitter: NewEmitter(id), id: id, name: name}
}

func (b *Base) ID() string   { return b.id }
func (b *Base) Name() string { return b.name }

// PlayerInfo returns a minimal stopped snapshot; backends override this.
func (b *Base) PlayerInfo() *metadata.Player {
	return &metadata.Player{
		Name:     b.name,
		PlayerID: b.id,
		Type:     "generic",
		State:    metadata.StateStopped,
	}
}

func (b *Base) CurrentSong() *metadata.Song { return nil }

func (b *Base) Play() error                          { return ErrUnsupported }
func (b *Base) Pause() error                         { return ErrUnsupported }
func (b *Base) Stop() error                          { return ErrUnsupported }
func (b *Base) Next() error                          { return ErrUnsupported }
func (b *Base) Previous() error                      { return ErrUnsupported }
func (b *Base) SetVolume(int) error                  { return ErrUnsupported }
func (b *Base) Volume() mo.Option[int]               { return mo.None[int]() }
func (b *Base) Mute(bool) error                      { return ErrUnsupported }
func (b *Base) IsMuted() mo.Option[bool]             { return mo.None[bool]() }
func (b *Base) Seek(float64) error                   { return ErrUnsupported }
func (b *Base) Position() mo.Option[float64]         { return mo.None[float64]() }
func (b *Base) SetShuffle(bool) error                { return ErrUnsupported }
func (b *Base) Shuffle() mo.Option[bool]             { return mo.None[bool]() }
func (b *Base) SetLoopMode(metadata.LoopMode) error  { return ErrUnsupported }
func (b *Base) LoopMode() mo.Option[metadata.LoopMode] {
	return mo.None[metadata.LoopMode]()
}

func (b *Base) IsConnected() bool { return false }

func (b *Base) IsActive() bool { return false }

func (b *Base) Close() error { return nil }
