// Package player defines a unified abstraction layer for media playback backends.
// The architecture supports multiple backends (MPD, mpv, null) behind one
// capability-based control interface; backends push state changes upward
// through an asynchronous event mechanism.
package player

import (
	"errors"

	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/samber/mo"
)

// ErrUnsupported is returned by command methods the backend does not implement.
var ErrUnsupported = errors.New("operation not supported")

// Controller encapsulates the required capabilities of a player backend.
//
// Command methods return nil on success. Backends run their own I/O and retry
// logic internally; callers never block on backend internals beyond the
// synchronous command call itself.
type Controller interface {
	// ID returns the unique identifier of this player for the process lifetime.
	ID() string

	// Name returns the human-readable display name.
	Name() string

	// PlayerInfo produces a fresh point-in-time snapshot of the player.
	PlayerInfo() *metadata.Player

	// CurrentSong returns the currently playing song, or nil if nothing is playing.
	CurrentSong() *metadata.Song

	// Play starts or resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Stop halts playback.
	Stop() error

	// Next skips to the next track.
	Next() error

	// Previous skips to the previous track.
	Previous() error

	// SetVolume sets the playback volume (0-100).
	SetVolume(volume int) error

	// Volume returns the current volume level, if the backend reports one.
	Volume() mo.Option[int]

	// Mute mutes or unmutes the player.
	Mute(mute bool) error

	// IsMuted returns the mute state, if the backend reports one.
	IsMuted() mo.Option[bool]

	// Seek transitions playback to an absolute position in seconds.
	Seek(position float64) error

	// Position returns the current playback position in seconds, if available.
	Position() mo.Option[float64]

	// SetShuffle enables or disables shuffle mode.
	SetShuffle(enabled bool) error

	// Shuffle returns the current shuffle mode, if the backend reports one.
	Shuffle() mo.Option[bool]

	// SetLoopMode sets the playback repetition mode.
	SetLoopMode(mode metadata.LoopMode) error

	// LoopMode returns the current repetition mode, if the backend reports one.
	LoopMode() mo.Option[metadata.LoopMode]

	// IsConnected probes connectivity to the underlying player.
	IsConnected() bool

	// IsActive reports whether the player is currently playing.
	IsActive() bool

	// AddListener subscribes a listener to this backend's events.
	AddListener(Listener)

	// RemoveListener unsubscribes a previously added listener.
	RemoveListener(Listener)

	// Close terminates the backend connection and releases its resources.
	Close() error
}
