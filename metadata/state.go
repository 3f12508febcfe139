// Package metadata defines the shared domain models for players, songs, and playback state.
package metadata

// PlayerState enumerates the possible states a player backend can be in.
type PlayerState string

const (
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
	StateStopped PlayerState = "stopped"
	StateKilled  PlayerState = "killed"
	StateUnknown PlayerState = "unknown"
)

func (s PlayerState) String() string {
	return string(s)
}

// Valid reports whether the state is part of the known vocabulary.
func (s PlayerState) Valid() bool {
	switch s {
	case StatePlaying, StatePaused, StateStopped, StateKilled, StateUnknown:
		return true
	}
	return false
}

// LoopMode enumerates the playback repetition modes.
type LoopMode string

const (
	LoopNone     LoopMode = "none"
	LoopTrack    LoopMode = "track"
	LoopPlaylist LoopMode = "playlist"
)

func (m LoopMode) String() string {
	return string(m)
}

// ParseLoopMode maps a string onto a LoopMode, defaulting to LoopNone.
func ParseLoopMode(s string) LoopMode {
	switch LoopMode(s) {
	case LoopTrack:
		return LoopTrack
	case LoopPlaylist:
		return LoopPlaylist
	default:
		return LoopNone
	}
}
