package player

import (
	"sync"

	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/samber/mo"
)

// EventKind discriminates the notifications a backend can push upward.
type EventKind string

const (
	EventPlayerStateChange EventKind = "player_state_change"
	EventSongChange        EventKind = "song_change"
	EventVolumeChange      EventKind = "volume_change"
	EventPositionChange    EventKind = "position_change"
	EventCapabilityChange  EventKind = "capability_change"
)

// Kinds returns every known event kind, in a stable order.
func Kinds() []EventKind {
	return []EventKind{
		EventPlayerStateChange,
		EventSongChange,
		EventVolumeChange,
		EventPositionChange,
		EventCapabilityChange,
	}
}

// Event is a single notification raised by a backend. Only the fields relevant
// to its Kind are populated.
type Event struct {
	Kind     EventKind
	PlayerID string

	Player       *metadata.Player       // EventPlayerStateChange
	Song         *metadata.Song         // EventSongChange, nil means nothing playing
	Volume       int                    // EventVolumeChange
	Position     mo.Option[float64]     // EventPositionChange
	Capabilities []metadata.Capability  // EventCapabilityChange
}

// Listener receives backend events. Implementations must not assume which
// goroutine delivers them; for a given backend, events arrive in the order the
// backend raised them.
type Listener interface {
	OnControllerEvent(Event)
}

// Emitter provides listener registration and panic-isolated event dispatch.
// Controller implementations embed it and call the Emit helpers from their own
// event goroutine to preserve per-backend ordering.
type Emitter struct {
	playerID string

	mu        sync.Mutex
	listeners []Listener
}

// NewEmitter creates an Emitter dispatching events attributed to playerID.
func NewEmitter(playerID string) Emitter {
	return Emitter{playerID: playerID}
}

// AddListener subscribes a listener. Adding the same listener twice is a no-op.
func (e *Emitter) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, have := range e.listeners {
		if have == l {
			return
		}
	}
	e.listeners = append(e.listeners, l)
}

// RemoveListener unsubscribes a previously added listener.
func (e *Emitter) RemoveListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, have := range e.listeners {
		if have == l {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Emit delivers an event to every listener. A panicking listener is logged and
// does not prevent the remaining listeners from running.
func (e *Emitter) Emit(ev Event) {
	ev.PlayerID = e.playerID

	e.mu.Lock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("listener panic on %s event from %s: %v", ev.Kind, ev.PlayerID, r)
				}
			}()
			l.OnControllerEvent(ev)
		}()
	}
}

// EmitState notifies listeners about a player state change.
func (e *Emitter) EmitState(p *metadata.Player) {
	e.Emit(Event{Kind: EventPlayerStateChange, Player: p})
}

// EmitSong notifies listeners about a song change; nil means nothing playing.
func (e *Emitter) EmitSong(s *metadata.Song) {
	e.Emit(Event{Kind: EventSongChange, Song: s})
}

// EmitVolume notifies listeners about a volume change.
func (e *Emitter) EmitVolume(volume int) {
	e.Emit(Event{Kind: EventVolumeChange, Volume: volume})
}

// EmitPosition notifies listeners about a position change.
func (e *Emitter) EmitPosition(position mo.Option[float64]) {
	e.Emit(Event{Kind: EventPositionChange, Position: position})
}

// EmitCapabilities notifies listeners about a capability change.
func (e *Emitter) EmitCapabilities(capabilities []metadata.Capability) {
	e.Emit(Event{Kind: EventCapabilityChange, Capabilities: capabilities})
}
