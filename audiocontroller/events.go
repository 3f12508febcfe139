package audiocontroller

import (
	"reflect"
	"sync"

	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/player"
)

// Callback receives events published on the bus.
type Callback func(player.Event)

type subscription struct {
	ptr uintptr
	fn  Callback
}

// Bus fans controller events out to subscribers by event kind. Subscriptions
// are deduplicated per (kind, callback) pair, callbacks run in subscription
// order, and a panicking callback never blocks the remaining ones.
type Bus struct {
	mu   sync.Mutex
	subs map[player.EventKind][]subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[player.EventKind][]subscription)}
}

// Subscribe registers a callback for one event kind. Subscribing the same
// callback to the same kind twice is a no-op; the same callback may subscribe
// to several kinds independently.
func (b *Bus) Subscribe(kind player.EventKind, fn Callback) {
	if fn == nil {
		return
	}
	ptr := reflect.ValueOf(fn).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[kind] {
		if sub.ptr == ptr {
			return
		}
	}
	b.subs[kind] = append(b.subs[kind], subscription{ptr: ptr, fn: fn})
}

// Unsubscribe removes a callback from one event kind. Unknown pairs are
// ignored.
func (b *Bus) Unsubscribe(kind player.EventKind, fn Callback) {
	if fn == nil {
		return
	}
	ptr := reflect.ValueOf(fn).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, sub := range subs {
		if sub.ptr == ptr {
			b.subs[kind] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every subscriber of its kind.
func (b *Bus) Publish(ev player.Event) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[ev.Kind]...)
	b.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("event subscriber panic on %s from %s: %v", ev.Kind, ev.PlayerID, r)
				}
			}()
			sub.fn(ev)
		}()
	}
}
