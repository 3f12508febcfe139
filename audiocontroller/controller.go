// Package audiocontroller coordinates multiple player backends behind a single
// facade. It tracks which player is active, forwards commands to it, keeps the
// playback position fresh through extrapolation, and fans backend events out
// to subscribers.
package audiocontroller

import (
	"fmt"
	"sync"
	"time"

	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/hifiberry/audiocontrol3/util"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// AudioController is the coordination engine. All exported methods are safe
// for concurrent use; backend I/O never runs while the registry lock is held.
type AudioController struct {
	mu          sync.Mutex
	controllers map[string]player.Controller
	order       []string
	activeID    string
	autoPause   bool
	autoProg    float64
	closed      bool

	bus      *Bus
	progress *progressTracker

	progressStop chan struct{}
	progressDone chan struct{}
}

// New creates an engine configured from viper and starts its position worker.
func New() *AudioController {
	c := &AudioController{
		controllers:  make(map[string]player.Controller),
		autoPause:    viper.GetBool(key.ControllerAutoPause),
		autoProg:     viper.GetFloat64(key.ControllerAutoProgress),
		bus:          NewBus(),
		progress:     newProgressTracker(),
		progressStop: make(chan struct{}),
		progressDone: make(chan struct{}),
	}

	go c.progressLoop()
	return c
}

// Register adds a controller to the registry. The first registered controller
// becomes active immediately.
func (c *AudioController) Register(ctrl player.Controller) error {
	id := ctrl.ID()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, exists := c.controllers[id]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.controllers[id] = ctrl
	c.order = append(c.order, id)
	first := len(c.controllers) == 1
	if first {
		c.activeID = id
	}
	c.mu.Unlock()

	ctrl.AddListener(c)
	log.Infof("registered player %s (%s)", id, ctrl.Name())

	if first {
		c.announceActive(ctrl)
	}
	return nil
}

// Unregister removes a controller. Removing the active controller promotes
// the one that followed it in registration order, wrapping around to the
// first; the registry may end up with no active controller only when empty.
func (c *AudioController) Unregister(id string) error {
	c.mu.Lock()
	ctrl, ok := c.controllers[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(c.controllers, id)
	idx := 0
	for i, have := range c.order {
		if have == id {
			idx = i
			break
		}
	}
	c.order = append(c.order[:idx], c.order[idx+1:]...)

	var promoted player.Controller
	wasActive := c.activeID == id
	if wasActive {
		c.activeID = ""
		if len(c.order) > 0 {
			c.activeID = c.order[idx%len(c.order)]
			promoted = c.controllers[c.activeID]
		}
	}
	c.mu.Unlock()

	ctrl.RemoveListener(c)
	log.Infof("unregistered player %s", id)

	if wasActive {
		c.progress.invalidate()
	}
	if promoted != nil {
		log.Infof("active player failed over to %s", promoted.ID())
		c.announceActive(promoted)
	}
	return nil
}

// SetActiveController makes the given controller the command target. With
// auto-pause enabled, every other playing controller is paused best-effort.
func (c *AudioController) SetActiveController(id string) error {
	c.mu.Lock()
	ctrl, ok := c.controllers[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if c.activeID == id {
		c.mu.Unlock()
		return nil
	}
	c.activeID = id
	autoPause := c.autoPause
	others := c.othersLocked(id)
	c.mu.Unlock()

	log.Infof("active player set to %s", id)
	c.progress.invalidate()

	if autoPause {
		for _, other := range others {
			if other.IsActive() {
				if err := other.Pause(); err != nil {
					log.Warnf("auto-pause of %s failed: %v", other.ID(), err)
				}
			}
		}
	}

	c.announceActive(ctrl)
	return nil
}

// AutoSelectActiveController picks the best active candidate: the first
// playing controller in registration order, else the first connected one.
// With no candidate the current selection stays untouched and
// ErrNoSuitableController is reported; an empty registry reports
// ErrNoActiveController.
func (c *AudioController) AutoSelectActiveController() error {
	c.mu.Lock()
	ordered := make([]player.Controller, 0, len(c.order))
	for _, id := range c.order {
		ordered = append(ordered, c.controllers[id])
	}
	c.mu.Unlock()

	if len(ordered) == 0 {
		return ErrNoActiveController
	}

	for _, ctrl := range ordered {
		if ctrl.IsActive() {
			return c.SetActiveController(ctrl.ID())
		}
	}
	for _, ctrl := range ordered {
		if ctrl.IsConnected() {
			return c.SetActiveController(ctrl.ID())
		}
	}

	log.Warnf("auto-select found no suitable player")
	return ErrNoSuitableController
}

// othersLocked returns every controller except the given id. Callers hold mu.
func (c *AudioController) othersLocked(exceptID string) []player.Controller {
	others := make([]player.Controller, 0, len(c.order))
	for _, id := range c.order {
		if id != exceptID {
			others = append(others, c.controllers[id])
		}
	}
	return others
}

// announceActive publishes a state snapshot of the newly active controller
// and re-anchors the position tracker from it.
func (c *AudioController) announceActive(ctrl player.Controller) {
	info := ctrl.PlayerInfo()
	info.Active = true

	if info.State == metadata.StatePlaying && info.Position != nil {
		c.progress.anchor(*info.Position, c.activeDuration(ctrl))
	}

	c.bus.Publish(player.Event{
		Kind:     player.EventPlayerStateChange,
		PlayerID: ctrl.ID(),
		Player:   info,
	})
}

// activeOrNil returns the active controller without error reporting.
func (c *AudioController) activeOrNil() player.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID == "" {
		return nil
	}
	return c.controllers[c.activeID]
}

// active returns the active controller or ErrNoActiveController.
func (c *AudioController) active() (player.Controller, error) {
	ctrl := c.activeOrNil()
	if ctrl == nil {
		return nil, ErrNoActiveController
	}
	return ctrl, nil
}

// forward runs a command against the active controller, wrapping failures.
func (c *AudioController) forward(op string, cmd func(player.Controller) error) error {
	ctrl, err := c.active()
	if err != nil {
		return err
	}
	if err := cmd(ctrl); err != nil {
		return &BackendError{PlayerID: ctrl.ID(), Op: op, Err: err}
	}
	return nil
}

// Play starts or resumes playback on the active player.
func (c *AudioController) Play() error {
	return c.forward("play", func(ctrl player.Controller) error {
		if err := ctrl.Play(); err != nil {
			return err
		}
		if pos, ok := ctrl.Position().Get(); ok {
			c.progress.anchor(pos, c.activeDuration(ctrl))
		}
		return nil
	})
}

// Pause suspends playback on the active player.
func (c *AudioController) Pause() error {
	return c.forward("pause", func(ctrl player.Controller) error {
		if err := ctrl.Pause(); err != nil {
			return err
		}
		c.progress.suspend()
		return nil
	})
}

// PlayPause toggles between playing and paused on the active player.
func (c *AudioController) PlayPause() error {
	ctrl, err := c.active()
	if err != nil {
		return err
	}
	if ctrl.IsActive() {
		return c.Pause()
	}
	return c.Play()
}

// Stop halts playback on the active player.
func (c *AudioController) Stop() error {
	return c.forward("stop", func(ctrl player.Controller) error {
		if err := ctrl.Stop(); err != nil {
			return err
		}
		c.progress.invalidate()
		return nil
	})
}

// Next skips to the next track on the active player.
func (c *AudioController) Next() error {
	return c.forward("next", player.Controller.Next)
}

// Previous skips to the previous track on the active player.
func (c *AudioController) Previous() error {
	return c.forward("previous", player.Controller.Previous)
}

// SetVolume sets the active player's volume, clamped to 0-100.
func (c *AudioController) SetVolume(volume int) error {
	volume = util.Clamp(volume, 0, 100)
	return c.forward("set volume", func(ctrl player.Controller) error {
		return ctrl.SetVolume(volume)
	})
}

// Mute mutes or unmutes the active player.
func (c *AudioController) Mute(mute bool) error {
	return c.forward("mute", func(ctrl player.Controller) error {
		return ctrl.Mute(mute)
	})
}

// Seek moves the active player to an absolute position in seconds. Negative
// positions are treated as the track start.
func (c *AudioController) Seek(position float64) error {
	if position < 0 {
		position = 0
	}
	return c.forward("seek", func(ctrl player.Controller) error {
		if err := ctrl.Seek(position); err != nil {
			return err
		}
		if ctrl.IsActive() {
			c.progress.anchor(position, c.activeDuration(ctrl))
		}
		return nil
	})
}

// SetShuffle toggles shuffle mode on the active player.
func (c *AudioController) SetShuffle(enabled bool) error {
	return c.forward("set shuffle", func(ctrl player.Controller) error {
		return ctrl.SetShuffle(enabled)
	})
}

// SetLoopMode sets the repetition mode on the active player.
func (c *AudioController) SetLoopMode(mode metadata.LoopMode) error {
	return c.forward("set loop mode", func(ctrl player.Controller) error {
		return ctrl.SetLoopMode(mode)
	})
}

// Volume returns the active player's volume, if reported.
func (c *AudioController) Volume() mo.Option[int] {
	if ctrl := c.activeOrNil(); ctrl != nil {
		return ctrl.Volume()
	}
	return mo.None[int]()
}

// IsMuted returns the active player's mute state, if reported.
func (c *AudioController) IsMuted() mo.Option[bool] {
	if ctrl := c.activeOrNil(); ctrl != nil {
		return ctrl.IsMuted()
	}
	return mo.None[bool]()
}

// Shuffle returns the active player's shuffle mode, if reported.
func (c *AudioController) Shuffle() mo.Option[bool] {
	if ctrl := c.activeOrNil(); ctrl != nil {
		return ctrl.Shuffle()
	}
	return mo.None[bool]()
}

// LoopMode returns the active player's repetition mode, if reported.
func (c *AudioController) LoopMode() mo.Option[metadata.LoopMode] {
	if ctrl := c.activeOrNil(); ctrl != nil {
		return ctrl.LoopMode()
	}
	return mo.None[metadata.LoopMode]()
}

// Position returns the extrapolated position of the active player, falling
// back to a live backend query when the tracker has no anchor yet.
func (c *AudioController) Position() mo.Option[float64] {
	ctrl := c.activeOrNil()
	if ctrl == nil {
		return mo.None[float64]()
	}
	if pos, ok := c.progress.current(); ok {
		return mo.Some(pos)
	}
	return ctrl.Position()
}

// CurrentSong returns the active player's current song, or nil.
func (c *AudioController) CurrentSong() *metadata.Song {
	if ctrl := c.activeOrNil(); ctrl != nil {
		return ctrl.CurrentSong()
	}
	return nil
}

// ActivePlayerInfo returns a snapshot of the active player, or nil.
func (c *AudioController) ActivePlayerInfo() *metadata.Player {
	ctrl := c.activeOrNil()
	if ctrl == nil {
		return nil
	}
	info := ctrl.PlayerInfo()
	info.Active = true
	return info
}

// AllPlayerInfo returns snapshots of every registered player in registration
// order, with the active one flagged.
func (c *AudioController) AllPlayerInfo() []*metadata.Player {
	c.mu.Lock()
	ordered := make([]player.Controller, 0, len(c.order))
	activeID := c.activeID
	for _, id := range c.order {
		ordered = append(ordered, c.controllers[id])
	}
	c.mu.Unlock()

	infos := make([]*metadata.Player, 0, len(ordered))
	for _, ctrl := range ordered {
		info := ctrl.PlayerInfo()
		info.Active = ctrl.ID() == activeID
		infos = append(infos, info)
	}
	return infos
}

// ActiveID returns the id of the active player, empty when none.
func (c *AudioController) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Get looks a registered controller up by id.
func (c *AudioController) Get(id string) (player.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, ok := c.controllers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ctrl, nil
}

// IDs returns the registered player ids in registration order.
func (c *AudioController) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Subscribe registers an event callback on the engine bus.
func (c *AudioController) Subscribe(kind player.EventKind, fn Callback) {
	c.bus.Subscribe(kind, fn)
}

// Unsubscribe removes an event callback from the engine bus.
func (c *AudioController) Unsubscribe(kind player.EventKind, fn Callback) {
	c.bus.Unsubscribe(kind, fn)
}

// SetAutoPause toggles pausing of other players on active switches.
func (c *AudioController) SetAutoPause(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoPause = enabled
}

// AutoPause reports whether auto-pause is enabled.
func (c *AudioController) AutoPause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoPause
}

// SetAutoProgress sets the synthesized position event interval in seconds.
// Zero or negative disables emission.
func (c *AudioController) SetAutoProgress(interval float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoProg = interval
}

// AutoProgress returns the synthesized position event interval in seconds.
func (c *AudioController) AutoProgress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoProg
}

// OnControllerEvent receives backend events, maintains the active selection
// and the position tracker, and republishes every event on the engine bus.
func (c *AudioController) OnControllerEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventPlayerStateChange:
		c.handleStateChange(ev)
	case player.EventPositionChange:
		if ev.PlayerID == c.ActiveID() {
			if pos, ok := ev.Position.Get(); ok {
				if ctrl := c.activeOrNil(); ctrl != nil && ctrl.IsActive() {
					c.progress.anchor(pos, c.activeDuration(ctrl))
				}
			}
		}
	case player.EventSongChange:
		if ev.PlayerID == c.ActiveID() {
			c.progress.invalidate()
		}
	}

	c.bus.Publish(ev)
}

// handleStateChange promotes a backend that started playing on its own and
// keeps the position tracker aligned with the active backend's state.
func (c *AudioController) handleStateChange(ev player.Event) {
	if ev.Player == nil {
		return
	}

	activeID := c.ActiveID()

	if ev.Player.State == metadata.StatePlaying && ev.PlayerID != activeID {
		if err := c.SetActiveController(ev.PlayerID); err != nil {
			log.Warnf("promotion of %s failed: %v", ev.PlayerID, err)
		}
		activeID = c.ActiveID()
	}

	if ev.PlayerID != activeID {
		return
	}

	switch ev.Player.State {
	case metadata.StatePlaying:
		if ev.Player.Position != nil {
			c.progress.anchor(*ev.Player.Position, 0)
		}
	case metadata.StatePaused:
		c.progress.suspend()
	case metadata.StateStopped, metadata.StateKilled:
		c.progress.invalidate()
	}
}

// Close stops the position worker and closes every registered backend.
func (c *AudioController) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ordered := make([]player.Controller, 0, len(c.order))
	for _, id := range c.order {
		ordered = append(ordered, c.controllers[id])
	}
	c.controllers = make(map[string]player.Controller)
	c.order = nil
	c.activeID = ""
	c.mu.Unlock()

	close(c.progressStop)
	select {
	case <-c.progressDone:
	case <-time.After(time.Second):
		log.Warnf("position worker did not stop in time")
	}

	for _, ctrl := range ordered {
		ctrl.RemoveListener(c)
		if err := ctrl.Close(); err != nil {
			log.Warnf("closing player %s: %v", ctrl.ID(), err)
		}
	}
	return nil
}
