package audiocontroller

import (
	"sync"
	"time"

	"github.com/hifiberry/audiocontrol3/player"
	"github.com/samber/mo"
)

const (
	progressMinSleep  = 100 * time.Millisecond
	progressMaxSleep  = 500 * time.Millisecond
	progressIdleSleep = 500 * time.Millisecond
)

// progressTracker extrapolates the playback position of the active player
// between backend reports. A backend position report anchors the base; while
// playback is confirmed, the current position is the base plus wall-clock
// elapsed time, clamped to the track duration. Clamping at the duration drops
// the confirmation so extrapolation stops until the backend reports again.
type progressTracker struct {
	mu       sync.Mutex
	base     float64
	baseAt   time.Time
	playing  bool
	duration float64
	lastEmit time.Time
}

func newProgressTracker() *progressTracker {
	return &progressTracker{}
}

// anchor records a backend-reported position and confirms playback.
func (t *progressTracker) anchor(position, duration float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.base = position
	t.baseAt = time.Now()
	t.playing = true
	if duration > 0 {
		t.duration = duration
	}
}

// suspend freezes extrapolation at the current value, keeping it queryable.
func (t *progressTracker) suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.playing {
		t.base = t.currentLocked()
		t.baseAt = time.Now()
		t.playing = false
	}
}

// invalidate discards all state, typically on an active player switch.
func (t *progressTracker) invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.base = 0
	t.baseAt = time.Time{}
	t.playing = false
	t.duration = 0
	t.lastEmit = time.Time{}
}

func (t *progressTracker) currentLocked() float64 {
	pos := t.base
	if t.playing {
		pos += time.Since(t.baseAt).Seconds()
	}
	if t.duration > 0 && pos >= t.duration {
		pos = t.duration
		t.playing = false
	}
	return pos
}

// current returns the extrapolated position, or false when no backend report
// has anchored the tracker yet.
func (t *progressTracker) current() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.baseAt.IsZero() {
		return 0, false
	}
	return t.currentLocked(), true
}

// confirmed reports whether playback is currently being extrapolated.
func (t *progressTracker) confirmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// due returns the extrapolated position when at least interval has elapsed
// since the last emission. Emissions only happen while playback is confirmed.
func (t *progressTracker) due(interval time.Duration) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.baseAt.IsZero() || !t.playing {
		return 0, false
	}
	if time.Since(t.lastEmit) < interval {
		return 0, false
	}
	t.lastEmit = time.Now()
	return t.currentLocked(), true
}

// progressLoop synthesizes periodic position events for the active player.
// The sleep cadence tracks half the configured interval so emissions stay
// close to schedule without busy-polling; the confirmation flag keeps backend
// I/O down to the occasional re-anchor probe.
func (c *AudioController) progressLoop() {
	defer close(c.progressDone)

	for {
		interval := c.AutoProgress()

		sleep := progressIdleSleep
		if interval > 0 {
			sleep = time.Duration(interval / 2 * float64(time.Second))
			if sleep < progressMinSleep {
				sleep = progressMinSleep
			}
			if sleep > progressMaxSleep {
				sleep = progressMaxSleep
			}
		}

		select {
		case <-c.progressStop:
			return
		case <-time.After(sleep):
		}

		if interval <= 0 {
			continue
		}

		ctrl := c.activeOrNil()
		if ctrl == nil {
			continue
		}

		if !c.progress.confirmed() {
			// One probe per cycle until the backend confirms playback.
			if ctrl.IsActive() {
				if pos, ok := ctrl.Position().Get(); ok {
					c.progress.anchor(pos, c.activeDuration(ctrl))
				}
			}
			continue
		}

		if pos, ok := c.progress.due(time.Duration(interval * float64(time.Second))); ok {
			c.bus.Publish(player.Event{
				Kind:     player.EventPositionChange,
				PlayerID: ctrl.ID(),
				Position: mo.Some(pos),
			})
		}
	}
}

// activeDuration looks up the running track's duration for clamping.
func (c *AudioController) activeDuration(ctrl player.Controller) float64 {
	if song := ctrl.CurrentSong(); song != nil {
		return song.Duration
	}
	return 0
}
