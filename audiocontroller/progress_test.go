package audiocontroller

import (
	"testing"
	"time"

	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProgressTracker(t *testing.T) {
	Convey("Given a position tracker", t, func() {
		tracker := newProgressTracker()

		Convey("It reports nothing before the first anchor", func() {
			_, ok := tracker.current()

			So(ok, ShouldBeFalse)
		})

		Convey("It extrapolates forward while playing", func() {
			tracker.anchor(10, 0)
			time.Sleep(50 * time.Millisecond)

			first, ok := tracker.current()
			So(ok, ShouldBeTrue)
			So(first, ShouldBeGreaterThanOrEqualTo, 10)

			time.Sleep(20 * time.Millisecond)
			second, _ := tracker.current()
			So(second, ShouldBeGreaterThanOrEqualTo, first)
		})

		Convey("Suspending freezes the position", func() {
			tracker.anchor(10, 0)
			tracker.suspend()

			frozen, _ := tracker.current()
			time.Sleep(30 * time.Millisecond)
			later, _ := tracker.current()

			So(later, ShouldEqual, frozen)
		})

		Convey("The position never runs past the track duration", func() {
			tracker.anchor(9.99, 10)
			time.Sleep(50 * time.Millisecond)

			pos, ok := tracker.current()
			So(ok, ShouldBeTrue)
			So(pos, ShouldEqual, 10)

			Convey("And hitting the end drops the playback confirmation", func() {
				So(tracker.confirmed(), ShouldBeFalse)
			})
		})

		Convey("Invalidate discards everything", func() {
			tracker.anchor(42, 100)
			tracker.invalidate()

			_, ok := tracker.current()
			So(ok, ShouldBeFalse)
			So(tracker.confirmed(), ShouldBeFalse)
		})

		Convey("Emissions are rate limited to the interval", func() {
			tracker.anchor(5, 0)

			_, first := tracker.due(time.Hour)
			_, second := tracker.due(time.Hour)

			So(first, ShouldBeTrue)
			So(second, ShouldBeFalse)
		})

		Convey("Nothing is emitted while suspended", func() {
			tracker.anchor(5, 0)
			tracker.suspend()

			_, ok := tracker.due(0)

			So(ok, ShouldBeFalse)
		})
	})
}

func TestProgressWorker(t *testing.T) {
	Convey("Given an engine with a playing player and a short emit interval", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		a.mu.Lock()
		a.state = metadata.StatePlaying
		a.position = 12
		a.mu.Unlock()

		events := make(chan player.Event, 32)
		engine.Subscribe(player.EventPositionChange, func(ev player.Event) {
			select {
			case events <- ev:
			default:
			}
		})

		So(engine.Register(a), ShouldBeNil)
		engine.SetAutoProgress(0.05)

		Convey("The worker emits synthesized position events on the bus", func() {
			ev, ok := awaitEvent(events, 2*time.Second)

			So(ok, ShouldBeTrue)
			So(ev.PlayerID, ShouldEqual, "a")

			pos, present := ev.Position.Get()
			So(present, ShouldBeTrue)
			So(pos, ShouldBeGreaterThanOrEqualTo, 12)
		})
	})

	Convey("Given an engine whose player starts playing without reporting it", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		So(engine.Register(a), ShouldBeNil)

		events := make(chan player.Event, 32)
		engine.Subscribe(player.EventPositionChange, func(ev player.Event) {
			select {
			case events <- ev:
			default:
			}
		})

		a.mu.Lock()
		a.state = metadata.StatePlaying
		a.position = 30
		a.mu.Unlock()
		engine.SetAutoProgress(0.05)

		Convey("The worker probes the backend and starts emitting", func() {
			ev, ok := awaitEvent(events, 2*time.Second)

			So(ok, ShouldBeTrue)
			So(ev.PlayerID, ShouldEqual, "a")

			pos, present := ev.Position.Get()
			So(present, ShouldBeTrue)
			So(pos, ShouldBeGreaterThanOrEqualTo, 30)
		})
	})

	Convey("Given an engine with a disabled emit interval", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		a.mu.Lock()
		a.state = metadata.StatePlaying
		a.position = 12
		a.mu.Unlock()

		events := make(chan player.Event, 32)
		engine.Subscribe(player.EventPositionChange, func(ev player.Event) {
			select {
			case events <- ev:
			default:
			}
		})

		So(engine.Register(a), ShouldBeNil)

		Convey("The worker stays silent", func() {
			_, ok := awaitEvent(events, 700*time.Millisecond)

			So(ok, ShouldBeFalse)
		})
	})
}

func awaitEvent(events <-chan player.Event, timeout time.Duration) (player.Event, bool) {
	select {
	case ev := <-events:
		return ev, true
	case <-time.After(timeout):
		return player.Event{}, false
	}
}
