package audiocontroller

import (
	"errors"
	"sync"
	"testing"

	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	viper.Set(key.ControllerAutoPause, true)
	viper.Set(key.ControllerAutoProgress, 0.0)
}

// fakePlayer is an in-memory backend for engine tests.
type fakePlayer struct {
	player.Base

	mu         sync.Mutex
	state      metadata.PlayerState
	connected  bool
	volume     int
	position   float64
	song       *metadata.Song
	pauseCalls int
	failNext   error
}

func newFakePlayer(id string) *fakePlayer {
	return &fakePlayer{
		Base:      player.NewBase(id, id),
		state:     metadata.StateStopped,
		connected: true,
	}
}

func (f *fakePlayer) takeFailure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakePlayer) Play() error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = metadata.StatePlaying
	return nil
}

func (f *fakePlayer) Pause() error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = metadata.StatePaused
	f.pauseCalls++
	return nil
}

func (f *fakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = metadata.StateStopped
	return nil
}

func (f *fakePlayer) SetVolume(volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	return nil
}

func (f *fakePlayer) Seek(position float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = position
	return nil
}

func (f *fakePlayer) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == metadata.StatePlaying
}

func (f *fakePlayer) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePlayer) Position() mo.Option[float64] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return mo.Some(f.position)
}

func (f *fakePlayer) CurrentSong() *metadata.Song {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.song
}

func (f *fakePlayer) PlayerInfo() *metadata.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &metadata.Player{
		Name:     f.Name(),
		PlayerID: f.ID(),
		Type:     "fake",
		State:    f.state,
		Volume:   metadata.Int(f.volume),
		Position: metadata.Float(f.position),
	}
}

func (f *fakePlayer) pauseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauseCalls
}

func (f *fakePlayer) currentVolume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakePlayer) startPlaying() {
	f.mu.Lock()
	f.state = metadata.StatePlaying
	info := &metadata.Player{
		PlayerID: f.ID(),
		State:    metadata.StatePlaying,
		Position: metadata.Float(f.position),
	}
	f.mu.Unlock()
	f.EmitState(info)
}

func TestRegistry(t *testing.T) {
	Convey("Given an engine with registered players", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		b := newFakePlayer("b")
		c := newFakePlayer("c")
		So(engine.Register(a), ShouldBeNil)
		So(engine.Register(b), ShouldBeNil)
		So(engine.Register(c), ShouldBeNil)

		Convey("The first registered player is active", func() {
			So(engine.ActiveID(), ShouldEqual, "a")
		})

		Convey("Duplicate ids are rejected", func() {
			err := engine.Register(newFakePlayer("a"))

			So(errors.Is(err, ErrDuplicateID), ShouldBeTrue)
			So(engine.IDs(), ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Unregistering an unknown id fails", func() {
			err := engine.Unregister("ghost")

			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Unregistering the active player fails over in registration order", func() {
			So(engine.Unregister("a"), ShouldBeNil)

			So(engine.ActiveID(), ShouldEqual, "b")
			So(engine.IDs(), ShouldResemble, []string{"b", "c"})
		})

		Convey("Unregistering a non-active player keeps the selection", func() {
			So(engine.Unregister("c"), ShouldBeNil)

			So(engine.ActiveID(), ShouldEqual, "a")
		})

		Convey("A closed engine rejects new registrations", func() {
			So(engine.Close(), ShouldBeNil)

			err := engine.Register(newFakePlayer("late"))

			So(errors.Is(err, ErrClosed), ShouldBeTrue)
			So(engine.IDs(), ShouldBeEmpty)
		})

		Convey("Unregistering everything leaves no active player", func() {
			So(engine.Unregister("a"), ShouldBeNil)
			So(engine.Unregister("b"), ShouldBeNil)
			So(engine.Unregister("c"), ShouldBeNil)

			So(engine.ActiveID(), ShouldBeEmpty)
			So(errors.Is(engine.Play(), ErrNoActiveController), ShouldBeTrue)
		})
	})
}

func TestActiveSelection(t *testing.T) {
	Convey("Given an engine with three players", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		b := newFakePlayer("b")
		c := newFakePlayer("c")
		So(engine.Register(a), ShouldBeNil)
		So(engine.Register(b), ShouldBeNil)
		So(engine.Register(c), ShouldBeNil)

		Convey("SetActiveController switches the command target", func() {
			So(engine.SetActiveController("b"), ShouldBeNil)

			So(engine.ActiveID(), ShouldEqual, "b")
		})

		Convey("SetActiveController rejects unknown ids", func() {
			err := engine.SetActiveController("ghost")

			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(engine.ActiveID(), ShouldEqual, "a")
		})

		Convey("Activating a player pauses the others that are playing", func() {
			So(a.Play(), ShouldBeNil)
			So(c.Play(), ShouldBeNil)

			So(engine.SetActiveController("b"), ShouldBeNil)

			So(a.pauseCount(), ShouldEqual, 1)
			So(c.pauseCount(), ShouldEqual, 1)
		})

		Convey("Auto-select prefers a playing player over a connected one", func() {
			So(b.Play(), ShouldBeNil)

			So(engine.AutoSelectActiveController(), ShouldBeNil)

			So(engine.ActiveID(), ShouldEqual, "b")
		})

		Convey("Auto-select falls back to the first connected player", func() {
			a.mu.Lock()
			a.connected = false
			a.mu.Unlock()
			So(engine.SetActiveController("c"), ShouldBeNil)

			So(engine.AutoSelectActiveController(), ShouldBeNil)

			So(engine.ActiveID(), ShouldEqual, "b")
		})

		Convey("Auto-select fails when no player is playing or connected", func() {
			for _, f := range []*fakePlayer{a, b, c} {
				f.mu.Lock()
				f.connected = false
				f.mu.Unlock()
			}

			err := engine.AutoSelectActiveController()

			So(errors.Is(err, ErrNoSuitableController), ShouldBeTrue)
			So(engine.ActiveID(), ShouldEqual, "a")
		})

		Convey("A backend that starts playing on its own is promoted", func() {
			b.startPlaying()

			So(engine.ActiveID(), ShouldEqual, "b")
		})

		Convey("Promotion pauses the previously playing player", func() {
			So(a.Play(), ShouldBeNil)

			b.startPlaying()

			So(engine.ActiveID(), ShouldEqual, "b")
			So(a.pauseCount(), ShouldEqual, 1)
		})
	})
}

func TestCommandForwarding(t *testing.T) {
	Convey("Given an engine with one player", t, func() {
		engine := New()
		defer engine.Close()

		a := newFakePlayer("a")
		So(engine.Register(a), ShouldBeNil)

		Convey("Commands reach the active backend", func() {
			So(engine.Play(), ShouldBeNil)
			So(a.IsActive(), ShouldBeTrue)

			So(engine.Pause(), ShouldBeNil)
			So(a.IsActive(), ShouldBeFalse)
		})

		Convey("Volume is clamped to the valid range", func() {
			So(engine.SetVolume(150), ShouldBeNil)
			So(a.currentVolume(), ShouldEqual, 100)

			So(engine.SetVolume(-5), ShouldBeNil)
			So(a.currentVolume(), ShouldEqual, 0)
		})

		Convey("Negative seek positions mean the track start", func() {
			So(engine.Seek(-3), ShouldBeNil)

			a.mu.Lock()
			position := a.position
			a.mu.Unlock()
			So(position, ShouldEqual, 0)
		})

		Convey("Backend failures are wrapped with player context", func() {
			a.mu.Lock()
			a.failNext = errors.New("socket gone")
			a.mu.Unlock()

			err := engine.Play()

			var backendErr *BackendError
			So(errors.As(err, &backendErr), ShouldBeTrue)
			So(backendErr.PlayerID, ShouldEqual, "a")
			So(backendErr.Op, ShouldEqual, "play")
		})

		Convey("Unsupported operations surface the backend sentinel", func() {
			err := engine.Next()

			So(errors.Is(err, player.ErrUnsupported), ShouldBeTrue)
		})

		Convey("Queries report absent values when the backend has none", func() {
			So(engine.Volume().IsAbsent(), ShouldBeTrue)
			So(engine.LoopMode().IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Given an engine with no players", t, func() {
		engine := New()
		defer engine.Close()

		Convey("Every command reports no active player", func() {
			So(errors.Is(engine.Play(), ErrNoActiveController), ShouldBeTrue)
			So(errors.Is(engine.SetVolume(50), ErrNoActiveController), ShouldBeTrue)
			So(engine.Position().IsAbsent(), ShouldBeTrue)
			So(engine.CurrentSong(), ShouldBeNil)
			So(engine.ActivePlayerInfo(), ShouldBeNil)
		})
	})
}
