package player

import (
	"testing"

	"github.com/hifiberry/audiocontrol3/metadata"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingListener struct {
	events []Event
}

func (r *recordingListener) OnControllerEvent(ev Event) {
	r.events = append(r.events, ev)
}

type panickyListener struct{}

func (panickyListener) OnControllerEvent(Event) { panic("boom") }

func TestFactory(t *testing.T) {
	Convey("Factory", t, func() {
		Convey("Registered types include the built-in backends", func() {
			types := Types()

			So(types, ShouldContain, "null")
			So(types, ShouldContain, "mpd")
			So(types, ShouldContain, "mpv")
		})

		Convey("Unknown type tags fail with an error", func() {
			ctrl, err := Create("does-not-exist", nil)

			So(err, ShouldNotBeNil)
			So(ctrl, ShouldBeNil)
		})

		Convey("Null factory honors id and name overrides", func() {
			ctrl, err := Create("null", map[string]any{
				"player_id": "fallback",
				"name":      "Fallback Player",
			})

			So(err, ShouldBeNil)
			So(ctrl.ID(), ShouldEqual, "fallback")
			So(ctrl.Name(), ShouldEqual, "Fallback Player")
		})

		Convey("Duplicate registration panics", func() {
			So(func() {
				RegisterFactory("null", func(map[string]any) (Controller, error) {
					return nil, nil
				})
			}, ShouldPanic)
		})
	})
}

func TestNull(t *testing.T) {
	Convey("Null controller", t, func() {
		n := NewNull("null", "Null Player")

		Convey("Reports a stopped snapshot with no capabilities", func() {
			info := n.PlayerInfo()

			So(info.PlayerID, ShouldEqual, "null")
			So(info.State, ShouldEqual, metadata.StateStopped)
			So(info.Capabilities, ShouldBeEmpty)
		})

		Convey("Commands fail gracefully", func() {
			So(n.Play(), ShouldEqual, ErrUnsupported)
			So(n.Seek(10), ShouldEqual, ErrUnsupported)
		})

		Convey("Queries report absent values", func() {
			So(n.Volume().IsAbsent(), ShouldBeTrue)
			So(n.Position().IsAbsent(), ShouldBeTrue)
			So(n.CurrentSong(), ShouldBeNil)
		})

		Convey("Is never connected nor active", func() {
			So(n.IsConnected(), ShouldBeFalse)
			So(n.IsActive(), ShouldBeFalse)
		})
	})
}

func TestEmitter(t *testing.T) {
	Convey("Emitter", t, func() {
		e := NewEmitter("deck")

		Convey("Stamps events with the backend id", func() {
			rec := &recordingListener{}
			e.AddListener(rec)

			e.EmitVolume(42)

			So(rec.events, ShouldHaveLength, 1)
			So(rec.events[0].PlayerID, ShouldEqual, "deck")
			So(rec.events[0].Kind, ShouldEqual, EventVolumeChange)
			So(rec.events[0].Volume, ShouldEqual, 42)
		})

		Convey("Adding the same listener twice delivers once", func() {
			rec := &recordingListener{}
			e.AddListener(rec)
			e.AddListener(rec)

			e.EmitState(&metadata.Player{PlayerID: "deck", State: metadata.StatePlaying})

			So(rec.events, ShouldHaveLength, 1)
		})

		Convey("Removed listeners no longer receive events", func() {
			rec := &recordingListener{}
			e.AddListener(rec)
			e.RemoveListener(rec)

			e.EmitSong(&metadata.Song{Title: "song"})

			So(rec.events, ShouldBeEmpty)
		})

		Convey("A panicking listener does not block the rest", func() {
			rec := &recordingListener{}
			e.AddListener(panickyListener{})
			e.AddListener(rec)

			So(func() { e.EmitVolume(10) }, ShouldNotPanic)
			So(rec.events, ShouldHaveLength, 1)
		})
	})
}
