package audiocontroller

import (
	"testing"

	"github.com/hifiberry/audiocontrol3/player"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBus(t *testing.T) {
	Convey("Given an event bus", t, func() {
		bus := NewBus()

		Convey("Subscribers only see their event kind", func() {
			var volumes []int
			bus.Subscribe(player.EventVolumeChange, func(ev player.Event) {
				volumes = append(volumes, ev.Volume)
			})

			bus.Publish(player.Event{Kind: player.EventVolumeChange, Volume: 30})
			bus.Publish(player.Event{Kind: player.EventSongChange})

			So(volumes, ShouldResemble, []int{30})
		})

		Convey("The same callback subscribes to a kind only once", func() {
			count := 0
			cb := func(player.Event) { count++ }

			bus.Subscribe(player.EventSongChange, cb)
			bus.Subscribe(player.EventSongChange, cb)
			bus.Publish(player.Event{Kind: player.EventSongChange})

			So(count, ShouldEqual, 1)
		})

		Convey("One callback can watch several kinds independently", func() {
			count := 0
			cb := func(player.Event) { count++ }

			bus.Subscribe(player.EventSongChange, cb)
			bus.Subscribe(player.EventVolumeChange, cb)
			bus.Publish(player.Event{Kind: player.EventSongChange})
			bus.Publish(player.Event{Kind: player.EventVolumeChange})

			So(count, ShouldEqual, 2)
		})

		Convey("Unsubscribed callbacks stop receiving events", func() {
			count := 0
			cb := func(player.Event) { count++ }

			bus.Subscribe(player.EventSongChange, cb)
			bus.Unsubscribe(player.EventSongChange, cb)
			bus.Publish(player.Event{Kind: player.EventSongChange})

			So(count, ShouldEqual, 0)
		})

		Convey("Unsubscribing an unknown callback is harmless", func() {
			So(func() {
				bus.Unsubscribe(player.EventSongChange, func(player.Event) {})
			}, ShouldNotPanic)
		})

		Convey("Callbacks run in subscription order", func() {
			var seen []string
			bus.Subscribe(player.EventSongChange, func(player.Event) { seen = append(seen, "first") })
			bus.Subscribe(player.EventSongChange, func(player.Event) { seen = append(seen, "second") })

			bus.Publish(player.Event{Kind: player.EventSongChange})

			So(seen, ShouldResemble, []string{"first", "second"})
		})

		Convey("A panicking callback does not block the others", func() {
			delivered := false
			bus.Subscribe(player.EventSongChange, func(player.Event) { panic("boom") })
			bus.Subscribe(player.EventSongChange, func(player.Event) { delivered = true })

			So(func() {
				bus.Publish(player.Event{Kind: player.EventSongChange})
			}, ShouldNotPanic)
			So(delivered, ShouldBeTrue)
		})
	})
}
