package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "player", "players"), ShouldEqual, "1 player")
		So(Quantify(2, "player", "players"), ShouldEqual, "2 players")
		So(Quantify(0, "player", "players"), ShouldEqual, "0 players")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(150, 0, 100), ShouldEqual, 100)
		So(Clamp(-5, 0, 100), ShouldEqual, 0)
		So(Clamp(42, 0, 100), ShouldEqual, 42)
		So(Clamp(2.5, 0.0, 1.0), ShouldEqual, 1.0)
	})
}

func TestFormatTime(t *testing.T) {
	Convey("FormatTime", t, func() {
		So(FormatTime(0), ShouldEqual, "0:00")
		So(FormatTime(61), ShouldEqual, "1:01")
		So(FormatTime(3661), ShouldEqual, "1:01:01")
		So(FormatTime(-3), ShouldEqual, "0:00")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("mpd"), ShouldEqual, "Mpd")
		So(Capitalize(""), ShouldEqual, "")
	})
}
