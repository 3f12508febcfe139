package addon

import (
	"errors"
	"testing"

	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/metadata"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	viper.Set(key.VolumeNormTargetLevel, -14.0)
	viper.Set(key.VolumeNormMaxAdjustment, 10)
	viper.Set(key.VolumeNormDefaultLevel, -18.0)

	RegisterFactory("counting", func(*audiocontroller.AudioController) (Addon, error) {
		return newCountingAddon(), nil
	})
}

type countingAddon struct {
	Base
	enables  int
	disables int
}

func newCountingAddon() *countingAddon {
	c := &countingAddon{}
	c.Base = NewBase("counting", "test addon", "0.0.1",
		func() error { c.enables++; return nil },
		func() error { c.disables++; return nil },
	)
	return c
}

func TestLifecycle(t *testing.T) {
	Convey("Given an addon with lifecycle hooks", t, func() {
		Convey("Enable and disable are idempotent", func() {
			c := newCountingAddon()

			So(c.Enable(), ShouldBeNil)
			So(c.Enable(), ShouldBeNil)
			So(c.enables, ShouldEqual, 1)
			So(c.Enabled(), ShouldBeTrue)

			So(c.Disable(), ShouldBeNil)
			So(c.Disable(), ShouldBeNil)
			So(c.disables, ShouldEqual, 1)
			So(c.Enabled(), ShouldBeFalse)
		})

		Convey("Disabling a never-enabled addon skips the hook", func() {
			c := newCountingAddon()

			So(c.Disable(), ShouldBeNil)
			So(c.disables, ShouldEqual, 0)
		})

		Convey("A failing enable hook leaves the addon disabled", func() {
			b := NewBase("broken", "", "0.0.1",
				func() error { return errors.New("no resources") },
				nil,
			)

			So(b.Enable(), ShouldNotBeNil)
			So(b.Enabled(), ShouldBeFalse)
		})

		Convey("A panicking enable hook is contained", func() {
			b := NewBase("panicky", "", "0.0.1",
				func() error { panic("boom") },
				nil,
			)

			So(func() { _ = b.Enable() }, ShouldNotPanic)
			So(b.Enable(), ShouldNotBeNil)
			So(b.Enabled(), ShouldBeFalse)
		})
	})
}

func TestManager(t *testing.T) {
	Convey("Given an addon manager", t, func() {
		engine := audiocontroller.New()
		defer engine.Close()
		manager := NewManager(engine)

		Convey("The catalog lists the built-in addons", func() {
			names := Catalog()

			So(names, ShouldContain, "autopause")
			So(names, ShouldContain, "volumenorm")
		})

		Convey("Loading is idempotent", func() {
			first, err := manager.Load("counting")
			So(err, ShouldBeNil)

			second, err := manager.Load("counting")
			So(err, ShouldBeNil)
			So(second, ShouldEqual, first)
			So(manager.Loaded(), ShouldHaveLength, 1)
		})

		Convey("Unknown addons fail to load", func() {
			_, err := manager.Load("ghost")

			So(err, ShouldNotBeNil)
		})

		Convey("Enable loads on demand", func() {
			So(manager.Enable("counting"), ShouldBeNil)

			a, err := manager.Get("counting")
			So(err, ShouldBeNil)
			So(a.Enabled(), ShouldBeTrue)
			So(manager.EnabledAddons(), ShouldResemble, []string{"counting"})
		})

		Convey("Disabling an unloaded addon fails", func() {
			err := manager.Disable("counting")

			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Disabling a loaded but never-enabled addon succeeds", func() {
			a, err := manager.Load("counting")
			So(err, ShouldBeNil)

			So(manager.Disable("counting"), ShouldBeNil)
			So(a.(*countingAddon).disables, ShouldEqual, 0)
		})
	})
}

func TestVolumeNorm(t *testing.T) {
	Convey("Given the volume normalization addon", t, func() {
		engine := audiocontroller.New()
		defer engine.Close()
		norm := NewVolumeNorm(engine)

		Convey("ReplayGain tags drive a deterministic adjustment", func() {
			song := &metadata.Song{
				Title:    "tagged",
				Metadata: map[string]any{"replaygain_track_gain": "-3.00 dB"},
			}

			// gain -3 dB puts the track at -15 LUFS, one dB under target
			So(norm.AdjustmentFor(song), ShouldEqual, 3)
			So(norm.AdjustmentFor(song), ShouldEqual, 3)
		})

		Convey("LUFS tags are used as-is", func() {
			song := &metadata.Song{
				Metadata: map[string]any{"lufs": -14.0},
			}

			So(norm.AdjustmentFor(song), ShouldEqual, 0)
		})

		Convey("A peak above full scale pulls the volume down", func() {
			song := &metadata.Song{
				Metadata: map[string]any{
					"lufs":                  -14.0,
					"replaygain_track_peak": 2.0,
				},
			}

			So(norm.AdjustmentFor(song), ShouldEqual, -10)
		})

		Convey("Untagged songs fall back to genre estimates", func() {
			classical := &metadata.Song{Genre: "Classical"}
			rock := &metadata.Song{Genre: "Hard Rock"}
			unknown := &metadata.Song{}

			So(norm.AdjustmentFor(classical), ShouldEqual, 10)
			So(norm.AdjustmentFor(rock), ShouldEqual, 3)
			So(norm.AdjustmentFor(unknown), ShouldEqual, 10)
		})

		Convey("Adjustments never exceed the configured maximum", func() {
			song := &metadata.Song{
				Metadata: map[string]any{"lufs": -40.0},
			}

			So(norm.AdjustmentFor(song), ShouldEqual, 10)
		})

		Convey("Configuration is validated", func() {
			So(norm.SetConfig(map[string]any{"target_level": -16.0}), ShouldBeNil)
			So(norm.Config()["target_level"], ShouldEqual, -16.0)

			So(norm.SetConfig(map[string]any{"target_level": 5.0}), ShouldNotBeNil)
			So(norm.SetConfig(map[string]any{"max_adjustment": -1}), ShouldNotBeNil)
			So(norm.SetConfig(map[string]any{"mystery": 1}), ShouldNotBeNil)
		})
	})
}
