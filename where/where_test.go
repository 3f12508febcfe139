package where

import (
	"testing"

	"github.com/hifiberry/audiocontrol3/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWhere(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("Path resolvers", t, func() {
		Convey("Config should not be empty", func() {
			So(Config(), ShouldNotBeEmpty)
		})

		Convey("Logs should live under Config", func() {
			So(Logs(), ShouldStartWith, Config())
		})

		Convey("Cache should not be empty", func() {
			So(Cache(), ShouldNotBeEmpty)
		})
	})
}
