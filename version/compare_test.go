package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Semantic version comparison", t, func() {
		Convey("Orders versions correctly", func() {
			cases := []struct {
				a, b string
				want int
			}{
				{"3.0.0", "3.0.0", 0},
				{"3.1.0", "3.0.9", 1},
				{"2.9.9", "3.0.0", -1},
				{"v3.0.1", "3.0.0", 1},
			}

			for _, c := range cases {
				got, err := Compare(c.a, c.b)

				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Rejects malformed versions", func() {
			_, err := Compare("not-a-version", "3.0.0")

			So(err, ShouldNotBeNil)
		})
	})
}
