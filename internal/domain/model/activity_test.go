package model

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestActivity_Clone(t *testing.T) {
	Convey("Given an activity with participants", t, func() {
		a := Activity{
			Name:            "Chess Club",
			MaxParticipants: 2,
			Participants:    []string{"a@mergington.edu"},
		}

		Convey("When it is cloned and the clone is mutated", func() {
			c := a.Clone()
			c.Participants[0] = "b@mergington.edu"
			c.Participants = append(c.Participants, "c@mergington.edu")

			Convey("Then the original roster should be untouched", func() {
				So(a.Participants, ShouldResemble, []string{"a@mergington.edu"})
			})
		})

		Convey("When an activity without participants is cloned", func() {
			c := Activity{Name: "Empty"}.Clone()

			Convey("Then the roster should encode as an empty list", func() {
				b, err := json.Marshal(c)
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `"participants":[]`)
				So(string(b), ShouldNotContainSubstring, "Empty")
			})
		})
	})
}

func TestActivity_Capacity(t *testing.T) {
	Convey("Given an activity with room for two", t, func() {
		a := Activity{MaxParticipants: 2}

		So(a.Full(), ShouldBeFalse)
		So(a.SpotsLeft(), ShouldEqual, 2)

		a.Participants = []string{"x@mergington.edu", "y@mergington.edu"}
		So(a.Has("x@mergington.edu"), ShouldBeTrue)
		So(a.Has("z@mergington.edu"), ShouldBeFalse)
		So(a.Full(), ShouldBeTrue)
		So(a.SpotsLeft(), ShouldEqual, 0)

		a.Participants = append(a.Participants, "z@mergington.edu")
		So(a.SpotsLeft(), ShouldEqual, 0)
	})
}
