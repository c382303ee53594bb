package errors

import (
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	Convey("missing values are reported as unknown", t, func() {
		So(FrameVersionError{Constraint: "~1.0"}.Error(), ShouldEqual, "unsupported frame config version UNKNOWN - require ~1.0")
		So(SinkKindError{}.Error(), ShouldEqual, "unable to create pulse sink of kind UNKNOWN")
	})

	Convey("motor errors name the motor when possible", t, func() {
		So(MotorConfigError{Index: 2, Reason: "duplicate channel 1"}.Error(), ShouldEqual, "motor 2: duplicate channel 1")
		So(MotorConfigError{Index: 2, Name: "rear", Reason: "missing position"}.Error(), ShouldEqual, "motor 2 (rear): missing position")
	})
}
