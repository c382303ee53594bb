package onboard

import (
	"github.com/CodedInternet/gomixer/onboard/errors"
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func TestNewSink(t *testing.T) {
	Convey("the simulated sink is the default", t, func() {
		for _, kind := range []string{"", SINK_SIM} {
			sink, closer, err := NewSink(SinkConfig{Kind: kind})
			So(err, ShouldBeNil)
			So(sink, ShouldHaveSameTypeAs, &SimulatedSink{})
			So(closer.Close(), ShouldBeNil)
		}
	})

	Convey("unknown kinds are rejected", t, func() {
		_, _, err := NewSink(SinkConfig{Kind: "i2c"})
		So(err, ShouldResemble, errors.SinkKindError{Kind: "i2c"})
	})

	Convey("a missing CAN interface fails", t, func() {
		_, _, err := NewSink(SinkConfig{Kind: SINK_CAN, Bus: "nocan42", Node: 0x10})
		So(err, ShouldNotBeNil)
	})

	Convey("a missing serial port fails", t, func() {
		_, _, err := NewSink(SinkConfig{Kind: SINK_SERIAL, Port: "/dev/does-not-exist", Baud: DEFAULT_BAUD})
		So(err, ShouldNotBeNil)
	})
}
