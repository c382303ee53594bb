package onboard

import (
	"github.com/CodedInternet/gomixer/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func TestSimulatedSink(t *testing.T) {
	Convey("a fresh sink", t, func() {
		sink := NewSimulatedSink()

		Convey("has no duty recorded", func() {
			_, ok := sink.Duty(0)
			So(ok, ShouldBeFalse)
			So(sink.Writes(), ShouldBeEmpty)
			So(sink.Total(), ShouldEqual, 0)
		})

		Convey("keeps the latest duty per channel", func() {
			sink.Write(1, 130)
			sink.Write(1, 140)
			sink.Write(2, 150)

			duty, ok := sink.Duty(1)
			So(ok, ShouldBeTrue)
			So(duty, ShouldEqual, 140)
			So(sink.Writes(), ShouldResemble, []SimulatedWrite{{1, 130}, {1, 140}, {2, 150}})
		})

		Convey("history is bounded and ordered oldest first", func() {
			for i := 0; i < SIM_HISTORY+10; i++ {
				sink.Write(hardware.ChannelID(i%4), uint8(i))
			}

			writes := sink.Writes()
			So(writes, ShouldHaveLength, SIM_HISTORY)
			So(writes[0], ShouldResemble, SimulatedWrite{Channel: 2, Duty: 10})
			So(writes[SIM_HISTORY-1].Duty, ShouldEqual, (SIM_HISTORY+9)%256)
			So(sink.Total(), ShouldEqual, SIM_HISTORY+10)
		})
	})
}
