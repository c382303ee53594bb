package onboard

import (
	"github.com/CodedInternet/gomixer/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func testFrame(t *testing.T) FrameConfig {
	config, err := ParseFrameConfig([]byte(testYaml))
	if err != nil {
		t.Fatalf("unable to parse test frame: %v", err)
	}
	return config
}

func TestMultirotor(t *testing.T) {
	Convey("a quad-x frame", t, func() {
		sink := NewSimulatedSink()
		device, err := NewMultirotor(testFrame(t), sink)
		So(err, ShouldBeNil)
		So(device.Len(), ShouldEqual, 4)

		Convey("all outputs start at the minimum", func() {
			So(sink.Total(), ShouldEqual, 4)
			for ch := hardware.ChannelID(0); ch < 4; ch++ {
				duty, ok := sink.Duty(ch)
				So(ok, ShouldBeTrue)
				So(duty, ShouldEqual, hardware.PULSE_MIN>>hardware.DUTY_SHIFT)
			}
			for _, s := range device.State() {
				So(s.Mode, ShouldEqual, hardware.MotorStopped)
			}
		})

		Convey("hover throttle reaches every motor equally", func() {
			device.Update(hardware.Command{Throttle: 1500})
			for ch := hardware.ChannelID(0); ch < 4; ch++ {
				duty, _ := sink.Duty(ch)
				So(duty, ShouldEqual, 187)
			}
		})

		Convey("roll splits the frame", func() {
			pulses := device.Preview(hardware.Command{X: 100, Throttle: 1500})
			So(pulses["front-right"], ShouldBeGreaterThan, 1500)
			So(pulses["m2"], ShouldBeGreaterThan, 1500)
			So(pulses["rear-left"], ShouldBeLessThan, 1500)
			So(pulses["m3"], ShouldBeLessThan, 1500)
			So(sink.Total(), ShouldEqual, 4) // preview does not write
		})

		Convey("yaw pairs counter-rotating motors", func() {
			pulses := device.Preview(hardware.Command{Yaw: 40, Throttle: 1500})
			So(pulses["front-right"], ShouldEqual, 1540)
			So(pulses["rear-left"], ShouldEqual, 1540)
			So(pulses["m2"], ShouldEqual, 1460)
			So(pulses["m3"], ShouldEqual, 1460)
		})

		Convey("stop overrides a running command", func() {
			device.Update(hardware.Command{Throttle: 1800})
			device.Stop()
			for _, s := range device.State() {
				So(s.Duty, ShouldEqual, 125)
				So(s.Mode, ShouldEqual, hardware.MotorStopped)
			}
		})

		Convey("gains are reported per motor", func() {
			gains := device.Gains()
			So(gains[0], ShouldResemble, MotorGains{Name: "front-right", Channel: 0, Spin: 1, X: 23169, Y: -23169})
		})

		Convey("state is reported by name in config order", func() {
			state := device.State()
			So(state, ShouldHaveLength, 4)
			So(state[1].Name, ShouldEqual, "rear-left")
			So(state[1].Channel, ShouldEqual, 1)
			So(state[3].Name, ShouldEqual, "m3")
		})
	})

	Convey("an unknown policy fails construction", t, func() {
		config := testFrame(t)
		config.Policy = "magic"
		_, err := NewMultirotor(config, nil)
		So(err, ShouldNotBeNil)
	})

	Convey("a frame without motors fails construction", t, func() {
		config := testFrame(t)
		config.Motors = nil
		_, err := NewMultirotor(config, nil)
		So(err, ShouldNotBeNil)
	})
}

func BenchmarkMultirotor_Update(b *testing.B) {
	config, _ := ParseFrameConfig([]byte(testYaml))
	device, _ := NewMultirotor(config, hardware.SinkFunc(func(hardware.ChannelID, uint8) {}))
	cmd := hardware.Command{X: 40, Y: -20, Yaw: 10, Throttle: 1500}

	for n := 0; n < b.N; n++ {
		device.Update(cmd)
	}
}
