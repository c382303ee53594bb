//go:build linux

// Command cantest checks an ESC node by ramping one channel through the pulse
// range over SocketCAN and leaving it at the minimum.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/CodedInternet/gomixer/onboard/canbus"
	"github.com/CodedInternet/gomixer/onboard/hardware"
)

func main() {
	iface := flag.String("bus", "can0", "CAN interface")
	node := flag.Uint("node", 0x0001, "ESC node id")
	channel := flag.Uint("channel", 0, "output channel")
	top := flag.Int("top", hardware.PULSE_IDLE+200, "highest pulse in the ramp")
	flag.Parse()

	bus, err := canbus.NewCANBus(*iface)
	if err != nil {
		panic(err)
	}
	defer bus.Close()

	sink := hardware.NewCANSink(bus, uint32(*node))
	m := hardware.NewMotor(hardware.MotorConfig{
		Spin:    1,
		Channel: hardware.ChannelID(*channel),
		Policy:  hardware.StandardPolicy,
	}, sink)

	for throttle := hardware.PULSE_MIN; throttle <= *top; throttle += 10 {
		m.Update(0, 0, 0, int16(throttle))
		time.Sleep(20 * time.Millisecond)
	}
	m.Stop()
	time.Sleep(20 * time.Millisecond)

	fmt.Printf("Ramp finished on node 0x%X channel %d, %d send errors\n", *node, *channel, sink.Errors())
}
