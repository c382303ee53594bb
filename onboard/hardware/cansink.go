package hardware

import (
	"sync/atomic"

	"github.com/CodedInternet/gomixer/onboard/canbus"
)

const (
	CMD_ESC_DUTY = 0x0150 // data: channel, duty
)

// CANSink forwards duty values to an ESC node on a CAN bus. Frames are fire
// and forget: the node is not expected to acknowledge them.
type CANSink struct {
	bus    canbus.CANBusInterface
	node   uint32
	errors atomic.Uint64
	data   [2]byte
}

var _ PulseSink = (*CANSink)(nil)

func NewCANSink(bus canbus.CANBusInterface, node uint32) *CANSink {
	return &CANSink{
		bus:  bus,
		node: node,
	}
}

func (s *CANSink) Write(ch ChannelID, duty uint8) {
	s.data[0] = byte(ch)
	s.data[1] = duty

	err := s.bus.SendMsg(canbus.CANMsg{
		ID:   s.node,
		Cmd:  CMD_ESC_DUTY,
		Data: s.data[:],
	})
	if err != nil {
		s.errors.Add(1)
	}
}

// Errors is the number of frames the bus refused, including frames it
// accepted but failed to put on the wire.
func (s *CANSink) Errors() uint64 {
	n := s.errors.Load()
	if c, ok := s.bus.(canbus.ErrorCounter); ok {
		n += c.Errors()
	}
	return n
}
