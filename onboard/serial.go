package onboard

import (
	"io"
	"sync/atomic"

	"github.com/CodedInternet/gomixer/onboard/hardware"
	pkgerrors "github.com/pkg/errors"
	"go.bug.st/serial"
)

const SERIAL_FRAME_START = 0xA5

// SerialSink streams duty frames to a PWM co-processor over a UART:
// start byte, channel, duty, channel^duty.
type SerialSink struct {
	port   io.Writer
	frame  [4]byte
	errors atomic.Uint64
}

var _ hardware.PulseSink = (*SerialSink)(nil)

func NewSerialSink(port io.Writer) *SerialSink {
	s := &SerialSink{port: port}
	s.frame[0] = SERIAL_FRAME_START
	return s
}

// OpenSerialSink opens the named serial port for the sink. The returned
// closer releases the port.
func OpenSerialSink(name string, baud int) (*SerialSink, io.Closer, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "unable to open serial port %s", name)
	}

	return NewSerialSink(port), port, nil
}

func (s *SerialSink) Write(ch hardware.ChannelID, duty uint8) {
	s.frame[1] = byte(ch)
	s.frame[2] = duty
	s.frame[3] = byte(ch) ^ duty

	if _, err := s.port.Write(s.frame[:]); err != nil {
		s.errors.Add(1)
	}
}

func (s *SerialSink) Errors() uint64 {
	return s.errors.Load()
}
