package onboard

import (
	"io"

	"github.com/CodedInternet/gomixer/onboard/canbus"
	"github.com/CodedInternet/gomixer/onboard/errors"
	"github.com/CodedInternet/gomixer/onboard/hardware"
	pkgerrors "github.com/pkg/errors"
)

const (
	SINK_SIM    = "sim"
	SINK_SERIAL = "serial"
	SINK_CAN    = "can"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSink builds the pulse sink described by cfg. The closer must be closed
// once the motors have been stopped.
func NewSink(cfg SinkConfig) (sink hardware.PulseSink, closer io.Closer, err error) {
	switch cfg.Kind {
	case SINK_SIM, "":
		return NewSimulatedSink(), nopCloser{}, nil

	case SINK_SERIAL:
		serialSink, port, err := OpenSerialSink(cfg.Port, cfg.Baud)
		if err != nil {
			return nil, nil, err
		}
		return serialSink, port, nil

	case SINK_CAN:
		bus, err := canbus.NewCANBus(cfg.Bus)
		if err != nil {
			return nil, nil, pkgerrors.Wrapf(err, "unable to open CAN bus %s", cfg.Bus)
		}
		return hardware.NewCANSink(bus, cfg.Node), bus, nil
	}

	return nil, nil, errors.SinkKindError{Kind: cfg.Kind}
}
