//go:build !linux

package canbus

type CANBus struct {
	LoopbackBus
}

func NewCANBus(ifname string) (bus *CANBus, err error) {
	return nil, ErrUnsupported
}

func (c *CANBus) Close() error {
	return nil
}
