package canbus

import (
	"errors"
	"sync"
)

var (
	ErrUnsupported = errors.New("canbus: SocketCAN is not available on this platform")
	ErrTxFull      = errors.New("canbus: transmit queue full")
)

type CANBusInterface interface {
	SendMsg(msg CANMsg) error
	AddListener(nodeId uint32, rxchan chan CANMsg)
}

// LoopbackBus delivers every sent message to the listener registered for
// its ID. Messages without a listener are dropped.
type LoopbackBus struct {
	lock      sync.Mutex
	listeners map[uint32]chan CANMsg
}

func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{listeners: make(map[uint32]chan CANMsg)}
}

func (b *LoopbackBus) AddListener(nodeId uint32, rxchan chan CANMsg) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.listeners[nodeId] = rxchan
}

// SendMsg round trips msg through the frame encoding so that loopback
// traffic is subject to the same limits as a real bus.
func (b *LoopbackBus) SendMsg(msg CANMsg) error {
	raw, err := msg.ToByteArray()
	if err != nil {
		return err
	}
	echo, err := MsgFromByteArray(raw)
	if err != nil {
		return err
	}

	b.lock.Lock()
	c, ok := b.listeners[echo.ID]
	b.lock.Unlock()

	if ok {
		select {
		case c <- echo:
		default: // listener is not keeping up
		}
	}
	return nil
}
