package canbus

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	READ_TIMEOUT = 100 * time.Millisecond // idle reads return within this
	READ_BACKOFF = 250 * time.Millisecond // pause after a failed read
	TX_QUEUE     = 16
)

// ErrorCounter is implemented by buses that fail frames after SendMsg has
// already accepted them.
type ErrorCounter interface {
	Errors() uint64
}

// StreamBus runs a bus over a connection that reads and writes whole frames.
// An idle Read must return os.ErrDeadlineExceeded at least every
// READ_TIMEOUT so the reader notices Close.
type StreamBus struct {
	conn io.ReadWriteCloser
	tx   chan []byte

	lock sync.Mutex
	rx   map[uint32]chan CANMsg

	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	closeErr error

	txErrors atomic.Uint64
	rxErrors atomic.Uint64
}

var (
	_ CANBusInterface = (*StreamBus)(nil)
	_ ErrorCounter    = (*StreamBus)(nil)
)

func NewStreamBus(conn io.ReadWriteCloser) *StreamBus {
	bus := &StreamBus{
		conn: conn,
		tx:   make(chan []byte, TX_QUEUE),
		rx:   make(map[uint32]chan CANMsg),
		done: make(chan struct{}),
	}

	bus.wg.Add(2)
	go bus.reader()
	go bus.writer()

	return bus
}

func (c *StreamBus) AddListener(nodeId uint32, rxchan chan CANMsg) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.rx[nodeId] = rxchan
}

// SendMsg queues msg for the writer. It never blocks: if the queue is full
// the frame is dropped and ErrTxFull returned.
func (c *StreamBus) SendMsg(msg CANMsg) error {
	raw, err := msg.ToByteArray()
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}

	select {
	case c.tx <- raw:
		return nil
	default:
		return ErrTxFull
	}
}

// Errors is the number of queued frames the connection refused to write.
func (c *StreamBus) Errors() uint64 {
	return c.txErrors.Load()
}

// RxErrors is the number of failed reads, timeouts excluded.
func (c *StreamBus) RxErrors() uint64 {
	return c.rxErrors.Load()
}

// Close stops both goroutines before closing the connection, so the
// descriptor is never used after it is released. Later calls return the
// first result.
func (c *StreamBus) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.wg.Wait()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *StreamBus) writer() {
	defer c.wg.Done()
	for {
		select {
		case raw := <-c.tx:
			if _, err := c.conn.Write(raw); err != nil {
				c.txErrors.Add(1)
			}
		case <-c.done:
			return
		}
	}
}

func (c *StreamBus) reader() {
	defer c.wg.Done()
	raw := make([]byte, CAN_MTU)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.conn.Read(raw)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			c.rxErrors.Add(1)
			select {
			case <-c.done:
				return
			case <-time.After(READ_BACKOFF):
			}
			continue
		}

		msg, err := MsgFromByteArray(raw[:n])
		if err != nil {
			continue
		}

		c.lock.Lock()
		rxc, ok := c.rx[msg.ID]
		c.lock.Unlock()
		if ok {
			select {
			case rxc <- msg:
			default:
			}
		}
	}
}
