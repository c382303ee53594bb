package canbus

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// frameConn is an in-memory frame connection. Idle reads time out like a
// socket with SO_RCVTIMEO set.
type frameConn struct {
	rx       chan []byte
	readErr  error
	writeErr error

	lock    sync.Mutex
	written [][]byte

	reads  atomic.Int64
	closed atomic.Int32
}

func newFrameConn() *frameConn {
	return &frameConn{rx: make(chan []byte, 4)}
}

func (f *frameConn) Read(p []byte) (int, error) {
	f.reads.Add(1)
	if f.readErr != nil {
		return 0, f.readErr
	}
	select {
	case frame := <-f.rx:
		return copy(p, frame), nil
	case <-time.After(5 * time.Millisecond):
		return 0, os.ErrDeadlineExceeded
	}
}

func (f *frameConn) Write(p []byte) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), p...))
	return len(p), nil
}

func (f *frameConn) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *frameConn) Written() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.written)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestStreamBus(t *testing.T) {
	Convey("a bus over a healthy connection", t, func() {
		conn := newFrameConn()
		bus := NewStreamBus(conn)
		defer bus.Close()

		Convey("queued frames are written", func() {
			So(bus.SendMsg(CANMsg{ID: 0x20, Cmd: 0x0150, Data: []byte{1, 200}}), ShouldBeNil)
			So(eventually(func() bool { return conn.Written() == 1 }), ShouldBeTrue)

			conn.lock.Lock()
			msg, err := MsgFromByteArray(conn.written[0])
			conn.lock.Unlock()
			So(err, ShouldBeNil)
			So(msg, ShouldResemble, CANMsg{ID: 0x20, Cmd: 0x0150, Data: []byte{1, 200}})
			So(bus.Errors(), ShouldEqual, 0)
		})

		Convey("received frames reach their listener", func() {
			rx := make(chan CANMsg, 1)
			bus.AddListener(0x21, rx)

			msg := CANMsg{ID: 0x21, Cmd: 0x01, Data: []byte{9}}
			raw, _ := msg.ToByteArray()
			conn.rx <- raw

			select {
			case got := <-rx:
				So(got, ShouldResemble, msg)
			case <-time.After(time.Second):
				So("no frame delivered", ShouldBeEmpty)
			}
		})

		Convey("closing twice releases the connection once", func() {
			So(bus.Close(), ShouldBeNil)
			So(bus.Close(), ShouldBeNil)
			So(conn.closed.Load(), ShouldEqual, 1)

			Convey("and later sends are refused", func() {
				So(bus.SendMsg(CANMsg{ID: 0x20}), ShouldEqual, net.ErrClosed)
			})
		})
	})

	Convey("frames the connection refuses are counted", t, func() {
		conn := newFrameConn()
		conn.writeErr = errors.New("network is down")
		bus := NewStreamBus(conn)
		defer bus.Close()

		So(bus.SendMsg(CANMsg{ID: 0x20}), ShouldBeNil)
		So(bus.SendMsg(CANMsg{ID: 0x20}), ShouldBeNil)
		So(eventually(func() bool { return bus.Errors() == 2 }), ShouldBeTrue)
	})

	Convey("a failing read backs off instead of spinning", t, func() {
		conn := newFrameConn()
		conn.readErr = errors.New("network is down")
		bus := NewStreamBus(conn)

		time.Sleep(50 * time.Millisecond)
		So(conn.reads.Load(), ShouldBeLessThanOrEqualTo, 2)
		So(bus.RxErrors(), ShouldBeGreaterThanOrEqualTo, 1)

		Convey("and still stops promptly", func() {
			start := time.Now()
			So(bus.Close(), ShouldBeNil)
			So(time.Since(start), ShouldBeLessThan, READ_BACKOFF+100*time.Millisecond)
			So(conn.closed.Load(), ShouldEqual, 1)
		})
	})
}
