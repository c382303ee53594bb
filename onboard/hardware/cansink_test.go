package hardware

import (
	"errors"
	"github.com/CodedInternet/gomixer/onboard/canbus"
	. "github.com/smartystreets/goconvey/convey"
	"os"
	"testing"
	"time"
)

type testBus struct {
	txerr   bool
	txCount int
	lastTx  canbus.CANMsg
}

func (t *testBus) AddListener(nodeId uint32, rxchan chan canbus.CANMsg) {}

func (t *testBus) SendMsg(msg canbus.CANMsg) error {
	t.txCount++
	if t.txerr {
		return errors.New("this is a simulated tx error")
	}
	t.lastTx = canbus.CANMsg{ID: msg.ID, Cmd: msg.Cmd, Data: append([]byte(nil), msg.Data...)}
	return nil
}

// downConn accepts nothing, like a socket on an interface that is bus-off.
type downConn struct{}

func (downConn) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, os.ErrDeadlineExceeded
}
func (downConn) Write(p []byte) (int, error) { return 0, errors.New("network is down") }
func (downConn) Close() error                { return nil }

func TestCANSink(t *testing.T) {
	Convey("duty values are sent to the node", t, func() {
		bus := new(testBus)
		sink := NewCANSink(bus, 0x20)

		sink.Write(2, 206)
		So(bus.lastTx, ShouldResemble, canbus.CANMsg{ID: 0x20, Cmd: CMD_ESC_DUTY, Data: []byte{2, 206}})
		So(sink.Errors(), ShouldEqual, 0)

		Convey("bus errors are counted, not raised", func() {
			bus.txerr = true
			So(func() { sink.Write(2, 125) }, ShouldNotPanic)
			So(sink.Errors(), ShouldEqual, 1)
			So(bus.txCount, ShouldEqual, 2)
		})
	})

	Convey("a motor driving a loopback bus", t, func() {
		bus := canbus.NewLoopbackBus()
		rx := make(chan canbus.CANMsg, 4)
		bus.AddListener(0x21, rx)

		m := NewMotor(MotorConfig{Channel: 5, Spin: 1, Policy: StandardPolicy}, NewCANSink(bus, 0x21))
		m.Update(0, 0, 0, 1500)
		m.Stop()

		So((<-rx).Data, ShouldResemble, []byte{5, 187})
		So((<-rx).Data, ShouldResemble, []byte{5, 125})
	})

	Convey("frames accepted by the bus but refused on the wire are counted", t, func() {
		bus := canbus.NewStreamBus(downConn{})
		defer bus.Close()
		sink := NewCANSink(bus, 0x20)

		sink.Write(0, 125)
		sink.Write(1, 125)

		deadline := time.Now().Add(time.Second)
		for sink.Errors() < 2 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		So(sink.Errors(), ShouldEqual, 2)
	})
}
