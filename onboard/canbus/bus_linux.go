package canbus

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// CANBus is a raw SocketCAN interface.
type CANBus struct {
	*StreamBus
}

func NewCANBus(ifname string) (bus *CANBus, err error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return
	}
	// we do not want our own duty frames echoed back to the reader
	if err = unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_LOOPBACK, 0); err != nil {
		unix.Close(fd)
		return
	}
	tv := unix.NsecToTimeval(int64(READ_TIMEOUT))
	if err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return
	}
	if err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return
	}

	return &CANBus{NewStreamBus(socketConn{fd: fd})}, nil
}

type socketConn struct {
	fd int
}

func (s socketConn) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	switch err {
	case nil:
		return n, nil
	case unix.EAGAIN, unix.EINTR:
		return 0, os.ErrDeadlineExceeded
	}
	return 0, err
}

func (s socketConn) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s socketConn) Close() error {
	return unix.Close(s.fd)
}
