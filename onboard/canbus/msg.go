package canbus

import (
	"encoding/binary"
	"errors"
)

const (
	CAN_EFF_FLAG = 0x80000000
	CAN_EFF_MASK = 0x1fffffff
	CAN_SFF_MASK = 0x7ff
	CAN_MTU      = 0x10
	CAN_MAX_DLEN = 0x8

	cmdLength     = 2
	msgMaxLength  = CAN_MAX_DLEN - cmdLength
	dataOffset    = 8
	payloadOffset = dataOffset + cmdLength
)

// errors
var (
	ERR_DATA_TOO_LONG = errors.New("data length exceeds 6 bytes")
	ERR_FRAME_SHORT   = errors.New("raw frame shorter than CAN_MTU")
)

type CANMsg struct {
	ID   uint32 // node ID this is being issued for
	Cmd  uint16 // command being issued in this message
	Data []byte // raw data up to six bytes. DLC is taken from len(Data).
}

// ToByteArray encodes msg as a SocketCAN frame. The command occupies the
// first two bytes of the CAN payload.
func (msg *CANMsg) ToByteArray() (raw []byte, err error) {
	if len(msg.Data) > msgMaxLength {
		return nil, ERR_DATA_TOO_LONG
	}

	raw = make([]byte, CAN_MTU)

	oid := msg.ID
	if oid != oid&CAN_SFF_MASK {
		oid = oid&CAN_EFF_MASK | CAN_EFF_FLAG
	}

	binary.LittleEndian.PutUint32(raw[0:4], oid)
	raw[4] = byte(cmdLength + len(msg.Data))
	binary.LittleEndian.PutUint16(raw[dataOffset:payloadOffset], msg.Cmd)
	copy(raw[payloadOffset:], msg.Data)

	return
}

func MsgFromByteArray(raw []byte) (msg CANMsg, err error) {
	if len(raw) < CAN_MTU {
		return msg, ERR_FRAME_SHORT
	}

	oid := binary.LittleEndian.Uint32(raw[0:4])
	if oid&CAN_EFF_FLAG != 0 {
		msg.ID = oid & CAN_EFF_MASK
	} else {
		msg.ID = oid & CAN_SFF_MASK
	}

	dlc := int(raw[4])
	if dlc > CAN_MAX_DLEN {
		dlc = CAN_MAX_DLEN
	}
	msg.Cmd = binary.LittleEndian.Uint16(raw[dataOffset:payloadOffset])
	if dlc > cmdLength {
		msg.Data = append([]byte(nil), raw[payloadOffset:dataOffset+dlc]...)
	}

	return
}
