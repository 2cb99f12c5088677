package fbclient

import (
	"net"

	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/status"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

// AuxAddress is the endpoint op_connect_request returns: the address the
// server listens on for this session's asynchronous event traffic. Callers
// dial it as a second connection and drive WaitForEvent/RunEventLoop over
// that channel.
type AuxAddress struct {
	Handle int32
	Family int16
	Port   uint16
	IP     net.IP
}

// ConnectRequest issues op_connect_request for an asynchronous (event)
// channel and decodes the sockaddr the server replies with inside its
// op_response: handle, 8 ignored bytes, then a length-prefixed buffer
// carrying family, port, and IPv4 address, then a status vector.
func (s *Session) ConnectRequest() (*AuxAddress, error) {
	if err := s.requireDBHandle(); err != nil {
		return nil, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpConnectReq))
	buf.int32(1) // async channel
	buf.int32(s.dbHandle)
	buf.int32(0)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	op, err := readOpcode(s.ch)
	if err != nil {
		return nil, err
	}
	if op != wire.OpResponse {
		return nil, &fberr.InternalError{Op: "connect_request", Got: int32(op), Want: int32(wire.OpResponse)}
	}

	head, err := s.ch.RecvExact(16, false)
	if err != nil {
		return nil, err
	}
	handle := be32(head[0:4])
	ln := int(be32(head[12:16]))
	padded := ln + xdr.PadLen(ln)

	addr, err := s.ch.RecvExact(8, false)
	if err != nil {
		return nil, err
	}
	if rest := padded - 8; rest > 0 {
		if _, err := s.ch.RecvExact(rest, false); err != nil {
			return nil, err
		}
	}

	v, err := status.Parse(chanReader{s.ch})
	if err != nil {
		return nil, err
	}
	s.observe("connect_request", nil)
	if v.HasError() {
		return nil, &fberr.StatusError{GDSCodes: v.GDSCodes, SQLCode: v.SQLCode, Message: v.Message, SQLState: v.SQLState}
	}

	return &AuxAddress{
		Handle: handle,
		Family: int16(uint16(addr[0])<<8 | uint16(addr[1])),
		Port:   uint16(addr[2])<<8 | uint16(addr[3]),
		IP:     net.IPv4(addr[4], addr[5], addr[6], addr[7]),
	}, nil
}

// QueEvents issues op_que_events, registering interest in the named
// events. eventBlock is the [version, [name_len, name_bytes, 4-byte
// counter]...] encoded event-interest block matching the format
// WaitForEvent decodes on the way back in. The AST routine/argument words
// this operation carries are an in-process callback-dispatch mechanism
// this client has no use for (it always blocks in WaitForEvent instead),
// so both are sent as 0. Returns the event-registration id needed by
// CancelEvents.
func (s *Session) QueEvents(eventBlock []byte) (int32, error) {
	if err := s.requireDBHandle(); err != nil {
		return 0, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpQueEvents))
	buf.int32(s.dbHandle)
	buf.opaque(eventBlock)
	buf.int32(0) // ast routine
	buf.int32(0) // ast argument
	buf.int32(0) // event id placeholder; server assigns on response

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return 0, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("que_events", err)
	if err != nil {
		return 0, err
	}
	return resp.Handle, nil
}

// CancelEvents issues op_cancel_events, unregistering a prior QueEvents
// registration by its id.
func (s *Session) CancelEvents(eventID int32) error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpCancelEvents))
	buf.int32(s.dbHandle)
	buf.int32(eventID)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("cancel_events", err)
	return err
}

// BuildEventBlock encodes the event-interest block QueEvents sends: a
// version byte 1 followed by [name_len, name_bytes, 4-byte counter] runs,
// one per name in names, all counters starting at 0; the event waiter
// decodes the mirror of this shape out of op_event.
func BuildEventBlock(names []string) []byte {
	block := []byte{1}
	for _, name := range names {
		block = append(block, byte(len(name)))
		block = append(block, name...)
		block = append(block, 0, 0, 0, 0)
	}
	return block
}
