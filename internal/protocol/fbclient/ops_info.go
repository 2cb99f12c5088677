package fbclient

import (
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// InfoDatabase issues op_info_database, requesting the info items in
// infoRequest about the attached database. The raw reply buffer is
// returned undecoded: interpreting info-item tag bytes belongs to the
// caller owning the info-item catalogs, not this wire layer.
func (s *Session) InfoDatabase(infoRequest []byte, bufferSize int32) ([]byte, error) {
	if err := s.requireDBHandle(); err != nil {
		return nil, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpInfoDatabase))
	buf.int32(s.dbHandle)
	buf.int32(0)
	buf.opaque(infoRequest)
	buf.int32(bufferSize)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("info_database", err)
	if err != nil {
		return nil, err
	}
	return resp.Buffer, nil
}

// InfoTransaction issues op_info_transaction, requesting transaction-scoped
// info items (e.g. isc_info_tra_id).
func (s *Session) InfoTransaction(transHandle int32, infoRequest []byte, bufferSize int32) ([]byte, error) {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpInfoTrans))
	buf.int32(transHandle)
	buf.int32(0)
	buf.opaque(infoRequest)
	buf.int32(bufferSize)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("info_transaction", err)
	if err != nil {
		return nil, err
	}
	return resp.Buffer, nil
}

// InfoSQL issues op_info_sql, requesting statement-scoped info items (e.g.
// isc_info_sql_stmt_type, the output-column descriptor items).
func (s *Session) InfoSQL(stmtHandle int32, infoRequest []byte, bufferSize int32) ([]byte, error) {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpInfoSQL))
	buf.int32(stmtHandle)
	buf.int32(0)
	buf.opaque(infoRequest)
	buf.int32(bufferSize)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("info_sql", err)
	if err != nil {
		return nil, err
	}
	return resp.Buffer, nil
}
