package fbclient

import (
	"github.com/veyronfb/fbwire/internal/protocol/blr"
	"github.com/veyronfb/fbwire/internal/protocol/param"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// AllocateStatement issues op_allocate_statement against the attached
// database, returning the server-assigned statement handle.
func (s *Session) AllocateStatement() (int32, error) {
	if err := s.requireDBHandle(); err != nil {
		return 0, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpAllocStmt))
	buf.int32(s.dbHandle)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return 0, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("allocate_statement", err)
	if err != nil {
		return 0, err
	}
	return resp.Handle, nil
}

// PrepareStatement issues op_prepare_statement, compiling sql against
// transHandle on the given statement handle. infoRequest is the (possibly
// empty) SQL information items to request back alongside the prepare;
// bufferSize bounds the server's reply buffer.
func (s *Session) PrepareStatement(transHandle, stmtHandle int32, dialect int32, sql string, infoRequest []byte, bufferSize int32) (*OpResponse, error) {
	if err := s.requireDBHandle(); err != nil {
		return nil, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpPrepareStmt))
	buf.int32(transHandle)
	buf.int32(stmtHandle)
	buf.int32(dialect)
	buf.str(sql)
	buf.opaque(infoRequest)
	buf.int32(bufferSize)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("prepare_statement", err)
	return resp, err
}

// Execute issues op_execute for a statement taking no input parameters.
func (s *Session) Execute(transHandle, stmtHandle int32) error {
	return s.executeWithParams(transHandle, stmtHandle, nil)
}

// ExecuteParams issues op_execute with a BLR-encoded parameter list built
// from values, spilling oversize byte strings to BLOBs through s (which
// implements blr.BlobSpiller).
func (s *Session) ExecuteParams(transHandle, stmtHandle int32, values []param.Value) error {
	return s.executeWithParams(transHandle, stmtHandle, values)
}

func (s *Session) executeWithParams(transHandle, stmtHandle int32, values []param.Value) error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpExecute))
	buf.int32(stmtHandle)
	buf.int32(transHandle)

	if len(values) == 0 {
		buf.opaque(nil)
		buf.int32(0)
		buf.int32(0)
	} else {
		blrDescriptor, valueBuffer, err := blr.Encode(transHandle, values, s, s.charset)
		if err != nil {
			return err
		}
		buf.opaque(blrDescriptor)
		buf.int32(0)
		buf.int32(1)
		buf.raw(valueBuffer)
	}

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	_, err := ExpectResponse(s.ch)
	s.observe("execute", err)
	return err
}

// Execute2 issues op_execute2, the execute variant that also appends an
// output BLR descriptor for statements returning a singleton row. It reads
// the two responses op_execute2 produces: the op_response for the execute
// itself, then an op_sql_response carrying the output row (when outCols is
// non-empty).
func (s *Session) Execute2(transHandle, stmtHandle int32, values []param.Value, outCols []ColumnDescriptor) (*FetchResult, error) {
	if err := s.requireDBHandle(); err != nil {
		return nil, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpExecute2))
	buf.int32(stmtHandle)
	buf.int32(transHandle)

	if len(values) == 0 {
		buf.opaque(nil)
		buf.int32(0)
		buf.int32(0)
	} else {
		blrDescriptor, valueBuffer, err := blr.Encode(transHandle, values, s, s.charset)
		if err != nil {
			return nil, err
		}
		buf.opaque(blrDescriptor)
		buf.int32(0)
		buf.int32(1)
		buf.raw(valueBuffer)
	}

	outBlr := outputBLR(outCols)
	buf.opaque(outBlr)
	buf.int32(0)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	if _, err := ExpectResponse(s.ch); err != nil {
		s.observe("execute2", err)
		return nil, err
	}

	if len(outCols) == 0 {
		return &FetchResult{}, nil
	}

	op, err := expectOpcode(s.ch, wire.OpSQLResponse)
	if err != nil {
		s.observe("execute2", err)
		return nil, err
	}
	if op == wire.OpResponse {
		_, err := readOpResponse(s.ch)
		s.observe("execute2", err)
		return nil, err
	}

	result, err := SQLResponse(s.ch, outCols)
	s.observe("execute2", err)
	return result, err
}

// outputBLR builds the minimal "every column present" output descriptor
// execute2 needs to tell the server how many output message slots to
// format: a prelude sized for len(cols) columns, same shape as an all-text
// parameter BLR but with no type information beyond the slot count, since
// the actual column shapes are already fixed by the prepared statement.
func outputBLR(cols []ColumnDescriptor) []byte {
	if len(cols) == 0 {
		return nil
	}
	n := uint16(len(cols) * 2)
	return []byte{5, 2, 4, 0, byte(n & 0xff), byte(n >> 8), 255, 76}
}

// Fetch issues op_fetch, requesting up to fetchCount rows from stmtHandle
// using an output BLR sized for cols, then decodes
// the resulting op_fetch_response.
func (s *Session) Fetch(stmtHandle int32, cols []ColumnDescriptor, fetchCount int32) (*FetchResult, error) {
	if err := s.requireDBHandle(); err != nil {
		return nil, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpFetch))
	buf.int32(stmtHandle)
	buf.opaque(outputBLR(cols))
	buf.int32(0)
	buf.int32(fetchCount)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	op, err := expectOpcode(s.ch, wire.OpFetchResponse)
	if err != nil {
		s.observe("fetch", err)
		return nil, err
	}
	if op == wire.OpResponse {
		_, err := readOpResponse(s.ch)
		s.observe("fetch", err)
		return nil, err
	}

	result, err := FetchRows(s.ch, cols)
	s.observe("fetch", err)
	if err == nil {
		s.metrics.ObserveFetchBatch(len(result.Rows))
	}
	return result, err
}

// DefaultFetchCount is the row quota an op_fetch requests per batch.
const DefaultFetchCount int32 = 400

// FreeStatement issues op_free_statement with the given option (DSQL_close
// vs DSQL_drop), releasing either the cursor or the whole statement.
func (s *Session) FreeStatement(stmtHandle int32, option int32) error {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpFreeStatement))
	buf.int32(stmtHandle)
	buf.int32(option)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("free_statement", err)
	return err
}

// DSQL free-statement options (Firebird's public ibase.h constants).
const (
	DSQLClose     = 1
	DSQLDrop      = 2
	DSQLUnprepare = 4
)

// defaultBufferLength bounds the server's reply buffer for the
// info-carrying statement operations.
const defaultBufferLength int32 = 1024

// ExecImmediate issues op_exec_immediate: prepare and execute sql in one
// round trip, without a persistent statement handle.
func (s *Session) ExecImmediate(transHandle int32, dialect int32, sql string) error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpExecImmediate))
	buf.int32(transHandle)
	buf.int32(s.dbHandle)
	buf.int32(dialect)
	buf.str(sql)
	buf.opaque(nil) // no info items requested
	buf.int32(defaultBufferLength)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("exec_immediate", err)
	return err
}
