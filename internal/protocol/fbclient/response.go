package fbclient

import (
	"fmt"
	"io"

	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/status"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

// chanReader adapts wire.Channel's length-exact RecvExact into an
// io.Reader, so the xdr and status packages (which read from an io.Reader)
// can pull directly off the framed channel without buffering the whole
// status vector up front — its length isn't known ahead of the
// isc_arg_end sentinel.
type chanReader struct{ ch *wire.Channel }

func (r chanReader) Read(p []byte) (int, error) {
	data, err := r.ch.RecvExact(len(p), false)
	if err != nil {
		return 0, err
	}
	copy(p, data)
	return len(data), nil
}

// readOpcode reads the next opcode, discarding any op_dummy keepalive
// frames first.
func readOpcode(ch *wire.Channel) (wire.Opcode, error) {
	for {
		b, err := ch.RecvExact(4, false)
		if err != nil {
			return 0, err
		}
		op := wire.Opcode(int32(b[0])<<24 | int32(b[1])<<16 | int32(b[2])<<8 | int32(b[3]))
		if op != wire.OpDummy {
			return op, nil
		}
	}
}

// expectOpcode reads the next opcode and fails with *fberr.InternalError
// unless it equals want or op_response (which always carries a status
// vector and may itself represent a failure to decode).
func expectOpcode(ch *wire.Channel, want wire.Opcode) (wire.Opcode, error) {
	op, err := readOpcode(ch)
	if err != nil {
		return 0, err
	}
	if op != want && op != wire.OpResponse {
		return 0, &fberr.InternalError{Op: want.String(), Got: int32(op), Want: int32(want)}
	}
	return op, nil
}

// OpResponse is the decoded payload of op_response.
type OpResponse struct {
	Handle   int32
	ObjectID [8]byte
	Buffer   []byte
	Status   status.Vector
}

// readOpResponse reads and decodes one op_response frame. The opcode word
// itself must already have been consumed by the caller (via expectOpcode).
func readOpResponse(ch *wire.Channel) (*OpResponse, error) {
	head, err := ch.RecvExact(16, false)
	if err != nil {
		return nil, err
	}

	resp := &OpResponse{
		Handle: be32(head[0:4]),
	}
	copy(resp.ObjectID[:], head[4:12])
	bufLen := be32(head[12:16])

	buf, err := ch.RecvExact(int(bufLen), true)
	if err != nil {
		return nil, err
	}
	resp.Buffer = buf

	v, err := status.Parse(chanReader{ch})
	if err != nil {
		return nil, err
	}
	resp.Status = v

	if v.HasError() {
		return resp, &fberr.StatusError{
			GDSCodes: v.GDSCodes,
			SQLCode:  v.SQLCode,
			Message:  v.Message,
			SQLState: v.SQLState,
		}
	}
	return resp, nil
}

// ExpectResponse reads the next opcode (skipping dummies) and, once it is
// op_response, decodes and validates it. Used by operations whose only
// reply shape is op_response (attach, detach, transaction, commit, ...).
func ExpectResponse(ch *wire.Channel) (*OpResponse, error) {
	op, err := readOpcode(ch)
	if err != nil {
		return nil, err
	}
	if op != wire.OpResponse {
		return nil, &fberr.InternalError{Op: "op_response", Got: int32(op), Want: int32(wire.OpResponse)}
	}
	return readOpResponse(ch)
}

// Row is one decoded row: column values in select-list order.
type Row []any

// FetchResult is the decoded payload of op_fetch_response.
type FetchResult struct {
	Rows     []Row
	MoreRows bool
}

// readRow reads one row's worth of column values: per column, an optional
// length word (negative io_length), the value bytes with word alignment,
// and the 4-byte null indicator (all zero means present).
func readRow(ch *wire.Channel, cols []ColumnDescriptor) (Row, error) {
	row := make(Row, len(cols))
	for ci, col := range cols {
		n := col.IOLength()
		if n < 0 {
			lenBuf, err := ch.RecvExact(4, false)
			if err != nil {
				return nil, err
			}
			n = int(be32(lenBuf))
		}
		raw, err := ch.RecvExact(n, true)
		if err != nil {
			return nil, err
		}

		nullBuf, err := ch.RecvExact(4, false)
		if err != nil {
			return nil, err
		}
		if be32(nullBuf) != 0 {
			row[ci] = nil
			continue
		}
		val, err := col.DecodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("fbclient: decode column %d: %w", ci, err)
		}
		row[ci] = val
	}
	return row, nil
}

// FetchRows decodes a pending op_fetch_response frame whose opcode word
// the caller already consumed: a status/count header,
// then rows while count is nonzero, each row followed by a 12-byte
// trailer re-supplying (opcode, status, count) for the next iteration.
// MoreRows is the final trailer's status != 100.
func FetchRows(ch *wire.Channel, cols []ColumnDescriptor) (*FetchResult, error) {
	head, err := ch.RecvExact(8, false)
	if err != nil {
		return nil, err
	}
	fetchStatus := be32(head[0:4])
	count := be32(head[4:8])

	result := &FetchResult{}
	for count != 0 {
		row, err := readRow(ch, cols)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)

		trailerBuf, err := ch.RecvExact(12, false)
		if err != nil {
			return nil, err
		}
		fetchStatus = be32(trailerBuf[4:8])
		count = be32(trailerBuf[8:12])
	}

	result.MoreRows = fetchStatus != 100
	return result, nil
}

// SQLResponse reads a pending op_sql_response frame: a
// single 4-byte count word, then at most one tuple, no trailer.
func SQLResponse(ch *wire.Channel, cols []ColumnDescriptor) (*FetchResult, error) {
	head, err := ch.RecvExact(4, false)
	if err != nil {
		return nil, err
	}
	count := be32(head)

	result := &FetchResult{}
	if count == 0 {
		return result, nil
	}

	row, err := readRow(ch, cols)
	if err != nil {
		return nil, err
	}
	result.Rows = append(result.Rows, row)
	return result, nil
}

// EventRecord is one [name, counter] pair from an op_event payload.
type EventRecord struct {
	Name    string
	Counter uint32
}

// EventFrame is the decoded payload of op_event.
type EventFrame struct {
	DBHandle int32
	EventID  int32
	Counts   map[string]uint32
}

// readOpEvent decodes an op_event frame: db handle, then a length-prefixed
// 4-padded payload starting with version byte 1, then
// [name_len, name_bytes, 4-byte counter] records, then 8 bytes of AST
// metadata and a 4-byte event id.
func readOpEvent(ch *wire.Channel) (*EventFrame, error) {
	head, err := ch.RecvExact(4, false)
	if err != nil {
		return nil, err
	}
	dbHandle := be32(head)

	payload, err := xdr.ReadOpaque(chanReader{ch})
	if err != nil {
		return nil, fmt.Errorf("fbclient: read event payload: %w", err)
	}

	counts := make(map[string]uint32)
	if len(payload) > 0 {
		p := payload[1:] // skip version byte
		for len(p) > 0 {
			nameLen := int(p[0])
			if 1+nameLen+4 > len(p) {
				break
			}
			name := string(p[1 : 1+nameLen])
			counterOffset := 1 + nameLen
			counter := be32(p[counterOffset : counterOffset+4])
			counts[name] = uint32(counter)
			p = p[counterOffset+4:]
		}
	}

	tail, err := ch.RecvExact(8+4, false)
	if err != nil {
		return nil, err
	}
	eventID := be32(tail[8:12])

	return &EventFrame{DBHandle: dbHandle, EventID: eventID, Counts: counts}, nil
}

func be32(b []byte) int32 {
	return int32(b[0])<<24 | int32(b[1])<<16 | int32(b[2])<<8 | int32(b[3])
}

var _ io.Reader = chanReader{}
