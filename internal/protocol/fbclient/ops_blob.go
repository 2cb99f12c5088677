package fbclient

import (
	"errors"

	"github.com/veyronfb/fbwire/internal/protocol/blr"
	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

var errUnknownBlob = errors.New("blob id not open on this session")

// CreateBlob issues op_create_blob2, allocating a new BLOB scoped to
// transHandle. Session implements blr.BlobSpiller through this method plus
// PutSegment/CloseBlob so the BLR encoder can spill oversize byte strings
// without importing fbclient.
func (s *Session) CreateBlob(transHandle int32) (blr.BlobID, error) {
	if err := s.requireDBHandle(); err != nil {
		return blr.BlobID{}, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpCreateBlob2))
	buf.int32(0) // blob type/subtype, default
	buf.int32(transHandle)
	buf.int32(0) // blob handle: server assigns
	buf.int32(0) // bpb length: none

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return blr.BlobID{}, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("create_blob2", err)
	if err != nil {
		return blr.BlobID{}, err
	}

	var id blr.BlobID
	copy(id[:], resp.ObjectID[:])
	s.blobHandles[id] = resp.Handle
	return id, nil
}

// PutSegment issues op_put_segment, appending segment to the open BLOB id.
// The segment length appears twice on the wire (a total-length word, then
// the segment's own length prefix) and the bytes are zero-padded to the
// next word boundary.
func (s *Session) PutSegment(id blr.BlobID, segment []byte) error {
	handle, ok := s.blobHandles[id]
	if !ok {
		return fberr.NewOperational("put_segment", errUnknownBlob)
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpPutSegment))
	buf.int32(handle)
	buf.int32(int32(len(segment)))
	buf.opaque(segment)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("put_segment", err)
	return err
}

// BatchSegments issues op_batch_segments, the bulk variant of PutSegment:
// the payload carries its own 2-byte little-endian segment length inside
// the doubled outer length words, zero-padded to the next word boundary.
func (s *Session) BatchSegments(id blr.BlobID, segData []byte) error {
	handle, ok := s.blobHandles[id]
	if !ok {
		return fberr.NewOperational("batch_segments", errUnknownBlob)
	}

	ln := len(segData)
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpBatchSegments))
	buf.int32(handle)
	buf.int32(int32(ln + 2))
	buf.int32(int32(ln + 2))
	buf.raw([]byte{byte(ln), byte(ln >> 8)})
	buf.raw(segData)
	if pad := (4 - ((ln + 2) % 4)) & 3; pad > 0 {
		buf.raw(make([]byte, pad))
	}

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("batch_segments", err)
	return err
}

// CloseBlob issues op_close_blob, ending the BLOB write or read.
func (s *Session) CloseBlob(id blr.BlobID) error {
	handle, ok := s.blobHandles[id]
	if !ok {
		return fberr.NewOperational("close_blob", errUnknownBlob)
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpCloseBlob))
	buf.int32(handle)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("close_blob", err)
	delete(s.blobHandles, id)
	return err
}

// OpenBlob issues op_open_blob, opening an existing BLOB (e.g. one read
// back from a fetched column) for segment reads.
func (s *Session) OpenBlob(transHandle int32, id blr.BlobID) error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpOpenBlob))
	buf.int32(transHandle)
	buf.raw(id[:])

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("open_blob", err)
	if err != nil {
		return err
	}
	s.blobHandles[id] = resp.Handle
	return nil
}

// GetSegment issues op_get_segment, reading up to bufferSize bytes of a
// previously opened BLOB. moreSegments reports whether the server has more
// data to deliver (a zero-length reply buffer with status 0 signals the
// final call already drained the BLOB).
func (s *Session) GetSegment(id blr.BlobID, bufferSize int32) (segment []byte, moreSegments bool, err error) {
	handle, ok := s.blobHandles[id]
	if !ok {
		return nil, false, fberr.NewOperational("get_segment", errUnknownBlob)
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpGetSegment))
	buf.int32(handle)
	buf.int32(bufferSize)
	buf.opaque(nil)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, false, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("get_segment", err)
	if err != nil {
		return nil, false, err
	}

	// resp.Handle carries the "is_handle" status flag (2 == more segments
	// pending, 1 == last segment in this reply, 0 == end of blob); the
	// segment payload is itself a sequence of [len, bytes] runs packed
	// into resp.Buffer, but callers needing only raw bytes can read the
	// buffer directly.
	return resp.Buffer, resp.Handle == 2, nil
}
