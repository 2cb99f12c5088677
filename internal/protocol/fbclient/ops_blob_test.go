package fbclient

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veyronfb/fbwire/internal/protocol/blr"
	"github.com/veyronfb/fbwire/internal/protocol/param"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// fakeOpResponse builds a minimal op_response frame: handle, an 8-byte
// object id (used as the BLOB id in create_blob2 replies), an empty
// opaque buffer, and a clean (isc_arg_end only) status vector.
func fakeOpResponse(handle int32, objectID [8]byte) []byte {
	buf := append([]byte{}, be(int32(wire.OpResponse))...)
	buf = append(buf, be(handle)...)
	buf = append(buf, objectID[:]...)
	buf = append(buf, be(0)...) // empty buffer
	buf = append(buf, be(0)...) // isc_arg_end
	return buf
}

func newTestSession(conn net.Conn) *Session {
	return &Session{
		ch:          wire.NewChannel(conn),
		state:       StateAttached,
		dbHandle:    7,
		blobHandles: make(map[blr.BlobID]int32),
	}
}

// drainRequests continuously reads and discards whatever the client sends
// on serverConn, so the client's SendAll calls (a direction independent of
// the responses a test writes back) never block on net.Pipe's unbuffered
// synchronization.
func drainRequests(conn net.Conn) {
	go io.Copy(io.Discard, conn)
}

// TestBlobSpillRoundTrip exercises CreateBlob/PutSegment/CloseBlob end to
// end, the wire traffic an oversize-parameter spill issues.
func TestBlobSpillRoundTrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	drainRequests(serverConn)

	objectID := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	go func() {
		serverConn.Write(fakeOpResponse(99, objectID))
		serverConn.Write(fakeOpResponse(0, [8]byte{}))
		serverConn.Write(fakeOpResponse(0, [8]byte{}))
	}()

	s := newTestSession(clientConn)

	id, err := s.CreateBlob(5)
	require.NoError(t, err)
	require.Equal(t, objectID, [8]byte(id))

	require.NoError(t, s.PutSegment(id, []byte("hello blob world")))
	require.NoError(t, s.CloseBlob(id))
}

// TestPutSegmentWireLayout confirms op_put_segment's packet shape: opcode,
// blob handle, the segment length, then the segment as a length-prefixed
// opaque zero-padded to the next word boundary, so the packet stays a
// whole number of 4-byte words even for an odd-length segment.
func TestPutSegmentWireLayout(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	sent := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _ := serverConn.Read(buf)
		sent <- append([]byte{}, buf[:n]...)
		serverConn.Write(fakeOpResponse(0, [8]byte{}))
	}()

	s := newTestSession(clientConn)
	s.blobHandles[blr.BlobID{1, 2, 3, 4, 5, 6, 7, 8}] = 99

	segment := []byte("hello blob world!") // 17 bytes, not a multiple of 4
	require.NoError(t, s.PutSegment(blr.BlobID{1, 2, 3, 4, 5, 6, 7, 8}, segment))

	want := append([]byte{}, be(int32(wire.OpPutSegment))...)
	want = append(want, be(99)...)
	want = append(want, be(int32(len(segment)))...)
	want = append(want, be(int32(len(segment)))...)
	want = append(want, segment...)
	want = append(want, 0, 0, 0) // zero pad to word boundary

	got := <-sent
	require.Equal(t, want, got)
	require.Zero(t, len(got)%4, "packet must be a whole number of 4-byte words")
}

// TestExecuteParamsSpillsOversizeValue confirms ExecuteParams routes a
// byte string bigger than blr.MaxCharLength through the BLOB spill path
// before issuing op_execute.
func TestExecuteParamsSpillsOversizeValue(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	drainRequests(serverConn)

	objectID := [8]byte{9, 9, 9, 9, 9, 9, 9, 9}
	done := make(chan struct{})

	oversizeLen := blr.MaxCharLength + 1
	expectedSegments := (oversizeLen + blr.BlobSegmentSize - 1) / blr.BlobSegmentSize

	go func() {
		defer close(done)
		serverConn.Write(fakeOpResponse(42, objectID)) // create_blob2
		for i := 0; i < expectedSegments; i++ {
			serverConn.Write(fakeOpResponse(0, [8]byte{})) // put_segment response
		}
		serverConn.Write(fakeOpResponse(0, [8]byte{})) // close_blob
		serverConn.Write(fakeOpResponse(0, [8]byte{})) // execute response
	}()

	s := newTestSession(clientConn)
	oversize := make([]byte, oversizeLen)
	for i := range oversize {
		oversize[i] = 'x'
	}

	err := s.ExecuteParams(5, 1, []param.Value{param.Bytes(oversize)})
	require.NoError(t, err)
	<-done
}
