package fbclient

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// TestWaitForEventDemux demultiplexes an op_dummy
// keepalive, then an op_event frame carrying one "TEST" counter of 7 and
// event id 42.
func TestWaitForEventDemux(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		buf := append([]byte{}, be(int32(wire.OpDummy))...)
		buf = append(buf, be(int32(wire.OpEvent))...)
		buf = append(buf, be(3)...) // db handle

		payload := []byte{1}         // version byte
		payload = append(payload, 4) // name length
		payload = append(payload, []byte("TEST")...)
		payload = append(payload, 0, 0, 0, 7) // counter
		buf = append(buf, be(int32(len(payload)))...)
		buf = append(buf, payload...)
		buf = append(buf, 0, 0) // pad 10-byte payload to 12

		buf = append(buf, make([]byte, 8)...) // AST metadata
		buf = append(buf, be(42)...)          // event id
		serverConn.Write(buf)
	}()

	ch := wire.NewChannel(clientConn)
	update, err := WaitForEvent(ch)
	require.NoError(t, err)
	assert.Equal(t, int32(42), update.EventID)
	assert.Equal(t, map[string]uint32{"TEST": 7}, update.Counts)
}

func TestWaitForEventEndOfStream(t *testing.T) {
	for _, op := range []wire.Opcode{wire.OpExit, wire.OpDisconnect} {
		serverConn, clientConn := net.Pipe()

		go func() {
			serverConn.Write(be(int32(op)))
		}()

		ch := wire.NewChannel(clientConn)
		_, err := WaitForEvent(ch)

		var disconnected fberr.DisconnectByPeer
		assert.True(t, errors.As(err, &disconnected), "opcode %v must signal DisconnectByPeer", op)

		serverConn.Close()
		clientConn.Close()
	}
}

func TestWaitForEventUnexpectedOpcodeIsInternal(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		serverConn.Write(be(int32(wire.OpCommit)))
	}()

	ch := wire.NewChannel(clientConn)
	_, err := WaitForEvent(ch)

	var internal *fberr.InternalError
	assert.True(t, errors.As(err, &internal))
}

func TestBuildEventBlockShape(t *testing.T) {
	block := BuildEventBlock([]string{"TEST"})
	want := []byte{1, 4, 'T', 'E', 'S', 'T', 0, 0, 0, 0}
	assert.Equal(t, want, block)
}
