package fbclient

import (
	"bytes"

	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

// packetBuilder assembles an outbound request packet: an opcode word
// followed by a sequence of XDR-encoded fields. Every request issuer in
// this package builds its packet through one of these before calling
// Channel.SendAll, so a request reaches the socket as one buffered write.
type packetBuilder struct {
	buf bytes.Buffer
}

func newPacketBuilder() *packetBuilder {
	return &packetBuilder{}
}

func (b *packetBuilder) int32(v int32) *packetBuilder {
	_ = xdr.WriteInt32(&b.buf, v)
	return b
}

func (b *packetBuilder) str(s string) *packetBuilder {
	_ = xdr.WriteString(&b.buf, s)
	return b
}

func (b *packetBuilder) opaque(data []byte) *packetBuilder {
	_ = xdr.WriteOpaque(&b.buf, data)
	return b
}

func (b *packetBuilder) raw(data []byte) *packetBuilder {
	b.buf.Write(data)
	return b
}

func (b *packetBuilder) Bytes() []byte {
	return b.buf.Bytes()
}
