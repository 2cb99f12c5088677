package wire

import (
	"crypto/cipher"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/veyronfb/fbwire/internal/logger"
	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/pkg/metrics"
)

// Channel is the framed byte channel over a Firebird wire socket:
// length-exact reads with optional word-padding skip, fully buffered
// writes, and a cipher translator that can be installed in place once SRP
// negotiation completes. Not safe for concurrent use.
type Channel struct {
	conn    net.Conn
	timeout time.Duration // 0 means no deadline

	readCipher  cipher.Stream // nil until installed
	writeCipher cipher.Stream

	metrics *metrics.Collector
}

// NewChannel wraps conn in a Channel with no timeout and no cipher installed.
func NewChannel(conn net.Conn) *Channel {
	return &Channel{conn: conn}
}

// SetTimeout configures the read/write deadline applied to each underlying
// I/O call. Zero disables the deadline.
func (c *Channel) SetTimeout(d time.Duration) { c.timeout = d }

// SetMetrics attaches a metrics collector; nil is safe and disables
// instrumentation.
func (c *Channel) SetMetrics(m *metrics.Collector) { c.metrics = m }

// Close closes the underlying connection.
func (c *Channel) Close() error { return c.conn.Close() }

// RecvExact reads precisely n bytes. If align is true and n is not a
// multiple of 4, it reads and discards the 4-(n mod 4) padding bytes that
// follow on the wire. A short read (partial stream closure) or a deadline
// expiry fails as an *fberr.OperationalError.
func (c *Channel) RecvExact(n int, align bool) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.readFull(buf); err != nil {
		return nil, fberr.NewOperational("recv_exact", err)
	}

	if align {
		if pad := n % 4; pad != 0 {
			var discard [3]byte
			if err := c.readFull(discard[:4-pad]); err != nil {
				return nil, fberr.NewOperational("recv_exact: align padding", err)
			}
		}
	}

	if c.metrics != nil {
		c.metrics.BytesRead.Add(float64(n))
	}
	return buf, nil
}

func (c *Channel) readFull(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
	}

	var r io.Reader = c.conn
	if c.readCipher != nil {
		r = &cipherReader{stream: c.readCipher, r: c.conn}
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("connection closed before %d bytes read: %w", len(buf), err)
		}
		return err
	}
	return nil
}

// SendAll writes the full buffer, retrying short writes until complete or
// a write fails.
func (c *Channel) SendAll(data []byte) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fberr.NewOperational("send_all", fmt.Errorf("set write deadline: %w", err))
		}
	}

	var w io.Writer = c.conn
	if c.writeCipher != nil {
		w = &cipherWriter{stream: c.writeCipher, w: c.conn}
	}

	written := 0
	for written < len(data) {
		n, err := w.Write(data[written:])
		if err != nil {
			return fberr.NewOperational("send_all", err)
		}
		written += n
	}

	if c.metrics != nil {
		c.metrics.BytesWritten.Add(float64(len(data)))
	}
	logger.Debug("sent packet", logger.BytesWritten(len(data)))
	return nil
}

// InstallTranslator wraps subsequent reads and writes with the given
// stream ciphers. Once installed, no plaintext byte crosses the socket:
// every RecvExact/SendAll after this call passes through the translators.
func (c *Channel) InstallTranslator(readStream, writeStream cipher.Stream) {
	c.readCipher = readStream
	c.writeCipher = writeStream
}

// cipherReader XORs bytes read from the underlying reader through a
// stateful stream cipher, maintaining cipher state across calls.
type cipherReader struct {
	stream cipher.Stream
	r      io.Reader
}

func (cr *cipherReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

// cipherWriter XORs bytes before handing them to the underlying writer.
type cipherWriter struct {
	stream cipher.Stream
	w      io.Writer
}

func (cw *cipherWriter) Write(p []byte) (int, error) {
	out := make([]byte, len(p))
	cw.stream.XORKeyStream(out, p)

	// Encrypt once, then flush fully: the keystream has already advanced
	// past all of p, so a short underlying write must be retried here
	// rather than by the caller re-encrypting the remainder.
	written := 0
	for written < len(out) {
		n, err := cw.w.Write(out[written:])
		written += n
		if err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}
