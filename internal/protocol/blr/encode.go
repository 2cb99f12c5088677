// Package blr implements the BLR parameter encoder: it
// translates a slice of dynamically typed parameter values into a BLR tag
// descriptor plus a parallel value buffer, spilling oversize byte strings
// into a streamed BLOB via the supplied BlobSpiller.
package blr

import (
	"bytes"
	"fmt"
	"math"

	"github.com/veyronfb/fbwire/internal/protocol/charset"
	"github.com/veyronfb/fbwire/internal/protocol/param"
	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

// MaxCharLength is the largest byte-string length encoded inline in the
// value buffer; longer strings are spilled to a BLOB.
const MaxCharLength = 32767

// BlobSegmentSize is the maximum payload of a single put_segment call
// during BLOB spill.
const BlobSegmentSize = 32000

// BlobID is an 8-byte BLOB identifier returned by create_blob2 and threaded
// through put_segment/close_blob.
type BlobID [8]byte

// BlobSpiller issues the create_blob2/put_segment/close_blob wire
// operations a BLR encoder needs when a byte string exceeds MaxCharLength.
// fbclient.Session implements this; the blr package depends only on the
// interface to avoid an import cycle with the operation issuer.
type BlobSpiller interface {
	CreateBlob(transHandle int32) (BlobID, error)
	PutSegment(id BlobID, segment []byte) error
	CloseBlob(id BlobID) error
}

// BLR tag bytes.
const (
	tagText   = 14
	tagBlob   = 9
	tagLong   = 8
	tagInf    = 10
	tagFixed  = 16
	tagDate   = 12
	tagTime   = 13
	tagTime64 = 35 // blr_timestamp
	tagBool   = 23
	tagNull   = 7 // null-indicator tag, follows every value
	blrEOC    = 255
	blrEnd    = 76
)

// blrPreludeHead starts every descriptor: version, max_blr_version2,
// blr_message, message-number 0. Encode follows it with the 2-byte
// little-endian parameter-slot count.
var blrPreludeHead = []byte{5, 2, 4, 0}

// Encode builds the BLR descriptor and value buffer for values, issuing
// transHandle-scoped BLOB spills through spiller as needed. cs transcodes
// param.Text values from UTF-8 into the session's negotiated Firebird
// charset before they are written to the value buffer; a nil cs leaves
// text bytes unchanged.
func Encode(transHandle int32, values []param.Value, spiller BlobSpiller, cs *charset.Charset) (blrDescriptor []byte, valueBuffer []byte, err error) {
	blrBuf := new(bytes.Buffer)
	valBuf := new(bytes.Buffer)

	blrBuf.Write(blrPreludeHead)
	slots := uint16(len(values) * 2)
	blrBuf.WriteByte(byte(slots & 0xff))
	blrBuf.WriteByte(byte(slots >> 8))

	for _, v := range values {
		if err := encodeOne(blrBuf, valBuf, transHandle, v, spiller, cs); err != nil {
			return nil, nil, err
		}
	}

	blrBuf.WriteByte(blrEOC)
	blrBuf.WriteByte(blrEnd)

	return blrBuf.Bytes(), valBuf.Bytes(), nil
}

func encodeOne(blrBuf, valBuf *bytes.Buffer, transHandle int32, v param.Value, spiller BlobSpiller, cs *charset.Charset) error {
	isNull := false

	switch val := v.(type) {
	case param.Null:
		isNull = true
		blrBuf.WriteByte(tagText)
		blrBuf.WriteByte(0)
		blrBuf.WriteByte(0)

	case param.Text:
		encoded, err := cs.EncodeText(string(val))
		if err != nil {
			return err
		}
		if err := encodeBytes(blrBuf, valBuf, transHandle, encoded, spiller); err != nil {
			return err
		}

	case param.Bytes:
		if err := encodeBytes(blrBuf, valBuf, transHandle, []byte(val), spiller); err != nil {
			return err
		}

	case param.Int:
		blrBuf.WriteByte(tagLong)
		blrBuf.WriteByte(0)
		if err := xdr.WriteInt32(valBuf, int32(val)); err != nil {
			return err
		}

	case param.Float:
		if math.IsInf(float64(val), 1) {
			blrBuf.WriteByte(tagInf)
			valBuf.Write([]byte{0x7f, 0x80, 0x00, 0x00})
		} else {
			if err := encodeDecimal(blrBuf, valBuf, decimalFromFloat(float64(val))); err != nil {
				return err
			}
		}

	case param.Decimal:
		if err := encodeDecimal(blrBuf, valBuf, val); err != nil {
			return err
		}

	case param.Date:
		blrBuf.WriteByte(tagDate)
		if err := xdr.WriteInt32(valBuf, EncodeDate(timeOf(val))); err != nil {
			return err
		}

	case param.Time:
		blrBuf.WriteByte(tagTime)
		if err := xdr.WriteInt32(valBuf, EncodeTime(timeOf(val))); err != nil {
			return err
		}

	case param.Timestamp:
		blrBuf.WriteByte(tagTime64)
		t := timeOf(val)
		if err := xdr.WriteInt32(valBuf, EncodeDate(t)); err != nil {
			return err
		}
		if err := xdr.WriteInt32(valBuf, EncodeTime(t)); err != nil {
			return err
		}

	case param.Bool:
		blrBuf.WriteByte(tagBool)
		if val {
			valBuf.Write([]byte{1, 0, 0, 0})
		} else {
			valBuf.Write([]byte{0, 0, 0, 0})
		}

	case param.Other:
		if err := encodeBytes(blrBuf, valBuf, transHandle, []byte(val), spiller); err != nil {
			return err
		}

	default:
		return fmt.Errorf("blr: unsupported parameter value %T", v)
	}

	// Trailing null-indicator tag and 4-byte presence/absence word.
	blrBuf.WriteByte(tagNull)
	blrBuf.WriteByte(0)
	if isNull {
		valBuf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	} else {
		valBuf.Write([]byte{0, 0, 0, 0})
	}

	return nil
}

func encodeBytes(blrBuf, valBuf *bytes.Buffer, transHandle int32, b []byte, spiller BlobSpiller) error {
	if len(b) > MaxCharLength {
		if spiller == nil {
			return fmt.Errorf("blr: value of %d bytes exceeds MaxCharLength and no BlobSpiller was supplied", len(b))
		}
		id, err := spillBlob(transHandle, b, spiller)
		if err != nil {
			return err
		}
		blrBuf.WriteByte(tagBlob)
		blrBuf.WriteByte(0)
		valBuf.Write(id[:])
		return nil
	}

	n := uint16(len(b))
	blrBuf.WriteByte(tagText)
	blrBuf.WriteByte(byte(n & 0xff))
	blrBuf.WriteByte(byte(n >> 8))
	valBuf.Write(b)
	return xdr.WritePadding(valBuf, len(b))
}

// spillBlob creates a BLOB, streams b in BlobSegmentSize chunks, and closes
// it, returning the 8-byte id that replaces the inline value bytes. The
// BLOB is closed on every exit path, including a failing mid-stream
// put_segment.
func spillBlob(transHandle int32, b []byte, spiller BlobSpiller) (BlobID, error) {
	id, err := spiller.CreateBlob(transHandle)
	if err != nil {
		return BlobID{}, fmt.Errorf("blr: create_blob2: %w", err)
	}

	var putErr error
	for i := 0; i < len(b); i += BlobSegmentSize {
		end := i + BlobSegmentSize
		if end > len(b) {
			end = len(b)
		}
		if putErr = spiller.PutSegment(id, b[i:end]); putErr != nil {
			putErr = fmt.Errorf("blr: put_segment: %w", putErr)
			break
		}
	}

	if err := spiller.CloseBlob(id); err != nil && putErr == nil {
		return BlobID{}, fmt.Errorf("blr: close_blob: %w", err)
	}
	if putErr != nil {
		return BlobID{}, putErr
	}

	return id, nil
}
