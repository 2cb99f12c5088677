package blr

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyronfb/fbwire/internal/protocol/charset"
	"github.com/veyronfb/fbwire/internal/protocol/param"
)

func TestEncodePreludeAndTrailer(t *testing.T) {
	blrDesc, _, err := Encode(1, []param.Value{param.Int(7)}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(5), blrDesc[0])
	assert.Equal(t, byte(2), blrDesc[1])
	assert.Equal(t, byte(4), blrDesc[2])
	assert.Equal(t, byte(0), blrDesc[3])
	assert.Equal(t, byte(2), blrDesc[4]) // 1 param * 2 slots, low byte
	assert.Equal(t, byte(0), blrDesc[5])

	assert.Equal(t, byte(blrEOC), blrDesc[len(blrDesc)-2])
	assert.Equal(t, byte(blrEnd), blrDesc[len(blrDesc)-1])
}

func TestEncodeInt(t *testing.T) {
	blrDesc, valBuf, err := Encode(1, []param.Value{param.Int(-42)}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(tagLong), blrDesc[6])
	assert.Equal(t, byte(0), blrDesc[7])

	// value buffer: 4-byte int32 followed by 4-byte null indicator.
	require.Len(t, valBuf, 8)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xd6}, valBuf[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, valBuf[4:8])
}

func TestEncodeNull(t *testing.T) {
	_, valBuf, err := Encode(1, []param.Value{param.Null{}}, nil, nil)
	require.NoError(t, err)

	require.Len(t, valBuf, 4)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, valBuf)
}

func TestEncodeTextInline(t *testing.T) {
	blrDesc, valBuf, err := Encode(1, []param.Value{param.Text("hi")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(tagText), blrDesc[6])
	assert.Equal(t, byte(2), blrDesc[7])
	assert.Equal(t, byte(0), blrDesc[8])

	// "hi" padded to 4 bytes, then the 4-byte null indicator.
	require.Len(t, valBuf, 8)
	assert.Equal(t, []byte("hi\x00\x00"), valBuf[0:4])
}

func TestEncodeTextTranscodesThroughCharset(t *testing.T) {
	cs, err := charset.Lookup("WIN1252")
	require.NoError(t, err)

	blrDesc, valBuf, err := Encode(1, []param.Value{param.Text("café")}, nil, cs)
	require.NoError(t, err)

	want, err := cs.EncodeText("café")
	require.NoError(t, err)
	require.Len(t, want, 4) // WIN1252 is single-byte, unlike the 5-byte UTF-8 form

	assert.Equal(t, byte(tagText), blrDesc[6])
	assert.Equal(t, byte(len(want)), blrDesc[7])
	assert.Equal(t, want, valBuf[0:len(want)])
}

func TestEncodeTextExceedingMaxCharLengthWithoutSpillerErrors(t *testing.T) {
	big := make([]byte, MaxCharLength+1)
	_, _, err := Encode(1, []param.Value{param.Bytes(big)}, nil, nil)
	assert.Error(t, err)
}

func TestEncodeBoolean(t *testing.T) {
	_, valBuf, err := Encode(1, []param.Value{param.Bool(true)}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, valBuf)
}

func TestEncodeDecimal(t *testing.T) {
	d := param.Decimal(decimal.New(1234, -2)) // 12.34
	blrDesc, valBuf, err := Encode(1, []param.Value{d}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(tagFixed), blrDesc[6])
	assert.Equal(t, byte(256-2), blrDesc[7]) // negative exponent biased by 256

	require.Len(t, valBuf, 12)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 4, 210}, valBuf[0:8]) // 1234 big-endian
}

// TestEncodeMixedParameterVector checks the exact
// tag and value bytes for [42, "hi", NULL, date(2020-01-01)].
func TestEncodeMixedParameterVector(t *testing.T) {
	values := []param.Value{
		param.Int(42),
		param.Text("hi"),
		param.Null{},
		param.Date(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}

	blrDesc, valBuf, err := Encode(1, values, nil, nil)
	require.NoError(t, err)

	wantTags := []byte{
		8, 0, 7, 0, // int, null indicator
		14, 2, 0, 7, 0, // text len 2, null indicator
		14, 0, 0, 7, 0, // NULL as zero-length text, null indicator
		12, 7, 0, // date, null indicator
	}
	assert.Equal(t, wantTags, blrDesc[6:len(blrDesc)-2])

	julian := EncodeDate(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, int32(58849), julian)

	wantValues := []byte{
		0x00, 0x00, 0x00, 0x2a, // 42
		0x00, 0x00, 0x00, 0x00, // present
		'h', 'i', 0x00, 0x00, // "hi" padded
		0x00, 0x00, 0x00, 0x00, // present
		0xff, 0xff, 0xff, 0xff, // NULL indicator
	}
	wantValues = append(wantValues, byte(julian>>24), byte(julian>>16), byte(julian>>8), byte(julian))
	wantValues = append(wantValues, 0x00, 0x00, 0x00, 0x00) // date present
	assert.Equal(t, wantValues, valBuf)
}

type fakeSpiller struct {
	created  int
	segments [][]byte
	closed   int
	putErr   error
}

func (f *fakeSpiller) CreateBlob(transHandle int32) (BlobID, error) {
	f.created++
	return BlobID{byte(f.created)}, nil
}

func (f *fakeSpiller) PutSegment(id BlobID, segment []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	cp := make([]byte, len(segment))
	copy(cp, segment)
	f.segments = append(f.segments, cp)
	return nil
}

func (f *fakeSpiller) CloseBlob(id BlobID) error {
	f.closed++
	return nil
}

func TestEncodeBytesSpillsOversizeValue(t *testing.T) {
	big := make([]byte, 40000) // exceeds MaxCharLength, spans two BlobSegmentSize chunks
	for i := range big {
		big[i] = byte(i)
	}

	spiller := &fakeSpiller{}
	blrDesc, valBuf, err := Encode(1, []param.Value{param.Bytes(big)}, spiller, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(tagBlob), blrDesc[6])
	assert.Equal(t, 1, spiller.created)
	assert.Equal(t, 1, spiller.closed)
	require.Len(t, spiller.segments, 2)
	assert.Len(t, spiller.segments[0], BlobSegmentSize)
	assert.Len(t, spiller.segments[1], 40000-BlobSegmentSize)

	// value buffer carries the 8-byte blob id, then the null indicator.
	require.Len(t, valBuf, 12)
}

func TestEncodeBytesSpillPropagatesPutSegmentError(t *testing.T) {
	big := make([]byte, MaxCharLength+1)
	spiller := &fakeSpiller{putErr: fmt.Errorf("disk full")}

	_, _, err := Encode(1, []param.Value{param.Bytes(big)}, spiller, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, spiller.closed, "blob must still be closed after a failed put_segment")
}
