package fbclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veyronfb/fbwire/internal/protocol/charset"
)

// TestNewTextColumnDecodesThroughCharset confirms a column built with
// NewTextColumn round-trips a non-UTF8-encoded column value back to the
// original UTF-8 string, the read-side mirror of blr.Encode's charset-aware
// param.Text encoding.
func TestNewTextColumnDecodesThroughCharset(t *testing.T) {
	cs, err := charset.Lookup("WIN1252")
	require.NoError(t, err)

	col := NewTextColumn(cs)
	require.Equal(t, -1, col.IOLength())

	encoded, err := cs.EncodeText("café")
	require.NoError(t, err)

	decoded, err := col.DecodeValue(encoded)
	require.NoError(t, err)
	require.Equal(t, "café", decoded)
}

// TestNewTextColumnNilCharsetPassesThrough confirms a nil *charset.Charset
// decodes bytes unchanged, matching charset.Charset's nil-receiver
// passthrough semantics (NONE/OCTETS resolve to a non-nil Charset whose
// nil encoding passes bytes through the same way).
func TestNewTextColumnNilCharsetPassesThrough(t *testing.T) {
	col := NewTextColumn(nil)
	decoded, err := col.DecodeValue([]byte("raw bytes"))
	require.NoError(t, err)
	require.Equal(t, "raw bytes", decoded)
}
