package status

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

func buildVector(t *testing.T, items ...any) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	for _, it := range items {
		switch x := it.(type) {
		case int32:
			require.NoError(t, xdr.WriteInt32(buf, x))
		case string:
			require.NoError(t, xdr.WriteString(buf, x))
		default:
			t.Fatalf("unsupported item type %T", it)
		}
	}
	require.NoError(t, xdr.WriteInt32(buf, argEnd))
	return buf
}

func TestParseScenarioStatusVectorFailure(t *testing.T) {
	// isc_arg_gds, 335544344, isc_arg_string, 5, "users", isc_arg_end
	buf := buildVector(t, int32(argGDS), int32(335544344), int32(argString), "users")

	v, err := Parse(buf)
	require.NoError(t, err)

	assert.Equal(t, []int32{335544344}, v.GDSCodes)
	assert.Equal(t, int32(0), v.SQLCode)
	assert.Contains(t, v.Message, "users")
	assert.NotContains(t, v.Message, "@1")
}

func TestParsePromotesSQLCode(t *testing.T) {
	buf := buildVector(t, int32(argGDS), int32(sqlCodeGDS), int32(argNumber), int32(-204))

	v, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-204), v.SQLCode)
}

func TestParseSQLState(t *testing.T) {
	buf := buildVector(t, int32(argSQLState), "42000")

	v, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "42000", v.SQLState)
}

// TestParseSQLStateSubstitutesPlaceholder confirms isc_arg_sql_state is
// treated like the other string arguments: besides being recorded, it
// fills the next @N placeholder of the current gds template.
func TestParseSQLStateSubstitutesPlaceholder(t *testing.T) {
	buf := buildVector(t, int32(argGDS), int32(335544569), int32(argSQLState), "42000")

	v, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "42000", v.SQLState)
	assert.Contains(t, v.Message, "42000")
	assert.NotContains(t, v.Message, "@1")
}

func TestParseIdempotentUnderSubstitutionOrder(t *testing.T) {
	// Same (gds_codes, sql_code, message) regardless
	// of which order the isc_arg_number/string substitutions for one gds
	// group are consumed, as long as @1..@k are consumed in order. Here the
	// same encoding is built twice and both parses must agree; no reordered
	// encoding is exercised.
	buf1 := buildVector(t, int32(argGDS), int32(335544344), int32(argString), "tbl", int32(argString), "perm")
	buf2 := buildVector(t, int32(argGDS), int32(335544344), int32(argString), "tbl", int32(argString), "perm")

	v1, err := Parse(buf1)
	require.NoError(t, err)
	v2, err := Parse(buf2)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestHasError(t *testing.T) {
	assert.False(t, Vector{}.HasError())
	assert.True(t, Vector{SQLCode: -204}.HasError())
	assert.True(t, Vector{Message: "boom"}.HasError())
}
