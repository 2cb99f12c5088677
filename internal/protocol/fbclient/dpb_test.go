package fbclient

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veyronfb/fbwire/internal/protocol/auth"
)

func TestPasswordModeFor(t *testing.T) {
	assert.Equal(t, passwordPlain, passwordModeFor(10))
	assert.Equal(t, passwordEncrypted, passwordModeFor(11))
	assert.Equal(t, passwordEncrypted, passwordModeFor(12))
	assert.Equal(t, passwordOmitted, passwordModeFor(13))
}

func TestBuildAttachDPBPlainPassword(t *testing.T) {
	dpb := buildAttachDPB("UTF8", "SYSDBA", "masterkey", "", passwordPlain)

	assert.Equal(t, byte(dpbVersion1), dpb[0])
	assert.True(t, bytes.Contains(dpb, []byte("SYSDBA")))
	assert.True(t, bytes.Contains(dpb, []byte("masterkey")))
	assert.True(t, bytes.Contains(dpb, []byte("UTF8")))
}

func TestBuildAttachDPBEncryptedPassword(t *testing.T) {
	dpb := buildAttachDPB("UTF8", "SYSDBA", "masterkey", "", passwordEncrypted)

	assert.False(t, bytes.Contains(dpb, []byte("masterkey")), "plaintext password must not appear")
	assert.True(t, bytes.Contains(dpb, []byte(auth.CryptPassword("masterkey"))))
}

func TestBuildAttachDPBOmitsPasswordAtProtocol13(t *testing.T) {
	dpb := buildAttachDPB("UTF8", "SYSDBA", "masterkey", "", passwordOmitted)

	assert.False(t, bytes.Contains(dpb, []byte("masterkey")))
	assert.False(t, bytes.Contains(dpb, []byte(auth.CryptPassword("masterkey"))))
}

func TestBuildAttachDPBRole(t *testing.T) {
	withRole := buildAttachDPB("UTF8", "u", "p", "AUDITOR", passwordPlain)
	withoutRole := buildAttachDPB("UTF8", "u", "p", "", passwordPlain)

	assert.True(t, bytes.Contains(withRole, []byte("AUDITOR")))
	assert.Less(t, len(withoutRole), len(withRole))
}

func TestBuildCreateDPBCarriesCreateOptions(t *testing.T) {
	dpb := buildCreateDPB("UTF8", "u", "p", "", passwordPlain, 8192)

	assert.Equal(t, byte(dpbVersion1), dpb[0])
	// Create-time options ride as little-endian TLV32s at the tail:
	// dialect 3, force-write 1, overwrite 1, then the page size.
	assert.True(t, bytes.Contains(dpb, []byte{dpbSQLDialect, 4, 3, 0, 0, 0}))
	assert.True(t, bytes.Contains(dpb, []byte{dpbPageSize, 4, 0, 0x20, 0, 0}))
}
