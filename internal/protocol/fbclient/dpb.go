package fbclient

import (
	"github.com/veyronfb/fbwire/internal/protocol/auth"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// Database Parameter Block tags, per Firebird's public ibase.h constants.
const (
	dpbVersion1     = 1
	dpbPageSize     = 4
	dpbForceWrite   = 24
	dpbUserName     = 28
	dpbPassword     = 29
	dpbPasswordEnc  = 30
	dpbOverwrite    = 54
	dpbSQLRoleName  = 60
	dpbSQLDialect   = 63
	dpbSetDBCharset = 68
	dpbLCCType      = 48
)

// Transaction Parameter Block tags.
const (
	tpbVersion3    = 3
	tpbConsistency = 1
	tpbConcurrency = 2
	tpbWait        = 6
	tpbNoWait      = 7
	tpbWrite       = 9
	tpbRead        = 8
)

// passwordMode selects how (or whether) the password rides in the DPB:
// protocol 10 sends it in the clear, 11 and 12 send the crypt(3) hash as
// isc_dpb_password_enc, and 13 omits it entirely (the plugin handshake in
// the connect phase already authenticated the session).
type passwordMode int

const (
	passwordPlain passwordMode = iota
	passwordEncrypted
	passwordOmitted
)

func passwordModeFor(acceptVersion int32) passwordMode {
	switch {
	case acceptVersion <= wire.ProtocolVersion10:
		return passwordPlain
	case acceptVersion < wire.ProtocolVersion13:
		return passwordEncrypted
	default:
		return passwordOmitted
	}
}

func appendPassword(dpb []byte, password string, mode passwordMode) []byte {
	switch mode {
	case passwordPlain:
		return appendTLV(dpb, dpbPassword, []byte(password))
	case passwordEncrypted:
		return appendTLV(dpb, dpbPasswordEnc, []byte(auth.CryptPassword(password)))
	default:
		return dpb
	}
}

// buildAttachDPB builds the DPB for op_attach: charset, user, then the
// password in whatever form the negotiated protocol version calls for,
// then optional role.
func buildAttachDPB(charset, user, password, role string, mode passwordMode) []byte {
	dpb := []byte{dpbVersion1}
	dpb = appendTLV(dpb, dpbLCCType, []byte(charset))
	dpb = appendTLV(dpb, dpbUserName, []byte(user))
	dpb = appendPassword(dpb, password, mode)
	if role != "" {
		dpb = appendTLV(dpb, dpbSQLRoleName, []byte(role))
	}
	return dpb
}

// buildCreateDPB extends buildAttachDPB with create-time options: charset
// for the new database, dialect 3, force-write, overwrite, and page size.
func buildCreateDPB(charset, user, password, role string, mode passwordMode, pageSize int32) []byte {
	dpb := []byte{dpbVersion1}
	dpb = appendTLV(dpb, dpbSetDBCharset, []byte(charset))
	dpb = appendTLV(dpb, dpbLCCType, []byte(charset))
	dpb = appendTLV(dpb, dpbUserName, []byte(user))
	dpb = appendPassword(dpb, password, mode)
	if role != "" {
		dpb = appendTLV(dpb, dpbSQLRoleName, []byte(role))
	}
	dpb = appendTLV32(dpb, dpbSQLDialect, 3)
	dpb = appendTLV32(dpb, dpbForceWrite, 1)
	dpb = appendTLV32(dpb, dpbOverwrite, 1)
	dpb = appendTLV32(dpb, dpbPageSize, pageSize)
	return dpb
}

// defaultTPB is a read-write, concurrency-isolation, wait-on-lock-conflict
// transaction, the common default most callers want.
func defaultTPB() []byte {
	return []byte{tpbVersion3, tpbWrite, tpbConcurrency, tpbWait}
}

func appendTLV(dpb []byte, tag byte, value []byte) []byte {
	dpb = append(dpb, tag, byte(len(value)))
	return append(dpb, value...)
}

func appendTLV32(dpb []byte, tag byte, v int32) []byte {
	dpb = append(dpb, tag, 4)
	return append(dpb, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
