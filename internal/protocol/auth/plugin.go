package auth

import (
	"encoding/hex"
	"fmt"

	"github.com/veyronfb/fbwire/internal/protocol/fberr"
)

// NewSrpRequest begins an Srp negotiation: it generates a fresh client key
// pair and returns the uid-block plugin request carrying the hex-encoded
// client public key as specific_data.
func NewSrpRequest(wireCrypt bool) (*PluginRequest, *ClientKeyPair, error) {
	kp, err := NewClientKeyPair()
	if err != nil {
		return nil, nil, err
	}
	return &PluginRequest{
		PluginName:   "Srp",
		PluginList:   "Srp",
		SpecificData: []byte(kp.PublicHex()),
		WireCrypt:    wireCrypt,
	}, kp, nil
}

// NewLegacyAuthRequest builds the uid-block plugin request for Legacy_Auth:
// specific_data is the crypt(3) hash of password.
func NewLegacyAuthRequest(password string, wireCrypt bool) *PluginRequest {
	return &PluginRequest{
		PluginName:   "Legacy_Auth",
		PluginList:   "Legacy_Auth",
		SpecificData: []byte(CryptPassword(password)),
		WireCrypt:    wireCrypt,
	}
}

// AcceptData is the parsed payload of op_cond_accept/op_accept_data for an
// Srp negotiation: the server salt and public key.
type AcceptData struct {
	ServerSalt      []byte
	ServerPublicKey []byte
}

// ParseSrpAcceptData parses the Srp-specific layout of the accept_data
// blob: a 2-byte little-endian salt length (the one little-endian field in
// an otherwise big-endian protocol), the salt bytes, a 2-byte (ignored)
// key-length field, then the hex-encoded server public key filling the
// rest of the buffer.
func ParseSrpAcceptData(data []byte) (*AcceptData, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("auth: accept_data too short for salt length")
	}
	saltLen := int(data[0]) | int(data[1])<<8
	if len(data) < 2+saltLen+2 {
		return nil, fmt.Errorf("auth: accept_data too short for salt")
	}
	salt := data[2 : 2+saltLen]

	serverKey, err := hex.DecodeString(string(data[4+saltLen:]))
	if err != nil {
		return nil, fmt.Errorf("auth: decode server public key: %w", err)
	}

	return &AcceptData{ServerSalt: salt, ServerPublicKey: serverKey}, nil
}

// RejectUnknownPlugin rejects a plugin name this client does not speak,
// as an *fberr.OperationalError.
func RejectUnknownPlugin(name string) error {
	return fberr.NewOperational("connect", fmt.Errorf("auth: unknown auth plugin %q", name))
}
