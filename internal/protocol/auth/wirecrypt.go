package auth

import (
	"crypto/cipher"
	"crypto/rc4"
	"fmt"
)

// NewArc4Translator builds the read/write stream ciphers installed on the
// channel once op_crypt("Arc4", "Symmetric") is acknowledged, keyed by the
// SRP session key. Arc4 is RC4 under Firebird's naming;
// stdlib crypto/rc4 implements the identical algorithm.
func NewArc4Translator(sessionKey []byte) (readStream, writeStream cipher.Stream, err error) {
	read, err := rc4.NewCipher(sessionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: arc4 read cipher: %w", err)
	}
	write, err := rc4.NewCipher(sessionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: arc4 write cipher: %w", err)
	}
	return read, write, nil
}
