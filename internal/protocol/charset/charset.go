// Package charset transcodes textual parameters and column values between
// a session's configured Firebird character set and Go's native UTF-8
// strings, using golang.org/x/text/encoding. The DPB still sends the charset
// name itself verbatim (fbclient/dpb.go); this package is what actually
// exercises that name against the bytes flowing through the BLR encoder
// and column decoder.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// byName maps Firebird's wire charset identifiers (ibase.h's CS_* names)
// to the golang.org/x/text encoding that round-trips them. Firebird's
// NONE/OCTETS/ASCII/BINARY charsets carry already-encoded bytes through
// unchanged, so they map to nil (passthrough).
var byName = map[string]encoding.Encoding{
	"NONE":        nil,
	"OCTETS":      nil,
	"ASCII":       nil,
	"BINARY":      nil,
	"UTF8":        unicode.UTF8,
	"UNICODE_FSS": unicode.UTF8,
	"ISO8859_1":   charmap.ISO8859_1,
	"ISO8859_2":   charmap.ISO8859_2,
	"WIN1250":     charmap.Windows1250,
	"WIN1251":     charmap.Windows1251,
	"WIN1252":     charmap.Windows1252,
	"WIN1253":     charmap.Windows1253,
	"WIN1254":     charmap.Windows1254,
	"KOI8R":       charmap.KOI8R,
	"KOI8U":       charmap.KOI8U,
}

// Charset is a resolved Firebird charset name paired with the
// golang.org/x/text encoding that transcodes it, or a nil encoding for the
// byte-transparent charsets (NONE/OCTETS/ASCII/BINARY).
type Charset struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves a Firebird charset name (case-insensitive) to a
// Charset. An empty name is treated as "NONE" (byte-transparent), the
// same default the wire protocol itself uses when no charset is
// negotiated.
func Lookup(name string) (*Charset, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		key = "NONE"
	}
	enc, ok := byName[key]
	if !ok {
		return nil, fmt.Errorf("charset: unknown Firebird charset %q", name)
	}
	return &Charset{name: key, enc: enc}, nil
}

// Name returns the resolved Firebird charset name.
func (c *Charset) Name() string {
	if c == nil {
		return "NONE"
	}
	return c.name
}

// EncodeText transcodes s from UTF-8 into this charset's wire encoding.
// A nil receiver or a byte-transparent charset returns s unchanged.
func (c *Charset) EncodeText(s string) ([]byte, error) {
	if c == nil || c.enc == nil {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("charset: encode to %s: %w", c.name, err)
	}
	return []byte(out), nil
}

// DecodeText transcodes b from this charset's wire encoding into UTF-8. A
// nil receiver or a byte-transparent charset returns b unchanged.
func (c *Charset) DecodeText(b []byte) (string, error) {
	if c == nil || c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("charset: decode from %s: %w", c.name, err)
	}
	return string(out), nil
}
