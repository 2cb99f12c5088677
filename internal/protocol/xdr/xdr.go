// Package xdr implements the External Data Representation rules the Firebird
// wire protocol layers its packets on: big-endian 32-bit integers, and
// length-prefixed byte strings padded with zeros to the next 4-byte boundary.
//
// Firebird's framing departs from RFC 4506 in one place worth calling out:
// the length word in front of a byte string is read back as a signed int32
// (so a negative "length" is representable on the wire) but every caller in
// this codebase compares it numerically against an unsigned byte count. The
// Read/Write pair here always treats it as int32 for that reason.
package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteInt32 encodes a big-endian signed 32-bit integer.
func WriteInt32(buf *bytes.Buffer, v int32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("xdr: write int32: %w", err)
	}
	return nil
}

// ReadInt32 decodes a big-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("xdr: read int32: %w", err)
	}
	return v, nil
}

// WriteUint32 encodes a big-endian unsigned 32-bit integer.
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("xdr: write uint32: %w", err)
	}
	return nil
}

// ReadUint32 decodes a big-endian unsigned 32-bit integer.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("xdr: read uint32: %w", err)
	}
	return v, nil
}

// PadLen returns the number of zero bytes needed to round n up to a multiple of 4.
func PadLen(n int) int {
	return (4 - (n % 4)) % 4
}

// WritePadding emits PadLen(n) zero bytes after a just-written field of length n.
func WritePadding(buf *bytes.Buffer, n int) error {
	if pad := PadLen(n); pad > 0 {
		if _, err := buf.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("xdr: write padding: %w", err)
		}
	}
	return nil
}

// WriteOpaque encodes a length-prefixed, 4-byte-padded byte string: the
// shape used for every BLR buffer, filename, and DPB/SPB payload on the wire.
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	if err := WriteInt32(buf, int32(len(data))); err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("xdr: write opaque data: %w", err)
	}
	return WritePadding(buf, len(data))
}

// WriteString encodes s the same way WriteOpaque encodes bytes.
func WriteString(buf *bytes.Buffer, s string) error {
	return WriteOpaque(buf, []byte(s))
}

// ReadOpaque reads a length-prefixed, 4-padded byte string. The length word
// is read as int32 per the package doc; a negative or corrupt length fails
// immediately rather than attempting a negative-size allocation.
func ReadOpaque(r io.Reader) ([]byte, error) {
	length, err := ReadInt32(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("xdr: negative opaque length %d", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("xdr: read opaque data: %w", err)
	}
	if pad := PadLen(int(length)); pad > 0 {
		var discard [3]byte
		if _, err := io.ReadFull(r, discard[:pad]); err != nil {
			return nil, fmt.Errorf("xdr: read opaque padding: %w", err)
		}
	}
	return data, nil
}

// ReadString reads a length-prefixed, 4-padded string.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadOpaque(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
