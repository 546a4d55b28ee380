// Package binary implements the big-endian integer, string, and string-list
// codec shared by every ARINC 665 protocol file (spec §4.1, §4.2).
package binary

import (
	"encoding/binary"
	"fmt"
)

// GetUint8 reads a u8 from the front of b, returning its value and the
// remaining bytes.
func GetUint8(b []byte) (uint8, []byte, error) {
	if len(b) < 1 {
		return 0, nil, fmt.Errorf("binary: buffer too small for uint8")
	}
	return b[0], b[1:], nil
}

// GetUint16 reads a big-endian u16 from the front of b.
func GetUint16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, nil, fmt.Errorf("binary: buffer too small for uint16")
	}
	return binary.BigEndian.Uint16(b), b[2:], nil
}

// GetUint32 reads a big-endian u32 from the front of b.
func GetUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("binary: buffer too small for uint32")
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

// PutUint8 appends a u8 to dst.
func PutUint8(dst []byte, v uint8) []byte {
	return append(dst, v)
}

// PutUint16 appends a big-endian u16 to dst.
func PutUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

// PutUint32 appends a big-endian u32 to dst.
func PutUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutUint16At writes a big-endian u16 into dst at offset off, which must
// leave room for 2 bytes.
func PutUint16At(dst []byte, off int, v uint16) {
	_ = dst[off+1] // bounds check
	dst[off] = byte(v >> 8)
	dst[off+1] = byte(v)
}

// PutUint32At writes a big-endian u32 into dst at offset off.
func PutUint32At(dst []byte, off int, v uint32) {
	_ = dst[off+3] // bounds check
	dst[off] = byte(v >> 24)
	dst[off+1] = byte(v >> 16)
	dst[off+2] = byte(v >> 8)
	dst[off+3] = byte(v)
}

// GetUint16At reads a big-endian u16 from b at offset off.
func GetUint16At(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, fmt.Errorf("binary: offset %d out of range for uint16 (len %d)", off, len(b))
	}
	return binary.BigEndian.Uint16(b[off:]), nil
}

// GetUint32At reads a big-endian u32 from b at offset off.
func GetUint32At(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, fmt.Errorf("binary: offset %d out of range for uint32 (len %d)", off, len(b))
	}
	return binary.BigEndian.Uint32(b[off:]), nil
}

// EncodeString encodes s as: u16 length || bytes || optional 1-byte zero
// pad to make the total even (§4.2).
func EncodeString(s string) []byte {
	n := len(s)
	out := make([]byte, 0, 2+n+1)
	out = PutUint16(out, uint16(n))
	out = append(out, s...)
	if n%2 == 1 {
		out = append(out, 0x00)
	}
	return out
}

// DecodeString decodes a string from the front of b, returning it and the
// remaining bytes. It fails if the odd-length pad byte is present and
// non-zero.
func DecodeString(b []byte) (string, []byte, error) {
	n, rest, err := GetUint16(b)
	if err != nil {
		return "", nil, fmt.Errorf("binary: decode string length: %w", err)
	}
	if len(rest) < int(n) {
		return "", nil, fmt.Errorf("binary: buffer too small for string of length %d", n)
	}
	s := string(rest[:n])
	rest = rest[n:]
	if n%2 == 1 {
		if len(rest) < 1 {
			return "", nil, fmt.Errorf("binary: missing fill byte for odd-length string")
		}
		if rest[0] != 0x00 {
			return "", nil, fmt.Errorf("binary: invalid format: fill not zero")
		}
		rest = rest[1:]
	}
	return s, rest, nil
}

// EncodeStrings encodes a list of strings as: u16 count || EncodeString×N.
func EncodeStrings(strs []string) []byte {
	out := make([]byte, 0, 2)
	out = PutUint16(out, uint16(len(strs)))
	for _, s := range strs {
		out = append(out, EncodeString(s)...)
	}
	return out
}

// DecodeStrings decodes a string list from the front of b.
func DecodeStrings(b []byte) ([]string, []byte, error) {
	count, rest, err := GetUint16(b)
	if err != nil {
		return nil, nil, fmt.Errorf("binary: decode string count: %w", err)
	}
	out := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		var s string
		s, rest, err = DecodeString(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("binary: decode string %d of %d: %w", i, count, err)
		}
		out = append(out, s)
	}
	return out, rest, nil
}
