// Package checkvalue implements the ARINC 645 CheckValue type: a tagged
// union of "no check value" and a family of CRC/hash algorithms, each with
// a fixed-size payload, embedded in ARINC 665 supplement 3/4/5 files.
package checkvalue

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/bgrewell/arinc665-kit/pkg/crc"
)

// Type identifies the check-value algorithm.
type Type uint16

// Type codes. These are the values written into the embedded check-value
// "Type" field (§4.9 of the spec). NotUsed never appears on the wire as a
// non-zero-length record; a zero-length record denotes its absence.
const (
	NotUsed Type = 0x0000
	Crc8    Type = 0x0001
	Crc16   Type = 0x0002
	Crc32   Type = 0x0003
	Crc64   Type = 0x0004
	Sha1    Type = 0x0005
	Sha256  Type = 0x0006
	Sha512  Type = 0x0007
)

func (t Type) String() string {
	switch t {
	case NotUsed:
		return "NotUsed"
	case Crc8:
		return "Crc8"
	case Crc16:
		return "Crc16"
	case Crc32:
		return "Crc32"
	case Crc64:
		return "Crc64"
	case Sha1:
		return "Sha1"
	case Sha256:
		return "Sha256"
	case Sha512:
		return "Sha512"
	default:
		return fmt.Sprintf("Type(0x%04X)", uint16(t))
	}
}

// PayloadSize returns the number of bytes the Type's payload occupies, or
// an error if t is not a recognized algorithm.
func PayloadSize(t Type) (int, error) {
	switch t {
	case NotUsed:
		return 0, nil
	case Crc8:
		// The wire payload is always an even number of bytes (per ARINC 645);
		// the 8-bit CRC is padded with a leading zero byte.
		return 2, nil
	case Crc16:
		return 2, nil
	case Crc32:
		return 4, nil
	case Crc64:
		return 8, nil
	case Sha1:
		return 20, nil
	case Sha256:
		return 32, nil
	case Sha512:
		return 64, nil
	default:
		return 0, fmt.Errorf("checkvalue: unknown type 0x%04X", uint16(t))
	}
}

// CheckValue is a computed or stored check value: a Type tag plus its
// payload. The zero value is the NotUsed check value.
type CheckValue struct {
	Type    Type
	Payload []byte
}

// None is the "no check value" instance.
var None = CheckValue{Type: NotUsed}

// Compute calculates the check value of kind t over data.
func Compute(t Type, data []byte) (CheckValue, error) {
	switch t {
	case NotUsed:
		return None, nil
	case Crc8:
		return CheckValue{Type: t, Payload: []byte{0x00, crc.Crc8(data)}}, nil
	case Crc16:
		v := crc.Crc16(data)
		return CheckValue{Type: t, Payload: []byte{byte(v >> 8), byte(v)}}, nil
	case Crc32:
		v := crc.Crc32(data)
		return CheckValue{Type: t, Payload: []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}}, nil
	case Crc64:
		v := crc.Crc64(data)
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (56 - 8*i))
		}
		return CheckValue{Type: t, Payload: buf}, nil
	case Sha1:
		sum := sha1.Sum(data)
		return CheckValue{Type: t, Payload: sum[:]}, nil
	case Sha256:
		sum := sha256.Sum256(data)
		return CheckValue{Type: t, Payload: sum[:]}, nil
	case Sha512:
		sum := sha512.Sum512(data)
		return CheckValue{Type: t, Payload: sum[:]}, nil
	default:
		return CheckValue{}, fmt.Errorf("checkvalue: unknown type 0x%04X", uint16(t))
	}
}

// Verify recomputes the check value of data and compares it against cv.
func Verify(cv CheckValue, data []byte) error {
	computed, err := Compute(cv.Type, data)
	if err != nil {
		return err
	}
	if string(computed.Payload) != string(cv.Payload) {
		return fmt.Errorf("checkvalue: mismatch for type %s", cv.Type)
	}
	return nil
}

// EncodedSize returns the size in bytes of cv's wire encoding, including
// the leading length field (§4.9). A NotUsed check value encodes to just
// the 2-byte length field with value 0.
func EncodedSize(cv CheckValue) (int, error) {
	if cv.Type == NotUsed {
		return 2, nil
	}
	n, err := PayloadSize(cv.Type)
	if err != nil {
		return 0, err
	}
	return 2 + 2 + n, nil
}

// Encode serializes cv per §4.9: u16 total-length (including the length
// field itself) then, if non-zero, u16 type-code and the payload.
func Encode(cv CheckValue) ([]byte, error) {
	if cv.Type == NotUsed {
		return []byte{0x00, 0x00}, nil
	}
	n, err := PayloadSize(cv.Type)
	if err != nil {
		return nil, err
	}
	if len(cv.Payload) != n {
		return nil, fmt.Errorf("checkvalue: payload length %d does not match type %s (want %d)", len(cv.Payload), cv.Type, n)
	}
	total := 2 + 2 + n
	buf := make([]byte, total)
	buf[0] = byte(total >> 8)
	buf[1] = byte(total)
	buf[2] = byte(uint16(cv.Type) >> 8)
	buf[3] = byte(uint16(cv.Type))
	copy(buf[4:], cv.Payload)
	return buf, nil
}

// Decode parses a check value from the front of raw, returning the decoded
// value and the remaining bytes.
func Decode(raw []byte) (CheckValue, []byte, error) {
	if len(raw) < 2 {
		return CheckValue{}, nil, fmt.Errorf("checkvalue: buffer too small for length field")
	}
	total := int(raw[0])<<8 | int(raw[1])
	if total == 0 {
		return None, raw[2:], nil
	}
	if total < 4 || total > len(raw) {
		return CheckValue{}, nil, fmt.Errorf("checkvalue: invalid length %d", total)
	}
	typ := Type(uint16(raw[2])<<8 | uint16(raw[3]))
	n, err := PayloadSize(typ)
	if err != nil {
		return CheckValue{}, nil, err
	}
	if total != 4+n {
		return CheckValue{}, nil, fmt.Errorf("checkvalue: length %d does not match type %s (want %d)", total, typ, 4+n)
	}
	payload := make([]byte, n)
	copy(payload, raw[4:4+n])
	return CheckValue{Type: typ, Payload: payload}, raw[total:], nil
}
