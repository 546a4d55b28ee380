package crc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrc16Deterministic(t *testing.T) {
	a := Crc16([]byte("hello, arinc 665"))
	b := Crc16([]byte("hello, arinc 665"))
	require.Equal(t, a, b, "Crc16 should be deterministic")
}

func TestCrc16DetectsChange(t *testing.T) {
	a := Crc16([]byte("payload-a"))
	b := Crc16([]byte("payload-b"))
	require.NotEqual(t, a, b, "expected different CRCs for different payloads")
}

func TestCrc32LoadCrcOverConcatenation(t *testing.T) {
	data := append([]byte("data-file"), []byte("support-file")...)
	require.Equal(t, Crc32(data), Crc32(append([]byte("data-file"), []byte("support-file")...)),
		"Crc32 should be deterministic over concatenated buffers")
}
