package checkvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripSha256(t *testing.T) {
	cv, err := Compute(Sha256, []byte("load payload"))
	require.NoError(t, err)
	require.Len(t, cv.Payload, 32)

	raw, err := Encode(cv)
	require.NoError(t, err)

	decoded, rest, err := Decode(raw)
	require.NoError(t, err)
	require.Empty(t, rest, "unexpected trailing bytes")
	require.Equal(t, Sha256, decoded.Type)
	require.Equal(t, cv.Payload, decoded.Payload)
}

func TestNoneEncodesToTwoZeroBytes(t *testing.T) {
	raw, err := Encode(None)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00}, raw)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	cv, err := Compute(Crc32, []byte("original"))
	require.NoError(t, err)
	require.Error(t, Verify(cv, []byte("tampered")), "Verify should fail for tampered data")
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	_, _, err := Decode([]byte{0x00})
	require.Error(t, err, "Decode should reject a 1-byte buffer")
}
