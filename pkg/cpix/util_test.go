package cpix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	b, err := hexToBytes("bd5adf51cf04410faac3ec63a69e929e")
	require.NoError(t, err)
	require.Equal(t, "bd5adf51cf04410faac3ec63a69e929e", bytesToHex(b))
}

func TestHexInvalid(t *testing.T) {
	_, err := hexToBytes("not-hex")
	require.Error(t, err)
}

func TestBase64RoundTrip(t *testing.T) {
	b, err := base64ToBytes("3iv9lYwafpe0uEmxDc6PSw==")
	require.NoError(t, err)
	require.Equal(t, "3iv9lYwafpe0uEmxDc6PSw==", bytesToBase64(b))
}

func TestGUIDRoundTrip(t *testing.T) {
	guid := "bd5adf51-cf04-410f-aac3-ec63a69e929e"
	b, err := guidToBytes(guid)
	require.NoError(t, err)
	require.Len(t, b, 16)
	require.Equal(t, guid, bytesToGUID(b))
}

func TestGUIDAcceptsUndashed(t *testing.T) {
	b, err := guidToBytes("bd5adf51cf04410faac3ec63a69e929e")
	require.NoError(t, err)
	require.Equal(t, "bd5adf51-cf04-410f-aac3-ec63a69e929e", bytesToGUID(b))
}

func TestGUIDInvalidLength(t *testing.T) {
	_, err := guidToBytes("bd5adf51-cf04-410f-aac3")
	require.Error(t, err)
}

func TestPEMRoundTrip(t *testing.T) {
	der := []byte("not a real certificate, just der-shaped bytes")
	encoded := pemEncode(pemHeaderCertificate, der)
	require.Contains(t, string(encoded), "-----BEGIN CERTIFICATE-----")

	decoded, err := pemDecode(encoded)
	require.NoError(t, err)
	require.Equal(t, der, decoded)
}
