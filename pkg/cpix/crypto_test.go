package cpix

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAESCBCNistVector(t *testing.T) {
	key, err := hexToBytes("603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4")
	require.NoError(t, err)
	iv, err := hexToBytes("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	plain, err := hexToBytes("6bc1bee22e409f96e93d7e117393172a")
	require.NoError(t, err)
	wantCipher, err := hexToBytes("f58c4c04d6e5f1ba779eabfb5f7bfbd6")
	require.NoError(t, err)

	block, err := aesCBCEncryptRaw(key, iv, plain)
	require.NoError(t, err)
	require.Equal(t, wantCipher, block)
}

// aesCBCEncryptRaw encrypts a block-aligned plain with aesCBCEncrypt and
// drops the trailing PKCS#7 padding block from the result, so the NIST
// SP 800-38A single-block test vector can be checked byte for byte (CBC
// output for the leading blocks does not depend on the padding block, and
// the standard defines no padding at that layer).
func aesCBCEncryptRaw(key, iv, plain []byte) ([]byte, error) {
	padded, err := aesCBCEncrypt(key, iv, plain)
	if err != nil {
		return nil, err
	}
	return padded[:len(plain)], nil
}

func TestAESCBCRoundTrip(t *testing.T) {
	key, err := randomBytes(32)
	require.NoError(t, err)
	iv, err := randomBytes(16)
	require.NoError(t, err)
	plain := []byte("0123456789abcdef")

	ct, err := aesCBCEncrypt(key, iv, plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, ct)

	pt, err := aesCBCDecrypt(key, iv, ct)
	require.NoError(t, err)
	require.Equal(t, plain, pt)
}

func TestAESCBCZeroIV(t *testing.T) {
	key, err := randomBytes(32)
	require.NoError(t, err)
	plain := []byte("short")
	ct, err := aesCBCEncrypt(key, zeroIV, plain)
	require.NoError(t, err)
	pt, err := aesCBCDecrypt(key, zeroIV, ct)
	require.NoError(t, err)
	require.Equal(t, plain, pt)
}

func TestAESCBCRejectsBadKeyLength(t *testing.T) {
	_, err := aesCBCEncrypt(make([]byte, 16), zeroIV, []byte("x"))
	require.Error(t, err)
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	require.Equal(t, "key", invalidInput.Field)
}

func TestAESCBCRejectsBadIVLength(t *testing.T) {
	key, err := randomBytes(32)
	require.NoError(t, err)
	_, err = aesCBCEncrypt(key, make([]byte, 8), []byte("x"))
	require.Error(t, err)
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	require.Equal(t, "iv", invalidInput.Field)
}

func TestRSAOAEPRoundTripAndModulusMatch(t *testing.T) {
	certDER, err := os.ReadFile("testdata/recipient1_cert.der")
	require.NoError(t, err)
	cert, err := x509ParseDER(certDER)
	require.NoError(t, err)
	pub, err := certPublicKey(cert)
	require.NoError(t, err)

	keyDER, err := os.ReadFile("testdata/recipient1_key.der")
	require.NoError(t, err)
	priv, err := rsaLoadPrivateDER(keyDER)
	require.NoError(t, err)

	require.True(t, rsaModulusEquals(pub, priv))

	docKey, err := randomBytes(32)
	require.NoError(t, err)
	ct, err := rsaOAEPEncrypt(pub, docKey)
	require.NoError(t, err)
	require.Len(t, ct, 256) // 2048-bit modulus

	pt, err := rsaOAEPDecrypt(priv, ct)
	require.NoError(t, err)
	require.Equal(t, docKey, pt)
}

func TestRSAModulusMismatch(t *testing.T) {
	certDER, err := os.ReadFile("testdata/recipient1_cert.der")
	require.NoError(t, err)
	cert, err := x509ParseDER(certDER)
	require.NoError(t, err)
	pub, err := certPublicKey(cert)
	require.NoError(t, err)

	otherKeyDER, err := os.ReadFile("testdata/recipient2_key.der")
	require.NoError(t, err)
	otherPriv, err := rsaLoadPrivateDER(otherKeyDER)
	require.NoError(t, err)

	require.False(t, rsaModulusEquals(pub, otherPriv))
}

func TestRSALoadPEM(t *testing.T) {
	pemBytes, err := os.ReadFile("testdata/recipient1_key.pem")
	require.NoError(t, err)
	priv, err := rsaLoadPrivatePEM(pemBytes)
	require.NoError(t, err)
	require.NotNil(t, priv)

	pubPEM, err := os.ReadFile("testdata/recipient1_pub.pem")
	require.NoError(t, err)
	pub, err := rsaLoadPublicPEM(pubPEM)
	require.NoError(t, err)
	require.True(t, rsaModulusEquals(pub, priv))
}

func TestRSALoadRejectsEmpty(t *testing.T) {
	_, err := rsaLoadPublicDER(nil)
	require.Error(t, err)
	_, err = rsaLoadPrivateDER(nil)
	require.Error(t, err)
	_, err = x509ParseDER(nil)
	require.Error(t, err)
}
