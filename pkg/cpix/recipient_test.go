package cpix

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecipientCertificatePEM(t *testing.T) {
	certDER, err := os.ReadFile("testdata/recipient1_cert.der")
	require.NoError(t, err)

	r := &Recipient{DeliveryKey: certDER}
	pemBytes := r.CertificatePEM()
	require.Contains(t, string(pemBytes), "-----BEGIN CERTIFICATE-----")

	decoded, err := pemDecode(pemBytes)
	require.NoError(t, err)
	require.Equal(t, certDER, decoded)
}
