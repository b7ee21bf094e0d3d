package cpix

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
)

// hexToBytes decodes a lowercase hex string with no "0x" prefix.
func hexToBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("cpix: invalid hex %q: %w", s, err)
	}
	return b, nil
}

// bytesToHex encodes octets as lowercase hex with no prefix.
func bytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// base64ToBytes decodes standard-alphabet, padded base64.
func base64ToBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("cpix: invalid base64: %w", err)
	}
	return b, nil
}

// bytesToBase64 encodes octets as standard-alphabet, padded base64.
func bytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// guidToBytes parses a GUID, dashed (8-4-4-4-12) or undashed, into its 16
// raw octets.
func guidToBytes(guid string) ([]byte, error) {
	stripped := strings.ReplaceAll(guid, "-", "")
	b, err := hexToBytes(stripped)
	if err != nil {
		return nil, fmt.Errorf("cpix: invalid guid %q: %w", guid, err)
	}
	if len(b) != 16 {
		return nil, fmt.Errorf("cpix: invalid guid %q: want 16 bytes, got %d", guid, len(b))
	}
	return b, nil
}

// bytesToGUID renders 16 octets as a dashed, lowercase GUID (8-4-4-4-12).
func bytesToGUID(b []byte) string {
	if len(b) != 16 {
		return bytesToHex(b)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hex.EncodeToString(b[0:4]),
		hex.EncodeToString(b[4:6]),
		hex.EncodeToString(b[6:8]),
		hex.EncodeToString(b[8:10]),
		hex.EncodeToString(b[10:16]),
	)
}

// pemHeaderCertificate is the only PEM block type this package emits: CPIX
// identifies recipients by X.509 certificate, never a standalone key.
const pemHeaderCertificate = "CERTIFICATE"

// pemDecode strips a PEM header/footer and returns the decoded DER bytes.
func pemDecode(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("cpix: invalid PEM data")
	}
	return block.Bytes, nil
}

// pemEncode wraps der bytes with a PEM header/footer of the given type.
func pemEncode(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}
