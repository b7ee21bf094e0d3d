package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// buildSpec is the JSON shape every build-* subcommand reads. Fields not
// relevant to a given subcommand are simply ignored, so one spec file can
// describe the input for any of them.
type buildSpec struct {
	ContentID   string           `json:"contentId"`
	ContentKeys []contentKeySpec `json:"contentKeys"`
	KeyPeriods  []keyPeriodSpec  `json:"keyPeriods"`
	Recipients  []recipientSpec  `json:"recipients"`
}

type contentKeySpec struct {
	// Kid is a dashed or undashed GUID. Left empty, a fresh one is minted
	// the same way --generate-kid does.
	Kid string `json:"kid"`
	// KeyValueHex and KeyValueBase64 are alternate encodings of the 16-byte
	// clear content key; exactly one should be set.
	KeyValueHex    string          `json:"keyValueHex"`
	KeyValueBase64 string          `json:"keyValueBase64"`
	DRMSystems     []drmSystemSpec `json:"drmSystems"`
	UsageRules     []usageRuleSpec `json:"usageRules"`
}

type drmSystemSpec struct {
	SystemID              string `json:"systemId"`
	ContentProtectionData string `json:"contentProtectionDataBase64"`
	PSSH                  string `json:"psshBase64"`
	HLSSignalingMaster    string `json:"hlsSignalingMasterBase64"`
	HLSSignalingMedia     string `json:"hlsSignalingMediaBase64"`
	HDSSignalingData      string `json:"hdsSignalingDataBase64"`
	SmoothStreamingData   string `json:"smoothStreamingDataBase64"`
	URIExtXKey            string `json:"uriExtXKeyBase64"`
}

type usageRuleSpec struct {
	LabelFilters   []string          `json:"labelFilters"`
	KeyPeriodIDs   []string          `json:"keyPeriodIds"`
	VideoFilters   []videoFilterSpec `json:"videoFilters"`
	AudioFilters   []audioFilterSpec `json:"audioFilters"`
	BitrateFilters []bitrateSpec     `json:"bitrateFilters"`
}

type videoFilterSpec struct {
	MinPixels int `json:"minPixels"`
	MaxPixels int `json:"maxPixels"`
}

type audioFilterSpec struct {
	MinChannels int `json:"minChannels"`
	MaxChannels int `json:"maxChannels"`
}

type bitrateSpec struct {
	MinBps int `json:"minBps"`
	MaxBps int `json:"maxBps"`
}

type keyPeriodSpec struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type recipientSpec struct {
	// CertDERBase64 is the recipient's X.509 certificate, DER-encoded.
	CertDERBase64 string `json:"certDerBase64"`
}

// resolveKid returns spec's kid decoded to 16 bytes, minting a fresh one if
// spec left it empty.
func resolveKid(kid string) ([]byte, error) {
	if kid == "" {
		id := uuid.New()
		return id[:], nil
	}
	return decodeGUID(kid)
}

func decodeGUID(s string) ([]byte, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid kid %q: %w", s, err)
	}
	return id[:], nil
}

func decodeKeyValue(spec contentKeySpec) ([]byte, error) {
	switch {
	case spec.KeyValueHex != "":
		return hex.DecodeString(spec.KeyValueHex)
	case spec.KeyValueBase64 != "":
		return base64.StdEncoding.DecodeString(spec.KeyValueBase64)
	default:
		return nil, fmt.Errorf("content key %q: keyValueHex or keyValueBase64 is required", spec.Kid)
	}
}

func decodeB64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
