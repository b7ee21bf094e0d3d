// Package cpixconfig lets a packager describe a batch of CPIX documents and
// the DRM license servers they deliver to in one JSON manifest, resolved
// into parsed *cpix.CPIXMessage values ready for use.
package cpixconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"

	"github.com/google/cpix-go/pkg/cpix"
)

// Manifest is a batch of named CPIX document entries.
type Manifest struct {
	Version string            `json:"version"`
	Entries []*Entry          `json:"entries"`
	Map     map[string]*Entry `json:"-"`
}

// Entry names one CPIX document on disk and the DRM license endpoints that
// serve its content keys.
type Entry struct {
	// Name identifies this entry within the manifest.
	Name string `json:"name"`
	// Desc is a human-readable description of the entry.
	Desc string `json:"desc,omitempty"`
	// CPIXFile is the path to the CPIX document, relative to the manifest
	// file unless absolute.
	CPIXFile string `json:"cpixFile"`
	// Endpoints maps a DRM system name (e.g. "widevine", "playready",
	// "fairplay") to its license endpoint.
	Endpoints map[string]LicenseEndpoint `json:"licenseEndpoints"`
	// Document is the parsed CPIX document, populated by ReadManifest.
	Document *cpix.CPIXMessage `json:"-"`
}

// LicenseEndpoint is a DRM license server and, for schemes that need it
// (e.g. FairPlay), a certificate server.
type LicenseEndpoint struct {
	LicenseURL     string `json:"licenseURL"`
	CertificateURL string `json:"certURL,omitempty"`
}

// ReadManifest reads and parses the JSON manifest at path, resolving and
// parsing every entry's CPIX document.
func ReadManifest(path string) (*Manifest, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("cpixconfig: read manifest: %w", err)
	}

	manifest := Manifest{
		Map: make(map[string]*Entry),
	}
	if err := k.UnmarshalWithConf("", &manifest, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("cpixconfig: parse manifest: %w", err)
	}

	for _, entry := range manifest.Entries {
		if entry.CPIXFile == "" {
			return nil, fmt.Errorf("cpixconfig: entry %q: cpixFile is required", entry.Name)
		}

		cpixPath := entry.CPIXFile
		if !filepath.IsAbs(cpixPath) {
			cpixPath = filepath.Join(filepath.Dir(path), cpixPath)
		}

		cpixRaw, err := os.ReadFile(cpixPath)
		if err != nil {
			return nil, fmt.Errorf("cpixconfig: entry %q: read CPIX file: %w", entry.Name, err)
		}

		doc, err := cpix.FromString(string(cpixRaw))
		if err != nil {
			return nil, fmt.Errorf("cpixconfig: entry %q: parse CPIX file: %w", entry.Name, err)
		}
		entry.Document = doc
		manifest.Map[entry.Name] = entry
	}

	return &manifest, nil
}

// GetEntry returns the named entry, or nil if no entry by that name exists.
func (m *Manifest) GetEntry(name string) *Entry {
	for _, entry := range m.Entries {
		if entry.Name == name {
			return entry
		}
	}
	return nil
}
