package cpixconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCPIX = `<?xml version="1.0" encoding="UTF-8"?>
<CPIX xmlns="urn:dashif:org:cpix" xmlns:pskc="urn:ietf:params:xml:ns:keyprov:pskc" contentId="movie-1">
<ContentKeyList><ContentKey kid="bd5adf51-cf04-410f-aac3-ec63a69e929e"><Data><Secret><pskc:PlainValue>3iv9lYwafpe0uEmxDc6PSw==</pskc:PlainValue></Secret></Data></ContentKey></ContentKeyList>
</CPIX>`

func writeManifest(t *testing.T, dir string) string {
	t.Helper()
	cpixPath := filepath.Join(dir, "movie.cpix.xml")
	require.NoError(t, os.WriteFile(cpixPath, []byte(sampleCPIX), 0o600))

	manifestPath := filepath.Join(dir, "manifest.json")
	manifestJSON := `{
		"version": "1",
		"entries": [
			{
				"name": "movie-1",
				"cpixFile": "movie.cpix.xml",
				"licenseEndpoints": {
					"widevine": {"licenseURL": "https://example.test/widevine"}
				}
			}
		]
	}`
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestJSON), 0o600))
	return manifestPath
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir)

	manifest, err := ReadManifest(manifestPath)
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 1)

	entry := manifest.GetEntry("movie-1")
	require.NotNil(t, entry)
	require.NotNil(t, entry.Document)
	require.Equal(t, "movie-1", entry.Document.ContentID)
	require.Equal(t, "https://example.test/widevine", entry.Endpoints["widevine"].LicenseURL)

	require.Same(t, entry, manifest.Map["movie-1"])
}

func TestReadManifestMissingCPIXFile(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`{"entries":[{"name":"x"}]}`), 0o600))

	_, err := ReadManifest(manifestPath)
	require.Error(t, err)
}

func TestGetEntryMissing(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir)
	manifest, err := ReadManifest(manifestPath)
	require.NoError(t, err)
	require.Nil(t, manifest.GetEntry("does-not-exist"))
}
