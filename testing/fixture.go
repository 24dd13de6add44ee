// Package testing provides helpers for building synthetic ext-style device
// images in tests, adapted from the teacher's own testing.CreateRandomImage
// helper (previously testing/images.go) for this tool's on-disk structures.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteDeviceImage writes raw to a temp file sized exactly len(raw) bytes
// and returns its path, ready to be passed to recovery.Init (which expects
// a real path it can open and mmap).
func WriteDeviceImage(t *testing.T, raw []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "device.img")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write(raw)
	require.NoError(t, err)
	return path
}
