package testing

import (
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// HostDirPath is the directory that [NewHostDir] creates.
const HostDirPath = "/host"

// BaseModTime is the modification time given to files by [NewHostDir].
var BaseModTime = time.Date(2021, time.May, 6, 7, 8, 10, 0, time.Local)

// NewHostDir creates an in-memory file system containing an empty directory at
// [HostDirPath].
func NewHostDir(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(HostDirPath, 0o755))
	return fs
}

// WriteHostFile creates or replaces a file in the host directory and sets its
// modification time.
func WriteHostFile(t *testing.T, fs afero.Fs, name string, data []byte, modTime time.Time) {
	path := filepath.Join(HostDirPath, name)
	require.NoErrorf(t, afero.WriteFile(fs, path, data, 0o644), "failed to write %s", path)
	require.NoErrorf(t, fs.Chtimes(path, modTime, modTime), "failed to set times of %s", path)
}

// ReadHostFile returns the contents of a file in the host directory, failing
// the test if it can't be read.
func ReadHostFile(t *testing.T, fs afero.Fs, name string) []byte {
	path := filepath.Join(HostDirPath, name)
	data, err := afero.ReadFile(fs, path)
	require.NoErrorf(t, err, "failed to read %s", path)
	return data
}

// HostFileExists tells whether a file exists in the host directory.
func HostFileExists(t *testing.T, fs afero.Fs, name string) bool {
	exists, err := afero.Exists(fs, filepath.Join(HostDirPath, name))
	require.NoError(t, err)
	return exists
}

// RandomBytes returns `size` random bytes.
func RandomBytes(t *testing.T, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}
