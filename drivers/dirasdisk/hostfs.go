package dirasdisk

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// HostStatus classifies the outcome of looking up a host file.
type HostStatus int

const (
	// HostFound means the file exists and its metadata was read.
	HostFound HostStatus = iota
	// HostNotFound means the file doesn't exist. This is expected whenever a
	// file is deleted on the host.
	HostNotFound
	// HostFailed means the lookup failed for some other reason. The error is
	// worth reporting.
	HostFailed
)

func (s HostStatus) String() string {
	switch s {
	case HostFound:
		return "found"
	case HostNotFound:
		return "not found"
	default:
		return "failed"
	}
}

// HostFileInfo is the result of looking up a host file.
type HostFileInfo struct {
	Status HostStatus
	Info   os.FileInfo
	Err    error
}

// statHost looks up the host file at `path`.
func statHost(fs afero.Fs, path string) HostFileInfo {
	info, err := fs.Stat(path)
	switch {
	case err == nil:
		return HostFileInfo{Status: HostFound, Info: info}
	case errors.Is(err, os.ErrNotExist):
		return HostFileInfo{Status: HostNotFound, Err: err}
	default:
		return HostFileInfo{Status: HostFailed, Err: err}
	}
}
