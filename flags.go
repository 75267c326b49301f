package dirdisk

import "os"

const (
	S_IXOTH = 1 << iota
	S_IWOTH = 1 << iota
	S_IROTH = 1 << iota
	S_IXGRP = 1 << iota
	S_IWGRP = 1 << iota
	S_IRGRP = 1 << iota
	S_IXUSR = 1 << iota
	S_IWUSR = 1 << iota
	S_IRUSR = 1 << iota
)

// DefaultHostFileMode is the permission mode given to host files created when
// the guest creates a file on the virtual disk. The umask still applies.
const DefaultHostFileMode = os.FileMode(S_IRUSR | S_IWUSR | S_IRGRP | S_IROTH)

// DefaultImageFileMode is the permission mode for image files written by the
// command line tool.
const DefaultImageFileMode = DefaultHostFileMode
