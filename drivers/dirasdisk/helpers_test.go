package dirasdisk

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	dtesting "github.com/dargueta/dirdisk/testing"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterSize = 1024

// emuSecond is one second of emulated time.
const emuSecond = dirdisk.EmuTime(time.Second)

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// newTestDisk creates a virtual disk over the in-memory host directory with
// warnings collected instead of logged.
func newTestDisk(
	t *testing.T, fs afero.Fs, options ...Option,
) (*DirAsDisk, *dirdisk.CollectingWarningSink) {
	sink := &dirdisk.CollectingWarningSink{}
	allOptions := []Option{
		WithFs(fs),
		WithWarningSink(sink),
		WithLogger(quietLogger()),
	}
	allOptions = append(allOptions, options...)

	disk, err := New(dtesting.HostDirPath, allOptions...)
	require.NoError(t, err)
	return disk, sink
}

// fileContents reads the file in `slot` the way the guest would: following the
// chain from the directory entry up to the recorded size.
func fileContents(t *testing.T, disk *DirAsDisk, slot uint) []byte {
	dirent := disk.image.Dirent(slot)
	require.False(t, dirent.IsFree(), "slot %d isn't in use", slot)

	contents := []byte{}
	for _, cluster := range disk.fat.Chain(fat12.ClusterID(dirent.StartCluster)) {
		contents = append(contents, disk.image.Cluster(cluster)...)
	}
	require.GreaterOrEqual(t, len(contents), int(dirent.Size), "chain shorter than file")
	return contents[:dirent.Size]
}

// slotForHostFile returns the directory slot mapped to a host file.
func slotForHostFile(t *testing.T, disk *DirAsDisk, name string) uint {
	slot, found := disk.index.FindByPath(dtesting.HostDirPath + "/" + name)
	require.Truef(t, found, "%s isn't mapped to any slot", name)
	return slot
}

// assertConsistent checks the invariants that must hold between operations:
// a slot is mapped exactly when it's in use, and both FAT copies agree on
// every cluster of every file.
func assertConsistent(t *testing.T, disk *DirAsDisk) {
	mirror := disk.image.FAT(1)
	seenPaths := map[string]uint{}

	for slot := uint(0); slot < disk.index.Len(); slot++ {
		dirent := disk.image.Dirent(slot)
		mapping := disk.index.Get(slot)
		assert.Equalf(
			t,
			!dirent.IsFree(),
			mapping.IsMapped(),
			"slot %d: in use and mapped disagree",
			slot)

		if mapping.IsMapped() {
			other, duplicate := seenPaths[mapping.Path]
			assert.Falsef(
				t, duplicate, "%s mapped by slots %d and %d", mapping.Path, other, slot)
			seenPaths[mapping.Path] = slot
		}

		if dirent.IsFree() {
			continue
		}
		for _, cluster := range disk.fat.Chain(fat12.ClusterID(dirent.StartCluster)) {
			assert.Equalf(
				t,
				disk.fat.Read(cluster),
				fat12.ReadEntry(mirror, cluster),
				"FAT copies disagree on cluster %d",
				cluster)
		}
	}
}

// peekDirectorySector returns a copy of the directory sector holding `slot`,
// and the offset of the slot's entry within it.
func peekDirectorySector(t *testing.T, disk *DirAsDisk, slot uint) (uint, []byte, uint) {
	sector := disk.layout.DirectoryStart() + slot/fat12.DirentsPerSector
	buffer := make([]byte, dirdisk.SectorSize)
	require.NoError(t, disk.PeekSector(sector, buffer))
	return sector, buffer, (slot % fat12.DirentsPerSector) * fat12.DirentSize
}

// containsMatcher matches strings containing a substring.
type containsMatcher struct {
	substring string
}

func containsString(substring string) gomock.Matcher {
	return containsMatcher{substring: substring}
}

func (m containsMatcher) Matches(x interface{}) bool {
	s, ok := x.(string)
	return ok && strings.Contains(s, m.substring)
}

func (m containsMatcher) String() string {
	return fmt.Sprintf("contains %q", m.substring)
}

// faultyFs injects errors into host file operations on chosen paths. Reads
// of a path in readLimit fail once that many bytes have been read.
type faultyFs struct {
	afero.Fs
	openErr   map[string]error
	removeErr map[string]error
	writeErr  map[string]error
	readLimit map[string]int
}

var errInjected = errors.New("injected I/O failure")

func newFaultyFs(t *testing.T) *faultyFs {
	return &faultyFs{
		Fs:        dtesting.NewHostDir(t),
		openErr:   map[string]error{},
		removeErr: map[string]error{},
		writeErr:  map[string]error{},
		readLimit: map[string]int{},
	}
}

func (fs *faultyFs) wrap(name string, file afero.File) afero.File {
	limit, limited := fs.readLimit[name]
	writeErr := fs.writeErr[name]
	if !limited && writeErr == nil {
		return file
	}
	if !limited {
		limit = -1
	}
	return &faultyFile{File: file, readLimit: limit, writeErr: writeErr}
}

func (fs *faultyFs) Open(name string) (afero.File, error) {
	if err := fs.openErr[name]; err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	file, err := fs.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return fs.wrap(name, file), nil
}

func (fs *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := fs.openErr[name]; err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	file, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return fs.wrap(name, file), nil
}

func (fs *faultyFs) Remove(name string) error {
	if err := fs.removeErr[name]; err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	return fs.Fs.Remove(name)
}

type faultyFile struct {
	afero.File
	readLimit int
	bytesRead int
	writeErr  error
}

func (f *faultyFile) Read(p []byte) (int, error) {
	if f.readLimit < 0 {
		return f.File.Read(p)
	}
	available := f.readLimit - f.bytesRead
	if available <= 0 {
		return 0, errInjected
	}
	if len(p) > available {
		p = p[:available]
	}
	n, err := f.File.Read(p)
	f.bytesRead += n
	return n, err
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.File.Write(p)
}

func (f *faultyFile) WriteAt(p []byte, offset int64) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.File.WriteAt(p, offset)
}
