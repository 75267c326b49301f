package dirasdisk

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	dtesting "github.com/dargueta/dirdisk/testing"
	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostDeletionFreesClusters(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "keep.txt", dtesting.RandomBytes(t, 10), dtesting.BaseModTime)
	dtesting.WriteHostFile(t, fs, "gone.txt", dtesting.RandomBytes(t, 4000), dtesting.BaseModTime)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	notifier := NewMockMediaChangeNotifier(ctrl)
	notifier.EXPECT().ForceDiskChange().Times(1)

	disk, sink := newTestDisk(t, fs, WithMediaChangeNotifier(notifier))

	slot := slotForHostFile(t, disk, "gone.txt")
	dirent := disk.image.Dirent(slot)
	owned := disk.fat.Chain(fat12.ClusterID(dirent.StartCluster))
	require.Len(t, owned, 4)

	require.NoError(t, fs.Remove(dtesting.HostDirPath+"/gone.txt"))

	buffer := make([]byte, dirdisk.SectorSize)
	require.NoError(t, disk.ReadSector(2*emuSecond, 0, buffer))

	for _, cluster := range owned {
		assert.Equalf(t, fat12.ClusterFree, disk.fat.Read(cluster), "cluster %d not freed", cluster)
		assert.Equalf(
			t,
			fat12.ClusterFree,
			fat12.ReadEntry(disk.image.FAT(1), cluster),
			"cluster %d not freed in second FAT",
			cluster)
	}

	dirent = disk.image.Dirent(slot)
	assert.True(t, dirent.IsDeleted())
	assert.False(t, disk.index.Get(slot).IsMapped())
	assert.Len(t, disk.Entries(), 1)
	assert.EqualValues(t, 712, disk.FreeClusters())
	assert.Zero(t, sink.Len())
	assertConsistent(t, disk)
}

func TestSyncIsThrottledByEmulatedTime(t *testing.T) {
	fs := dtesting.NewHostDir(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	notifier := NewMockMediaChangeNotifier(ctrl)

	disk, _ := newTestDisk(t, fs, WithMediaChangeNotifier(notifier))
	buffer := make([]byte, dirdisk.SectorSize)

	// The first read compares against time zero.
	require.NoError(t, disk.ReadSector(emuSecond/2, 0, buffer))

	dtesting.WriteHostFile(t, fs, "new.txt", []byte("hello"), dtesting.BaseModTime)

	// Reads keep coming less than a second apart, so nothing happens.
	for now := emuSecond; now < 3*emuSecond; now += emuSecond / 2 {
		require.NoError(t, disk.ReadSector(now, 0, buffer))
	}
	require.NoError(t, disk.PeekSector(0, buffer))
	require.NoError(t, disk.WriteSector(0, buffer))
	assert.Empty(t, disk.Entries())

	// A pause longer than the interval triggers a sync.
	notifier.EXPECT().ForceDiskChange().Times(1)
	require.NoError(t, disk.ReadSector(4*emuSecond, 0, buffer))
	assert.Len(t, disk.Entries(), 1)
}

func TestCustomSyncInterval(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	disk, _ := newTestDisk(t, fs, WithSyncInterval(10*time.Millisecond))
	buffer := make([]byte, dirdisk.SectorSize)

	dtesting.WriteHostFile(t, fs, "new.txt", []byte("hello"), dtesting.BaseModTime)
	require.NoError(t, disk.ReadSector(dirdisk.EmuTime(20*time.Millisecond), 0, buffer))
	assert.Len(t, disk.Entries(), 1)
}

func TestHostModificationShrinksFile(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "data.bin", dtesting.RandomBytes(t, 5000), dtesting.BaseModTime)

	disk, _ := newTestDisk(t, fs)
	assert.EqualValues(t, 708, disk.FreeClusters())

	smaller := dtesting.RandomBytes(t, 500)
	dtesting.WriteHostFile(t, fs, "data.bin", smaller, dtesting.BaseModTime.Add(time.Hour))
	disk.SyncWithHost()

	slot := slotForHostFile(t, disk, "data.bin")
	assert.Equal(t, smaller, fileContents(t, disk, slot))
	assert.EqualValues(t, 712, disk.FreeClusters())

	dirent := disk.image.Dirent(slot)
	assert.EqualValues(t, fat12.FirstDataCluster, dirent.StartCluster, "chain wasn't reused")
	assert.True(t, dtesting.BaseModTime.Add(time.Hour).Equal(dirent.ModTime()))
	assertConsistent(t, disk)
}

func TestHostModificationGrowsFileAroundOtherFiles(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "a.bin", dtesting.RandomBytes(t, 1000), dtesting.BaseModTime)
	dtesting.WriteHostFile(t, fs, "b.bin", dtesting.RandomBytes(t, 1000), dtesting.BaseModTime)

	disk, _ := newTestDisk(t, fs)

	bigger := dtesting.RandomBytes(t, 2500)
	dtesting.WriteHostFile(t, fs, "a.bin", bigger, dtesting.BaseModTime)
	disk.SyncWithHost()

	slot := slotForHostFile(t, disk, "a.bin")
	dirent := disk.image.Dirent(slot)
	assert.Equal(
		t,
		[]fat12.ClusterID{2, 4, 5},
		disk.fat.Chain(fat12.ClusterID(dirent.StartCluster)))
	assert.Equal(t, bigger, fileContents(t, disk, slot))
	assertConsistent(t, disk)
}

func TestSizeChangeAloneTriggersImport(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "a.bin", []byte("1234"), dtesting.BaseModTime)
	disk, _ := newTestDisk(t, fs)

	dtesting.WriteHostFile(t, fs, "a.bin", []byte("123456"), dtesting.BaseModTime)
	disk.SyncWithHost()

	assert.Equal(t, []byte("123456"), fileContents(t, disk, slotForHostFile(t, disk, "a.bin")))
}

func TestDiskFullTruncatesImport(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "a.bin", dtesting.RandomBytes(t, 700*clusterSize), dtesting.BaseModTime)
	second := dtesting.RandomBytes(t, 20*clusterSize+17)
	dtesting.WriteHostFile(t, fs, "b.bin", second, dtesting.BaseModTime)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sink := NewMockWarningSink(ctrl)
	sink.EXPECT().Warn(containsString("virtual disk image full")).Times(1)

	disk, err := New(
		dtesting.HostDirPath,
		WithFs(fs),
		WithWarningSink(sink),
		WithLogger(quietLogger()))
	require.NoError(t, err)

	slot := slotForHostFile(t, disk, "b.bin")
	dirent := disk.image.Dirent(slot)
	assert.EqualValues(t, 13*clusterSize, dirent.Size)
	assert.Equal(t, second[:13*clusterSize], fileContents(t, disk, slot))
	assert.Zero(t, disk.FreeClusters())
	assertConsistent(t, disk)

	// Freeing space lets the next change import the whole file.
	require.NoError(t, fs.Remove(dtesting.HostDirPath+"/a.bin"))
	dtesting.WriteHostFile(t, fs, "b.bin", second, dtesting.BaseModTime.Add(time.Minute))
	disk.SyncWithHost()

	slot = slotForHostFile(t, disk, "b.bin")
	assert.Equal(t, second, fileContents(t, disk, slot))
}

func TestMappedPathReplacedByDirectory(t *testing.T) {
	fs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, fs, "thing", []byte("file"), dtesting.BaseModTime)
	disk, _ := newTestDisk(t, fs)
	require.Len(t, disk.Entries(), 1)

	require.NoError(t, fs.Remove(dtesting.HostDirPath+"/thing"))
	require.NoError(t, fs.Mkdir(dtesting.HostDirPath+"/thing", 0o755))
	disk.SyncWithHost()

	assert.Empty(t, disk.Entries())
	assert.EqualValues(t, 713, disk.FreeClusters())
	assertConsistent(t, disk)
}

// statFailingFs fails every Stat of one path with an error other than "not
// found".
type statFailingFs struct {
	afero.Fs
	failPath string
}

var errStatFailed = errors.New("stat exploded")

func (fs statFailingFs) Stat(name string) (os.FileInfo, error) {
	if name == fs.failPath {
		return nil, &os.PathError{Op: "stat", Path: name, Err: errStatFailed}
	}
	return fs.Fs.Stat(name)
}

func TestStatFailureRemovesEntryWithWarning(t *testing.T) {
	memFs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, memFs, "flaky", []byte("data"), dtesting.BaseModTime)

	fs := &statFailingFs{Fs: memFs}
	disk, sink := newTestDisk(t, fs)
	require.Len(t, disk.Entries(), 1)

	fs.failPath = dtesting.HostDirPath + "/flaky"
	disk.removeDeletedHostFiles()

	assert.Empty(t, disk.Entries())
	require.Equal(t, 1, sink.Len())
	assert.Contains(t, sink.Messages()[0], "stat exploded")
	assertConsistent(t, disk)
}

func TestHostStatusClassification(t *testing.T) {
	memFs := dtesting.NewHostDir(t)
	dtesting.WriteHostFile(t, memFs, "present", []byte("x"), dtesting.BaseModTime)
	fs := statFailingFs{Fs: memFs, failPath: "/host/broken"}

	assert.Equal(t, HostFound, statHost(fs, "/host/present").Status)
	assert.Equal(t, HostNotFound, statHost(fs, "/host/absent").Status)

	lookup := statHost(fs, "/host/broken")
	assert.Equal(t, HostFailed, lookup.Status)
	assert.ErrorIs(t, lookup.Err, errStatFailed)
	assert.Equal(t, "failed", lookup.Status.String())
	assert.Equal(t, "not found", HostNotFound.String())
}
