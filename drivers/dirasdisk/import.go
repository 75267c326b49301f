package dirasdisk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
)

// importToDisk copies the host file mapped to `slot` into the virtual disk.
// `info` is the result of the stat that found the file changed.
//
// The slot's existing cluster chain is reused as far as it goes, and extended
// with free clusters when the file has grown. Whatever is left of the old chain
// afterwards is freed. If the disk fills up or the host file can't be read,
// the import stops early and the directory entry records only the bytes that
// were actually copied. After a read failure the slot is left looking changed
// so that the next sync pass tries again.
func (d *DirAsDisk) importToDisk(slot uint, info os.FileInfo) {
	mapping := d.index.Get(slot)

	dirent := d.image.Dirent(slot)
	dirent.SetModTime(info.ModTime())

	var reader io.Reader
	file, err := d.fs.Open(mapping.Path)
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("error reading host file %s: %s", mapping.Path, err.Error()))
	} else {
		defer file.Close()
		reader = bufio.NewReaderSize(file, int(d.layout.BytesPerCluster()))
	}

	start := fat12.ClusterID(dirent.StartCluster)
	following := d.fat.IsValid(start)

	// oldTail is the first cluster of the previous chain that hasn't been
	// reused yet. Whatever it leads to is freed at the end.
	oldTail := fat12.ClusterFree
	cluster := start
	if following {
		oldTail = start
	} else {
		cluster = d.fat.FindFirstFree()
	}

	// Every cluster of the new chain, so that a loop in a chain written by the
	// guest isn't followed back into clusters we've already filled.
	inNewChain := bitmap.New(int(d.fat.MaxCluster()))

	newStart := fat12.ClusterFree
	previous := fat12.ClusterFree
	remaining := info.Size()
	written := int64(0)
	readFailed := reader == nil && remaining > 0

	for !readFailed && remaining > 0 && d.fat.IsValid(cluster) {
		oldNext := fat12.ClusterFree
		if following {
			oldNext = d.fat.Read(cluster)
		}

		n, readErr := d.fillCluster(reader, cluster, remaining)
		if n > 0 {
			if previous == fat12.ClusterFree {
				newStart = cluster
			} else {
				d.fat.Write(previous, cluster)
			}
			d.fat.Write(cluster, fat12.ClusterEOF)
			inNewChain.Set(int(cluster), true)

			previous = cluster
			remaining -= n
			written += n
			if following {
				oldTail = oldNext
			}
		}

		if readErr != nil {
			d.warnings.Warn(
				fmt.Sprintf(
					"error reading host file %s: %s", mapping.Path, readErr.Error()))
			readFailed = true
			break
		}
		if remaining == 0 {
			break
		}

		if following {
			if d.fat.IsValid(oldNext) && !inNewChain.Get(int(oldNext)) {
				cluster = oldNext
				continue
			}
			// The old chain ran out, or loops back on itself.
			following = false
			oldTail = fat12.ClusterFree
			cluster = d.fat.FindFirstFree()
		} else {
			cluster = d.fat.FindNextFree(cluster)
		}
	}

	d.freeOldTail(oldTail, inNewChain)

	if readFailed {
		d.index.Observe(slot, time.Time{}, -1)
	} else {
		d.index.Observe(slot, info.ModTime(), info.Size())
	}

	if remaining > 0 && !readFailed {
		d.warnings.Warn(
			fmt.Sprintf(
				"virtual disk image full: %s truncated to %d of %d bytes",
				mapping.Path,
				written,
				info.Size()))
	}

	dirent.StartCluster = uint16(newStart)
	dirent.Size = uint32(written)
	d.image.SetDirent(slot, dirent)

	d.logger.WithFields(logrus.Fields{
		"slot":          slot,
		"host_path":     mapping.Path,
		"bytes":         written,
		"start_cluster": newStart,
	}).Debug("imported host file")
}

// fillCluster reads up to one cluster of data from `reader` into `cluster`,
// never more than `remaining` bytes. Whatever part of the cluster isn't filled
// is zeroed. It returns the number of bytes read.
func (d *DirAsDisk) fillCluster(
	reader io.Reader, cluster fat12.ClusterID, remaining int64,
) (int64, error) {
	data := d.image.Cluster(cluster)
	for i := range data {
		data[i] = 0
	}

	want := int64(len(data))
	if remaining < want {
		want = remaining
	}

	n, err := io.ReadFull(reader, data[:want])
	return int64(n), err
}

// freeOldTail frees the chain starting at `cluster`, stopping before any
// cluster that belongs to the new chain.
func (d *DirAsDisk) freeOldTail(cluster fat12.ClusterID, keep bitmap.Bitmap) {
	for d.fat.IsValid(cluster) && !keep.Get(int(cluster)) {
		next := d.fat.Read(cluster)
		d.fat.Write(cluster, fat12.ClusterFree)
		cluster = next
	}
}
