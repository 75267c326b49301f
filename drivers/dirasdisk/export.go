package dirasdisk

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
)

// writeDirectorySector applies a guest write to a directory sector. Every entry
// whose bytes changed is stored and then exported to the host. If the name of a
// mapped entry changed (including being deleted), the old host file is removed
// first; there's no way to tell a rename from a delete followed by a create.
func (d *DirAsDisk) writeDirectorySector(sector uint, buffer []byte) {
	firstSlot := (sector - d.layout.DirectoryStart()) * fat12.DirentsPerSector

	for i := uint(0); i < fat12.DirentsPerSector; i++ {
		slot := firstSlot + i
		stored := d.image.RawDirent(slot)
		incoming := buffer[i*fat12.DirentSize : (i+1)*fat12.DirentSize]
		if bytes.Equal(stored, incoming) {
			continue
		}

		nameLength := fat12.ShortNameSize
		if !bytes.Equal(stored[:nameLength], incoming[:nameLength]) {
			mapping := d.index.Get(slot)
			if mapping.IsMapped() {
				d.removeHostFile(mapping.Path)
				d.index.Clear(slot)
			}
		}

		copy(stored, incoming)
		d.exportToHost(slot)
	}
}

// removeHostFile deletes a host file whose directory entry went away.
func (d *DirAsDisk) removeHostFile(path string) {
	err := d.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		d.warnings.Warn(
			fmt.Sprintf("couldn't delete host file %s: %s", path, err.Error()))
		return
	}
	d.logger.WithField("host_path", path).Debug("deleted host file")
}

// exportToHost rewrites the host file for directory slot `slot`. An entry that
// isn't mapped yet gets a host file named after it, unless a file with that
// name already exists; existing host files are never overwritten by new
// entries.
func (d *DirAsDisk) exportToHost(slot uint) {
	dirent := d.image.Dirent(slot)
	if !dirent.IsExportable() {
		return
	}

	mapping := d.index.Get(slot)
	if !mapping.IsMapped() {
		path := filepath.Join(d.hostDir, fat12.MSXToHostName(dirent.ShortName()))

		lookup := statHost(d.fs, path)
		switch lookup.Status {
		case HostFound:
			d.logger.WithField("host_path", path).Debug(
				"not exporting new entry over existing host file")
			return
		case HostFailed:
			d.warnings.Warn(
				fmt.Sprintf("error while syncing host file %s: %s", path, lookup.Err.Error()))
			return
		}

		// The host values recorded here never match a real file, so the next
		// sync pass imports the file back and records what's really there.
		d.index.Set(slot, path, time.Time{}, -1)
		mapping = d.index.Get(slot)
	}

	d.exportToHostFile(mapping.Path, dirent)
}

// exportToHostFile truncates the host file at `path` and writes the contents of
// the file described by `dirent` into it, stopping at the size recorded in the
// directory entry or the end of the cluster chain, whichever comes first.
func (d *DirAsDisk) exportToHostFile(path string, dirent fat12.Dirent) {
	file, err := d.fs.OpenFile(
		path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, dirdisk.DefaultHostFileMode)
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("error while syncing host file %s: %s", path, err.Error()))
		return
	}

	size := int64(dirent.Size)
	offset := int64(0)

	for _, cluster := range d.fat.Chain(fat12.ClusterID(dirent.StartCluster)) {
		if offset >= size {
			break
		}

		data := d.image.Cluster(cluster)
		count := int64(len(data))
		if size-offset < count {
			count = size - offset
		}

		_, err = file.Write(data[:count])
		if err != nil {
			break
		}
		offset += count
	}

	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("error while syncing host file %s: %s", path, err.Error()))
		return
	}

	d.logger.WithFields(logrus.Fields{
		"host_path": path,
		"bytes":     offset,
	}).Debug("exported file to host")
}

// writeDataSector stores a guest write to the data area and, if the sector
// belongs to a mapped file, writes the part of it within the file's recorded
// size through to the host file.
func (d *DirAsDisk) writeDataSector(sector uint, buffer []byte) error {
	err := d.image.WriteSector(sector, buffer)
	if err != nil {
		return err
	}

	cluster, sectorInCluster := d.layout.SectorToCluster(sector)
	head, predecessors := d.fat.ChainStart(cluster)

	slot, found := d.findSlotByStartCluster(head)
	if !found {
		return nil
	}
	mapping := d.index.Get(slot)
	if !mapping.IsMapped() {
		return nil
	}

	dirent := d.image.Dirent(slot)
	offset := int64(predecessors)*int64(d.layout.BytesPerCluster()) +
		int64(sectorInCluster)*dirdisk.SectorSize
	size := int64(dirent.Size)
	if offset >= size {
		return nil
	}

	count := size - offset
	if count > dirdisk.SectorSize {
		count = dirdisk.SectorSize
	}

	file, err := d.fs.OpenFile(mapping.Path, os.O_RDWR, 0)
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("couldn't write to file %s: %s", mapping.Path, err.Error()))
		return nil
	}

	_, err = file.WriteAt(buffer[:count], offset)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("couldn't write to file %s: %s", mapping.Path, err.Error()))
	}
	return nil
}
