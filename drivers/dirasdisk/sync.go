package dirasdisk

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// SyncWithHost brings the virtual disk up to date with the host directory.
//
// The pass runs in three phases, always in this order: entries whose host file
// disappeared are deleted, entries whose host file changed are imported again,
// and host files that aren't on the disk yet are added. Deleting first frees
// space that growing or new files may need.
func (d *DirAsDisk) SyncWithHost() {
	started := time.Now()
	deleted := d.removeDeletedHostFiles()
	updated := d.importModifiedHostFiles()
	added := d.addNewHostFiles()

	d.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"updated":  updated,
		"added":    added,
		"duration": time.Since(started),
	}).Debug("synchronized with host directory")
}

func (d *DirAsDisk) removeDeletedHostFiles() int {
	deleted := 0
	for slot := uint(0); slot < d.index.Len(); slot++ {
		mapping := d.index.Get(slot)
		if !mapping.IsMapped() {
			continue
		}

		lookup := statHost(d.fs, mapping.Path)
		switch lookup.Status {
		case HostFound:
			continue
		case HostFailed:
			d.warnings.Warn(
				fmt.Sprintf(
					"couldn't get status of host file %s, removing it from the disk: %s",
					mapping.Path,
					lookup.Err.Error()))
		}

		d.logger.WithFields(logrus.Fields{
			"slot":        slot,
			"host_path":   mapping.Path,
			"host_status": lookup.Status.String(),
		}).Debug("host file gone, deleting entry")
		d.deleteEntry(slot)
		deleted++
	}
	return deleted
}

func (d *DirAsDisk) importModifiedHostFiles() int {
	updated := 0
	for slot := uint(0); slot < d.index.Len(); slot++ {
		mapping := d.index.Get(slot)
		if !mapping.IsMapped() {
			continue
		}

		lookup := statHost(d.fs, mapping.Path)
		if lookup.Status != HostFound || !lookup.Info.Mode().IsRegular() {
			// It vanished or was replaced by something that isn't a regular
			// file since the delete phase.
			d.logger.WithFields(logrus.Fields{
				"slot":        slot,
				"host_path":   mapping.Path,
				"host_status": lookup.Status.String(),
			}).Debug("host file no longer a regular file, deleting entry")
			d.deleteEntry(slot)
			continue
		}

		if d.index.Changed(slot, lookup.Info.ModTime(), lookup.Info.Size()) {
			d.importToDisk(slot, lookup.Info)
			updated++
		}
	}
	return updated
}

func (d *DirAsDisk) addNewHostFiles() int {
	entries, err := afero.ReadDir(d.fs, d.hostDir)
	if err != nil {
		d.warnings.Warn(
			fmt.Sprintf("couldn't read host directory %s: %s", d.hostDir, err.Error()))
		return 0
	}

	added := 0
	for _, info := range entries {
		if !info.Mode().IsRegular() {
			continue
		}

		path := filepath.Join(d.hostDir, info.Name())
		if _, mapped := d.index.FindByPath(path); mapped {
			continue
		}

		slot, found := d.findFreeSlot()
		if !found {
			d.warnings.Warn(
				fmt.Sprintf("virtual disk directory full: %s not added", path))
			return added
		}

		name := fat12.HostToMSXName(info.Name())
		if other, taken := d.findSlotByName(name); taken {
			d.warnings.Warn(
				fmt.Sprintf(
					"couldn't add host file %s: MSX name %q already used by entry %d",
					path,
					name.String(),
					other))
			continue
		}

		dirent := fat12.Dirent{}
		dirent.SetShortName(name)
		d.image.SetDirent(slot, dirent)
		d.index.Set(slot, path, time.Time{}, -1)

		d.importToDisk(slot, info)
		added++
	}
	return added
}
