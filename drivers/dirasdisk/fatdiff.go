package dirasdisk

import (
	"fmt"

	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
)

// writeFATSector applies a guest write to a sector of the first FAT copy.
//
// Every cluster whose entry changed is traced back to the head of its chain.
// The whole chain is marked as handled in a snapshot of the old table so that
// clusters further down it don't trigger the same work again, and then the file
// starting at the head (if any) is exported to the host. Chains that no
// directory entry starts at are ignored.
func (d *DirAsDisk) writeFATSector(sector uint, buffer []byte) error {
	live := d.image.FAT(0)
	snapshot := make([]byte, len(live))
	copy(snapshot, live)

	err := d.image.WriteSector(sector, buffer)
	if err != nil {
		return err
	}

	exported := 0
	for cluster := fat12.FirstDataCluster; cluster < d.fat.MaxCluster(); cluster++ {
		if fat12.ReadEntry(snapshot, cluster) == d.fat.Read(cluster) {
			continue
		}

		head, _ := d.fat.ChainStart(cluster)
		for _, member := range d.fat.Chain(head) {
			fat12.WriteEntry(snapshot, member, d.fat.Read(member))
		}
		fat12.WriteEntry(snapshot, cluster, d.fat.Read(cluster))

		slot, found := d.findSlotByStartCluster(head)
		if !found {
			continue
		}
		d.exportToHost(slot)
		exported++
	}

	d.checkFATConsistency(snapshot)
	d.logger.WithFields(logrus.Fields{
		"sector":   sector,
		"exported": exported,
	}).Debug("processed FAT write")
	return nil
}

// checkFATConsistency compares the raw bytes of the live FAT against the
// snapshot after a FAT write has been processed. Handled entries were copied
// into the snapshot in their normalized form, so a mismatch is either a change
// that was missed or an entry the guest encoded unusually, such as 0xFF8 for
// end of chain. Neither is fatal. The media bytes and the unused tail of the
// table aren't compared; formatting tools sometimes write garbage there.
func (d *DirAsDisk) checkFATConsistency(snapshot []byte) {
	live := d.image.FAT(0)
	maxCluster := uint(d.fat.MaxCluster())

	end := maxCluster * 3 / 2
	if end >= uint(len(live)) {
		end = uint(len(live)) - 1
	}

	mismatches := 0
	first := uint(0)
	for offset := uint(3); offset < end; offset++ {
		if live[offset] != snapshot[offset] {
			if mismatches == 0 {
				first = offset
			}
			mismatches++
		}
	}
	// With an odd cluster count the last entry only owns the low nibble of
	// its second byte.
	if maxCluster&1 != 0 && (live[end]^snapshot[end])&0x0F != 0 {
		if mismatches == 0 {
			first = end
		}
		mismatches++
	}

	if mismatches == 0 {
		return
	}
	d.logger.WithFields(logrus.Fields{
		"mismatched_bytes": mismatches,
		"first_offset":     first,
	}).Warn(
		fmt.Sprintf(
			"FAT content differs from what was handled, starting near cluster %d",
			first*2/3))
}
