package fat12

import (
	"github.com/boljen/go-bitmap"
)

// ReadEntry unpacks the 12-bit FAT entry for `cluster` from a raw FAT buffer.
// Two entries share three bytes; even clusters take the low 12 bits, odd
// clusters the high 12 bits. Any value at or above [ClusterBad] is returned as
// [ClusterEOF], as is any cluster whose entry lies outside the buffer.
func ReadEntry(fat []byte, cluster ClusterID) ClusterID {
	offset := uint(cluster) * 3 / 2
	if offset+1 >= uint(len(fat)) {
		return ClusterEOF
	}

	low := ClusterID(fat[offset])
	high := ClusterID(fat[offset+1])

	var value ClusterID
	if cluster&1 != 0 {
		value = (low >> 4) | (high << 4)
	} else {
		value = low | ((high & 0x0F) << 8)
	}

	if value >= ClusterBad {
		return ClusterEOF
	}
	return value
}

// WriteEntry packs `value` into the FAT entry for `cluster`, leaving the
// neighboring entry's nibble untouched. Writes outside the buffer are ignored.
func WriteEntry(fat []byte, cluster ClusterID, value ClusterID) {
	offset := uint(cluster) * 3 / 2
	if offset+1 >= uint(len(fat)) {
		return
	}

	if cluster&1 != 0 {
		fat[offset] = (fat[offset] & 0x0F) | byte(value<<4)
		fat[offset+1] = byte(value >> 4)
	} else {
		fat[offset] = byte(value)
		fat[offset+1] = (fat[offset+1] & 0xF0) | byte((value>>8)&0x0F)
	}
}

// Table provides cluster-level access to the two copies of the FAT. Reads come
// from the first copy; writes go to both.
//
// The slices are views into the disk image. Table doesn't own them.
type Table struct {
	primary    []byte
	mirror     []byte
	maxCluster ClusterID
}

// NewTable creates a Table over the two FAT copies of a volume with the given
// layout.
func NewTable(primary, mirror []byte, maxCluster ClusterID) *Table {
	return &Table{
		primary:    primary,
		mirror:     mirror,
		maxCluster: maxCluster,
	}
}

// MaxCluster is one past the last valid cluster.
func (t *Table) MaxCluster() ClusterID {
	return t.maxCluster
}

// IsValid tells whether `cluster` refers to a cluster in the data area.
func (t *Table) IsValid(cluster ClusterID) bool {
	return cluster >= FirstDataCluster && cluster < t.maxCluster
}

// Read returns the normalized FAT entry for `cluster`.
func (t *Table) Read(cluster ClusterID) ClusterID {
	return ReadEntry(t.primary, cluster)
}

// Write sets the FAT entry for `cluster` in both copies of the FAT.
func (t *Table) Write(cluster ClusterID, value ClusterID) {
	WriteEntry(t.primary, cluster, value)
	WriteEntry(t.mirror, cluster, value)
}

// FindNextFree returns the first free cluster after `cluster`, or
// [Table.MaxCluster] if there isn't one.
func (t *Table) FindNextFree(cluster ClusterID) ClusterID {
	for {
		cluster++
		if cluster >= t.maxCluster || t.Read(cluster) == ClusterFree {
			return cluster
		}
	}
}

// FindFirstFree returns the lowest-numbered free cluster, or
// [Table.MaxCluster] if the disk is full.
func (t *Table) FindFirstFree() ClusterID {
	return t.FindNextFree(FirstDataCluster - 1)
}

// FreeChain marks every cluster in the chain beginning at `start` as free.
// Freed clusters read back as [ClusterFree], which isn't valid, so a chain
// that loops back on itself stops at the first revisited cluster.
func (t *Table) FreeChain(start ClusterID) {
	cluster := start
	for t.IsValid(cluster) {
		next := t.Read(cluster)
		t.Write(cluster, ClusterFree)
		cluster = next
	}
}

// Chain returns the clusters of the chain beginning at `start`, in order. The
// walk stops at the first entry that isn't a valid cluster, or at the first
// cluster already seen.
func (t *Table) Chain(start ClusterID) []ClusterID {
	visited := bitmap.New(int(t.maxCluster))
	clusters := []ClusterID{}

	for cluster := start; t.IsValid(cluster); cluster = t.Read(cluster) {
		if visited.Get(int(cluster)) {
			break
		}
		visited.Set(int(cluster), true)
		clusters = append(clusters, cluster)
	}
	return clusters
}

// ChainLength returns the number of clusters in the chain beginning at `start`.
func (t *Table) ChainLength(start ClusterID) uint {
	return uint(len(t.Chain(start)))
}

// ChainStart finds the head of the chain that `cluster` belongs to, and the
// number of clusters that precede it in that chain.
//
// If several clusters link to the same one, the lowest-numbered one is taken as
// the predecessor. A chain that loops back on itself yields the cluster at which
// the loop was detected.
func (t *Table) ChainStart(cluster ClusterID) (ClusterID, uint) {
	if !t.IsValid(cluster) {
		return cluster, 0
	}

	predecessors := make([]ClusterID, t.maxCluster)
	for c := t.maxCluster - 1; c >= FirstDataCluster; c-- {
		next := t.Read(c)
		if t.IsValid(next) {
			predecessors[next] = c
		}
	}

	visited := bitmap.New(int(t.maxCluster))
	visited.Set(int(cluster), true)

	count := uint(0)
	for {
		previous := predecessors[cluster]
		if previous == ClusterFree || visited.Get(int(previous)) {
			return cluster, count
		}
		visited.Set(int(previous), true)
		cluster = previous
		count++
	}
}

// FreeClusters counts the free clusters in the data area.
func (t *Table) FreeClusters() uint {
	count := uint(0)
	for c := FirstDataCluster; c < t.maxCluster; c++ {
		if t.Read(c) == ClusterFree {
			count++
		}
	}
	return count
}

// Format erases both copies of the FAT and writes the media descriptor into the
// reserved entries for clusters 0 and 1.
func (t *Table) Format(media byte) {
	for _, fat := range [][]byte{t.primary, t.mirror} {
		for i := range fat {
			fat[i] = 0
		}
		fat[0] = media
		fat[1] = 0xFF
		fat[2] = 0xFF
	}
}
