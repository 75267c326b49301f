package dirasdisk

import "time"

// HostMapping records which host file a directory slot mirrors, and what the
// file looked like when the two were last synchronized.
type HostMapping struct {
	// Path is the full path of the host file. An empty path means the slot
	// isn't mapped.
	Path    string
	ModTime time.Time
	Size    int64
}

// IsMapped tells whether the slot is mirrored to a host file.
func (m HostMapping) IsMapped() bool {
	return m.Path != ""
}

// HostIndex holds one [HostMapping] per directory slot, index-aligned with the
// directory.
type HostIndex struct {
	mappings []HostMapping
}

func NewHostIndex(slots uint) *HostIndex {
	return &HostIndex{mappings: make([]HostMapping, slots)}
}

// Len returns the number of slots.
func (idx *HostIndex) Len() uint {
	return uint(len(idx.mappings))
}

// Get returns the mapping for `slot`.
func (idx *HostIndex) Get(slot uint) HostMapping {
	return idx.mappings[slot]
}

// Set maps `slot` to the host file at `path`, last seen with the given
// modification time and size.
func (idx *HostIndex) Set(slot uint, path string, modTime time.Time, size int64) {
	idx.mappings[slot] = HostMapping{Path: path, ModTime: modTime, Size: size}
}

// Observe updates the cached modification time and size of `slot` without
// changing its path.
func (idx *HostIndex) Observe(slot uint, modTime time.Time, size int64) {
	idx.mappings[slot].ModTime = modTime
	idx.mappings[slot].Size = size
}

// Clear unmaps `slot`.
func (idx *HostIndex) Clear(slot uint) {
	idx.mappings[slot] = HostMapping{}
}

// FindByPath returns the slot mapped to the host file at `path`.
func (idx *HostIndex) FindByPath(path string) (uint, bool) {
	for slot, mapping := range idx.mappings {
		if mapping.IsMapped() && mapping.Path == path {
			return uint(slot), true
		}
	}
	return 0, false
}

// Changed tells whether a host file last seen as described by `slot`'s mapping
// now has a different modification time or size.
func (idx *HostIndex) Changed(slot uint, modTime time.Time, size int64) bool {
	mapping := idx.mappings[slot]
	return !mapping.ModTime.Equal(modTime) || mapping.Size != size
}
