// Package disks holds the catalogue of double-sided FAT12 floppy geometries
// the virtual disk can present.
package disks

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"
)

// DefaultGeometrySlug is the slug of the geometry used when none is given.
const DefaultGeometrySlug = "dsdd-720k"

// MediaDescriptor is the FAT media descriptor byte. In the catalogue it's
// written in hexadecimal, e.g. `0xF9`.
type MediaDescriptor uint8

// UnmarshalCSV implements gocsv's TypeUnmarshaller interface.
func (m *MediaDescriptor) UnmarshalCSV(value string) error {
	parsed, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return fmt.Errorf("invalid media descriptor %q: %w", value, err)
	}
	*m = MediaDescriptor(parsed)
	return nil
}

// MarshalCSV implements gocsv's TypeMarshaller interface.
func (m MediaDescriptor) MarshalCSV() (string, error) {
	return fmt.Sprintf("0x%02X", uint8(m)), nil
}

type DiskGeometry struct {
	Slug               string `csv:"slug"`
	Name               string `csv:"name"`
	FormFactor         string `csv:"form_factor"`
	FirstYearAvailable uint   `csv:"first_year_available"`

	// TotalSectors is the number of 512-byte logical sectors on the disk,
	// counting both sides.
	TotalSectors    uint `csv:"total_sectors"`
	SectorsPerTrack uint `csv:"sectors_per_track"`
	Heads           uint `csv:"heads"`

	SectorsPerCluster uint `csv:"sectors_per_cluster"`
	// SectorsPerFAT is the size of one copy of the FAT. There are always two.
	SectorsPerFAT uint `csv:"sectors_per_fat"`
	// RootEntries is the number of 32-byte entries in the root directory.
	RootEntries uint            `csv:"root_entries"`
	Media       MediaDescriptor `csv:"media_descriptor"`
	Notes       string          `csv:"notes"`
}

// TotalSizeBytes gives the size of an image of this disk, in bytes.
func (g *DiskGeometry) TotalSizeBytes() int64 {
	return int64(g.TotalSectors) * 512
}

// TotalTracks gives the number of tracks per side.
func (g *DiskGeometry) TotalTracks() uint {
	return g.TotalSectors / (g.SectorsPerTrack * g.Heads)
}

////////////////////////////////////////////////////////////////////////////////

//go:embed disk-geometries.csv
var diskGeometriesRawCSV string
var diskGeometries map[string]DiskGeometry

// GetPredefinedDiskGeometry returns the catalogue entry for `slug`.
func GetPredefinedDiskGeometry(slug string) (DiskGeometry, error) {
	geometry, ok := diskGeometries[slug]
	if ok {
		return geometry, nil
	}

	err := fmt.Errorf("no predefined disk geometry exists with slug %q", slug)
	return DiskGeometry{}, err
}

// GetDefaultDiskGeometry returns the geometry named by [DefaultGeometrySlug].
func GetDefaultDiskGeometry() DiskGeometry {
	return diskGeometries[DefaultGeometrySlug]
}

// FindGeometryByTotalSectors returns the catalogue entry with the given number
// of sectors. It's used to recognize bare images.
func FindGeometryByTotalSectors(totalSectors uint) (DiskGeometry, bool) {
	for _, slug := range Slugs() {
		if diskGeometries[slug].TotalSectors == totalSectors {
			return diskGeometries[slug], true
		}
	}
	return DiskGeometry{}, false
}

// Slugs returns the slugs of all predefined geometries in sorted order.
func Slugs() []string {
	slugs := make([]string, 0, len(diskGeometries))
	for slug := range diskGeometries {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	var rows []DiskGeometry
	err := gocsv.UnmarshalString(diskGeometriesRawCSV, &rows)
	if err != nil {
		panic(fmt.Errorf("failed to decode disk geometry table: %w", err))
	}

	diskGeometries = make(map[string]DiskGeometry, len(rows))
	for i, row := range rows {
		_, exists := diskGeometries[row.Slug]
		if exists {
			message := fmt.Errorf(
				"duplicate definition for disk %q found on row %d",
				row.Slug,
				i+1)
			panic(message)
		}
		diskGeometries[row.Slug] = row
	}

	if _, ok := diskGeometries[DefaultGeometrySlug]; !ok {
		panic(fmt.Errorf("default geometry %q missing from table", DefaultGeometrySlug))
	}
}
