package fat12

import "time"

const (
	minTimestampYear = 1980
	maxTimestampYear = 1980 + 127
)

// EncodeTimestamp converts a point in time into the packed time and date fields
// of a directory entry. Times are interpreted in their own location. Zero times
// and times outside the representable range (1980-2107) encode as zero.
//
// Seconds are stored with a resolution of two seconds and rounded down.
func EncodeTimestamp(t time.Time) (timePart uint16, datePart uint16) {
	if t.IsZero() || t.Year() < minTimestampYear || t.Year() > maxTimestampYear {
		return 0, 0
	}

	timePart = uint16(t.Hour()<<11) | uint16(t.Minute()<<5) | uint16(t.Second()/2)
	datePart = uint16((t.Year()-minTimestampYear)<<9) |
		uint16(int(t.Month())<<5) |
		uint16(t.Day())
	return timePart, datePart
}

// DecodeTimestamp converts the packed time and date fields of a directory entry
// into a time in `location`. A zero date gives the zero time.
func DecodeTimestamp(timePart, datePart uint16, location *time.Location) time.Time {
	if datePart == 0 {
		return time.Time{}
	}
	if location == nil {
		location = time.Local
	}

	year := minTimestampYear + int(datePart>>9)
	month := time.Month((datePart >> 5) & 0x0F)
	day := int(datePart & 0x1F)
	hours := int(timePart >> 11)
	minutes := int((timePart >> 5) & 0x3F)
	seconds := int(timePart&0x1F) * 2

	return time.Date(year, month, day, hours, minutes, seconds, 0, location)
}
