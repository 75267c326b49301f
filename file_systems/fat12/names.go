package fat12

import "strings"

// ShortNameSize is the size of a space-padded 8.3 name: eight bytes of stem
// followed by three of extension, without the dot.
const ShortNameSize = 11

const (
	stemSize      = 8
	extensionSize = 3

	// DeletedMarker in the first byte of a name marks a deleted entry.
	DeletedMarker = 0xE5
	// escapedDeletedMarker in the first byte of a name stands for a real 0xE5
	// character.
	escapedDeletedMarker = 0x05
)

// ShortName is the on-disk form of an 8.3 file name.
type ShortName [ShortNameSize]byte

func (n ShortName) String() string {
	return string(n[:])
}

func toUpperASCII(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func toLowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// HostToMSXName derives the 8.3 name for a host file name. Letters are
// uppercased, spaces become underscores, and the name is split on its last dot.
// The stem and extension are truncated to eight and three characters and padded
// with spaces. A name with nothing before its last dot uses the part after it as
// the stem. Any other dots become underscores.
//
// The mapping is lossy; different host names can give the same result.
func HostToMSXName(hostName string) ShortName {
	mapped := make([]byte, len(hostName))
	for i := 0; i < len(hostName); i++ {
		if hostName[i] == ' ' {
			mapped[i] = '_'
		} else {
			mapped[i] = toUpperASCII(hostName[i])
		}
	}

	stem := string(mapped)
	extension := ""
	if dot := strings.LastIndexByte(stem, '.'); dot >= 0 {
		stem, extension = stem[:dot], stem[dot+1:]
	}
	if stem == "" {
		stem, extension = extension, ""
	}

	var result ShortName
	for i := range result {
		result[i] = ' '
	}
	copy(result[:stemSize], stem)
	copy(result[stemSize:], extension)

	for i, c := range result {
		if c == '.' {
			result[i] = '_'
		}
	}
	if result[0] == DeletedMarker {
		result[0] = escapedDeletedMarker
	}
	return result
}

// MSXToHostName converts an 8.3 name back into a host file name: lowercase,
// trailing spaces removed, and a dot before the extension only if there is one.
// Path separators and NUL bytes are replaced with underscores so the result is
// always a plain file name.
func MSXToHostName(name ShortName) string {
	raw := name
	if raw[0] == escapedDeletedMarker {
		raw[0] = DeletedMarker
	}

	for i, c := range raw {
		switch c {
		case '/', '\\', 0:
			raw[i] = '_'
		default:
			raw[i] = toLowerASCII(c)
		}
	}

	stem := strings.TrimRight(string(raw[:stemSize]), " ")
	extension := strings.TrimRight(string(raw[stemSize:]), " ")
	if extension == "" {
		return stem
	}
	return stem + "." + extension
}

// EqualFold tells whether two 8.3 names are the same, ignoring ASCII case.
func (n ShortName) EqualFold(other ShortName) bool {
	for i := range n {
		if toUpperASCII(n[i]) != toUpperASCII(other[i]) {
			return false
		}
	}
	return true
}
