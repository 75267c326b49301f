package fat12

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type nameMappingTest struct {
	HostName  string
	ShortName string
}

var hostToMSXTests = [...]nameMappingTest{
	{HostName: "a.txt", ShortName: "A       TXT"},
	{HostName: "readme", ShortName: "README     "},
	{HostName: "qwertyuiop.asdfg", ShortName: "QWERTYUIASD"},
	{HostName: "my file.bas", ShortName: "MY_FILE BAS"},
	{HostName: "archive.tar.gz", ShortName: "ARCHIVE_GZ "},
	{HostName: ".profile", ShortName: "PROFILE    "},
	{HostName: "trailing.", ShortName: "TRAILING   "},
	{HostName: "MiXeD.Bin", ShortName: "MIXED   BIN"},
}

func TestHostToMSXName(t *testing.T) {
	for _, test := range hostToMSXTests {
		assert.Equalf(
			t,
			test.ShortName,
			HostToMSXName(test.HostName).String(),
			"wrong short name for %q",
			test.HostName)
	}
}

var msxToHostTests = [...]nameMappingTest{
	{HostName: "a.txt", ShortName: "A       TXT"},
	{HostName: "readme", ShortName: "README     "},
	{HostName: "qwertyui.asd", ShortName: "QWERTYUIASD"},
	{HostName: "my_file.bas", ShortName: "MY_FILE BAS"},
	{HostName: "a_b.c", ShortName: "A/B     C  "},
}

func TestMSXToHostName(t *testing.T) {
	for _, test := range msxToHostTests {
		var name ShortName
		copy(name[:], test.ShortName)
		assert.Equalf(
			t,
			test.HostName,
			MSXToHostName(name),
			"wrong host name for %q",
			test.ShortName)
	}
}

func TestMSXToHostNameEscapedMarker(t *testing.T) {
	var name ShortName
	copy(name[:], "\x05ABC    TXT")
	assert.Equal(t, "\xe5abc.txt", MSXToHostName(name))
}

func TestHostToMSXNameEscapesMarker(t *testing.T) {
	name := HostToMSXName("\xe5x")
	assert.EqualValues(t, 0x05, name[0])
}

func TestShortNameEqualFold(t *testing.T) {
	var lower, upper ShortName
	copy(lower[:], "a       txt")
	copy(upper[:], "A       TXT")

	assert.True(t, lower.EqualFold(upper))
	assert.False(t, lower.EqualFold(HostToMSXName("b.txt")))
}
