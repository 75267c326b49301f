// Package compression stores floppy images compactly.
//
// A freshly mirrored directory leaves most of a disk image zeroed: unused
// clusters, the tail of the FAT, free directory slots. Images are therefore
// run-length encoded first and the result is gzipped. The run-length encoding
// is RLE8 as used by BMP files: a byte occurring N >= 2 times in a row is
// written twice and followed by a count byte holding N - 2.
//
//	A BBBBBB C DD
//	A BB 4 C DD 0
//
// One run covers at most 257 bytes; longer runs are split. A byte that occurs
// exactly twice costs three bytes, which gzip mostly wins back.
package compression
