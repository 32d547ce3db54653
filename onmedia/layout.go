// Package onmedia defines the byte-exact, little-endian, fixed-layout
// records that live directly on the DAX device: the superblock, the log
// header, and log entries. Every accessor bounds-checks against the mapped
// buffer it's given; nothing here relies on Go struct padding matching the
// on-media layout — each record is read and written field by field at an
// explicit byte offset.
package onmedia

import (
	"github.com/google/uuid"
)

// DevicePathLen is the fixed width, in bytes, reserved for a device path
// string inside a device descriptor.
const DevicePathLen = 256

// deviceDescriptorSize is the encoded size of one DeviceDescriptor record.
const deviceDescriptorSize = DevicePathLen + 8

// superblockHeaderSize is the encoded size of the Superblock fields that
// precede the device descriptor table.
const superblockHeaderSize = 8 + 16 + 4 + 4 + 8 + 8 + 8

// LogEntryStride is the fixed size, in bytes, of one slot in the log's entry
// array.
const LogEntryStride = 1024

// LogHeaderSize is the encoded size of the LogHeader record that precedes
// the entry array.
const LogHeaderSize = 32

func init() {
	if deviceDescriptorSize != 264 {
		panic("onmedia: deviceDescriptorSize layout drifted")
	}
	if superblockHeaderSize != 56 {
		panic("onmedia: superblockHeaderSize layout drifted")
	}
	logEntryHeaderSize := 4 + 4 + 8 // kind + pad + seqnum
	fileCreateBodySize := 512 + 8 + 4 + 4 + 4 + 4 + 4 + 4 + (16 * 16)
	if logEntryHeaderSize+fileCreateBodySize > LogEntryStride {
		panic("onmedia: LogEntryStride too small for FILE_CREATE body")
	}
}

// DeviceDescriptor names one of the (at most famfs.MaxDevices) devices that
// make up a famfs file system, and its byte size as reported at mkfs time.
type DeviceDescriptor struct {
	Path string
	Size uint64
}

// Superblock is the fixed-size structure at device offset 0.
type Superblock struct {
	Magic      uint64
	UUID       uuid.UUID
	NumDevices uint32
	LogOffset  uint64
	LogLength  uint64
	CRC        uint64 // reserved for future use; always zero, never validated
	Devices    []DeviceDescriptor
}

// LogHeader is the fixed-size structure that precedes the log's entry array.
type LogHeader struct {
	Magic      uint64
	LastIndex  uint64
	NextIndex  uint64
	NextSeqnum uint64
}

// LogEntry is the tagged union stored in each log slot.
type LogEntry struct {
	Kind    uint32
	Seqnum  uint64
	RelPath string
	// FILE_CREATE fields
	Size    uint64
	Mode    uint32
	Uid     uint32
	Gid     uint32
	Flags   uint32
	Extents []Extent
}

// Extent is a contiguous {offset, length} byte range, encoded exactly as it
// appears inline in a log entry.
type Extent struct {
	Offset uint64
	Length uint64
}
