package onmedia

import (
	"encoding/binary"

	"github.com/famfs-go/famfs"
)

const (
	entryOffKind     = 0
	entryOffSeqnum   = 8
	entryOffRelPath  = 16
	entryOffSize     = entryOffRelPath + famfs.MaxRelPathLen
	entryOffMode     = entryOffSize + 8
	entryOffUid      = entryOffMode + 4
	entryOffGid      = entryOffUid + 4
	entryOffFlags    = entryOffGid + 4
	entryOffExtCount = entryOffFlags + 4
	entryOffExtents  = entryOffExtCount + 8 // 4 bytes count + 4 bytes padding
	extentSize       = 16
)

// EncodeLogEntry writes e into slot, a famfs.MaxInlineExtents-bounded
// LogEntryStride-sized byte slice.
func EncodeLogEntry(slot []byte, e *LogEntry) error {
	if len(slot) < LogEntryStride {
		return famfs.ErrInvalidArg.WithMessage("log entry slot too small")
	}
	if len(e.RelPath) >= famfs.MaxRelPathLen {
		return famfs.ErrInvalidArg.WithMessage("relative path too long")
	}
	if len(e.Extents) > famfs.MaxInlineExtents {
		return famfs.ErrInvalidArg.WithMessage("too many extents")
	}

	for i := range slot {
		slot[i] = 0
	}

	binary.LittleEndian.PutUint32(slot[entryOffKind:], e.Kind)
	binary.LittleEndian.PutUint64(slot[entryOffSeqnum:], e.Seqnum)
	copy(slot[entryOffRelPath:entryOffRelPath+famfs.MaxRelPathLen], e.RelPath)
	binary.LittleEndian.PutUint64(slot[entryOffSize:], e.Size)
	binary.LittleEndian.PutUint32(slot[entryOffMode:], e.Mode)
	binary.LittleEndian.PutUint32(slot[entryOffUid:], e.Uid)
	binary.LittleEndian.PutUint32(slot[entryOffGid:], e.Gid)
	binary.LittleEndian.PutUint32(slot[entryOffFlags:], e.Flags)
	binary.LittleEndian.PutUint32(slot[entryOffExtCount:], uint32(len(e.Extents)))

	off := entryOffExtents
	for _, ext := range e.Extents {
		binary.LittleEndian.PutUint64(slot[off:], ext.Offset)
		binary.LittleEndian.PutUint64(slot[off+8:], ext.Length)
		off += extentSize
	}
	return nil
}

// DecodeLogEntry reads a LogEntry out of a LogEntryStride-sized slot.
func DecodeLogEntry(slot []byte) (*LogEntry, error) {
	if len(slot) < LogEntryStride {
		return nil, famfs.ErrInvalidArg.WithMessage("log entry slot too small")
	}

	e := &LogEntry{
		Kind:   binary.LittleEndian.Uint32(slot[entryOffKind:]),
		Seqnum: binary.LittleEndian.Uint64(slot[entryOffSeqnum:]),
	}
	pathBuf := slot[entryOffRelPath : entryOffRelPath+famfs.MaxRelPathLen]
	e.RelPath = string(pathBuf[:indexByte0(pathBuf)])
	e.Size = binary.LittleEndian.Uint64(slot[entryOffSize:])
	e.Mode = binary.LittleEndian.Uint32(slot[entryOffMode:])
	e.Uid = binary.LittleEndian.Uint32(slot[entryOffUid:])
	e.Gid = binary.LittleEndian.Uint32(slot[entryOffGid:])
	e.Flags = binary.LittleEndian.Uint32(slot[entryOffFlags:])

	extCount := int(binary.LittleEndian.Uint32(slot[entryOffExtCount:]))
	if extCount > famfs.MaxInlineExtents {
		return nil, famfs.ErrLogCorrupt.WithMessage("extent count exceeds maximum")
	}
	off := entryOffExtents
	for i := 0; i < extCount; i++ {
		e.Extents = append(e.Extents, Extent{
			Offset: binary.LittleEndian.Uint64(slot[off:]),
			Length: binary.LittleEndian.Uint64(slot[off+8:]),
		})
		off += extentSize
	}
	return e, nil
}
