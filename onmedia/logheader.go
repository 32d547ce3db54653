package onmedia

import (
	"encoding/binary"

	"github.com/famfs-go/famfs"
)

// EncodeLogHeader writes h into buf starting at offset 0.
func EncodeLogHeader(buf []byte, h *LogHeader) error {
	if len(buf) < LogHeaderSize {
		return famfs.ErrInvalidArg.WithMessage("log header buffer too small")
	}
	binary.LittleEndian.PutUint64(buf[0:8], h.Magic)
	binary.LittleEndian.PutUint64(buf[8:16], h.LastIndex)
	binary.LittleEndian.PutUint64(buf[16:24], h.NextIndex)
	binary.LittleEndian.PutUint64(buf[24:32], h.NextSeqnum)
	return nil
}

// DecodeLogHeader reads a LogHeader out of buf.
func DecodeLogHeader(buf []byte) (*LogHeader, error) {
	if len(buf) < LogHeaderSize {
		return nil, famfs.ErrInvalidArg.WithMessage("log header buffer too small")
	}
	return &LogHeader{
		Magic:      binary.LittleEndian.Uint64(buf[0:8]),
		LastIndex:  binary.LittleEndian.Uint64(buf[8:16]),
		NextIndex:  binary.LittleEndian.Uint64(buf[16:24]),
		NextSeqnum: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// MaxEntriesForLogLength returns how many entries fit after the header in a
// log region of logLength bytes.
func MaxEntriesForLogLength(logLength uint64) uint64 {
	if logLength <= LogHeaderSize {
		return 0
	}
	return (logLength - LogHeaderSize) / LogEntryStride
}
