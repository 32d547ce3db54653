package onmedia

import (
	"github.com/famfs-go/famfs"
)

func slotOffset(index uint64) int {
	return LogHeaderSize + int(index)*LogEntryStride
}

// AppendLogEntry copies entry into the log's next free slot, stamps it with
// the header's next sequence number, and advances both counters.
//
// AppendLogEntry is not re-entrant: the caller must serialize calls against a
// given logBuf externally. There is no internal lock.
func AppendLogEntry(logBuf []byte, entry *LogEntry) error {
	h, err := DecodeLogHeader(logBuf)
	if err != nil {
		return err
	}
	if h.Magic != famfs.LogMagic {
		return famfs.ErrLogCorrupt.WithMessage("log header magic mismatch")
	}
	if h.NextIndex > h.LastIndex {
		return famfs.ErrLogFull
	}

	entry.Seqnum = h.NextSeqnum
	slotStart := slotOffset(h.NextIndex)
	slotEnd := slotStart + LogEntryStride
	if slotEnd > len(logBuf) {
		return famfs.ErrLogCorrupt.WithMessage("computed log slot extends past mapped region")
	}
	if err := EncodeLogEntry(logBuf[slotStart:slotEnd], entry); err != nil {
		return err
	}

	h.NextSeqnum++
	h.NextIndex++
	return EncodeLogHeader(logBuf, h)
}

// IterateLogEntries returns the entries in slots [0, header.NextIndex) of
// logBuf, in index order. The slice is a finite, restartable snapshot: it
// does not track subsequent appends.
func IterateLogEntries(logBuf []byte) ([]*LogEntry, error) {
	h, err := DecodeLogHeader(logBuf)
	if err != nil {
		return nil, err
	}
	entries := make([]*LogEntry, 0, h.NextIndex)
	for i := uint64(0); i < h.NextIndex; i++ {
		slotStart := slotOffset(i)
		slotEnd := slotStart + LogEntryStride
		if slotEnd > len(logBuf) {
			return nil, famfs.ErrLogCorrupt.WithMessage("log header claims more entries than fit in the mapped region")
		}
		entry, err := DecodeLogEntry(logBuf[slotStart:slotEnd])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// IsFull reports whether the log has no free slots left.
func IsFull(h *LogHeader) bool {
	return h.NextIndex > h.LastIndex
}
