package onmedia

import (
	"encoding/binary"
	"fmt"

	"github.com/famfs-go/famfs"
	"github.com/noxer/bytewriter"
)

// EncodeSuperblock writes sb into buf starting at offset 0. buf must be at
// least famfs.SuperblockSize bytes.
func EncodeSuperblock(buf []byte, sb *Superblock) error {
	if len(buf) < famfs.SuperblockSize {
		return famfs.ErrInvalidArg.WithMessage("superblock buffer too small")
	}
	if len(sb.Devices) > famfs.MaxDevices {
		return famfs.ErrInvalidArg.WithMessage(
			fmt.Sprintf("too many devices: %d > %d", len(sb.Devices), famfs.MaxDevices))
	}

	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, sb.Magic)
	w.Write(sb.UUID[:])
	binary.Write(w, binary.LittleEndian, sb.NumDevices)
	binary.Write(w, binary.LittleEndian, uint32(0)) // pad
	binary.Write(w, binary.LittleEndian, sb.LogOffset)
	binary.Write(w, binary.LittleEndian, sb.LogLength)
	binary.Write(w, binary.LittleEndian, sb.CRC)

	off := superblockHeaderSize
	for i := 0; i < famfs.MaxDevices; i++ {
		pathBuf := make([]byte, DevicePathLen)
		var size uint64
		if i < len(sb.Devices) {
			copy(pathBuf, sb.Devices[i].Path)
			size = sb.Devices[i].Size
		}
		copy(buf[off:off+DevicePathLen], pathBuf)
		binary.LittleEndian.PutUint64(buf[off+DevicePathLen:off+deviceDescriptorSize], size)
		off += deviceDescriptorSize
	}
	return nil
}

// DecodeSuperblock reads a Superblock out of buf without validating it.
func DecodeSuperblock(buf []byte) (*Superblock, error) {
	if len(buf) < famfs.SuperblockSize {
		return nil, famfs.ErrInvalidArg.WithMessage("superblock buffer too small")
	}

	sb := &Superblock{}
	sb.Magic = binary.LittleEndian.Uint64(buf[0:8])
	copy(sb.UUID[:], buf[8:24])
	sb.NumDevices = binary.LittleEndian.Uint32(buf[24:28])
	// buf[28:32] is padding
	sb.LogOffset = binary.LittleEndian.Uint64(buf[32:40])
	sb.LogLength = binary.LittleEndian.Uint64(buf[40:48])
	sb.CRC = binary.LittleEndian.Uint64(buf[48:56])

	n := int(sb.NumDevices)
	if n > famfs.MaxDevices {
		n = famfs.MaxDevices
	}
	off := superblockHeaderSize
	for i := 0; i < n; i++ {
		pathBuf := buf[off : off+DevicePathLen]
		end := indexByte0(pathBuf)
		size := binary.LittleEndian.Uint64(buf[off+DevicePathLen : off+deviceDescriptorSize])
		sb.Devices = append(sb.Devices, DeviceDescriptor{
			Path: string(pathBuf[:end]),
			Size: size,
		})
		off += deviceDescriptorSize
	}
	return sb, nil
}

// ValidateSuperblock checks the superblock's structural sanity: magic match,
// AU-aligned log region, and that device[0] is large enough to hold it. CRC
// is declared in the layout but never computed or checked.
func ValidateSuperblock(buf []byte) (*Superblock, error) {
	sb, err := DecodeSuperblock(buf)
	if err != nil {
		return nil, err
	}
	if sb.Magic != famfs.SuperblockMagic {
		return nil, famfs.ErrBadSuperblock.WithMessage("magic mismatch")
	}
	if sb.LogOffset%famfs.AllocUnitSize != 0 || sb.LogLength%famfs.AllocUnitSize != 0 {
		return nil, famfs.ErrBadSuperblock.WithMessage("log region is not AU-aligned")
	}
	if len(sb.Devices) == 0 {
		return nil, famfs.ErrBadSuperblock.WithMessage("no devices in device table")
	}
	if sb.Devices[0].Size < sb.LogOffset+sb.LogLength {
		return nil, famfs.ErrBadSuperblock.WithMessage("device[0] too small to hold superblock and log")
	}
	return sb, nil
}

func indexByte0(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
