package container

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Magic identifies a procheckd container ("PCH1").
var Magic = [4]byte{'P', 'C', 'H', '1'}

// BaseHeaderSize is the fixed-size prefix of every container: magic,
// version, reserved padding, header-area length, total length, checksum.
const BaseHeaderSize = 20

// PackageNameSize is the fixed width of the package-name field carried in
// a Main Header TLV.
const PackageNameSize = 32

// TLV type codes for the header area (distinct namespace from footer
// credential record types; see footer.go).
const (
	headerTLVMainHeader    uint32 = 1
	headerTLVProgramHeader uint32 = 9
)

// programHeaderTLVDataLen is the byte length of a Program Header TLV's
// data: five little-endian uint32 fields (init_fn_offset, protected_size,
// minimum_ram_size, binary_end_offset, version) = 20 bytes.
//
// The wire-format description this was built from labels this TLV
// "length 16" in one place but also enumerates five u32 fields, which
// total 20 bytes. Those two statements cannot both be literally true;
// this implementation resolves the conflict in favor of the explicit
// field list (20 bytes) rather than the possibly-stale length
// annotation. See DESIGN.md.
const programHeaderTLVDataLen = 20

// mainHeaderTLVDataLen is the byte length of a Main Header TLV's data:
// binary_end_offset (u32) + version (u32) + package name (PackageNameSize).
const mainHeaderTLVDataLen = 4 + 4 + PackageNameSize

// BaseHeader is the fixed-size prefix of a container.
type BaseHeader struct {
	Version        uint8
	HeaderAreaLen  uint32 // bytes of header-TLV area following BaseHeaderSize
	TotalLength    uint32 // container_end, relative to the start of the container
	Checksum       uint32 // CRC32C (Castagnoli) over [0, headerEnd) with this field zeroed
}

// headerEnd returns header_end: the offset where the payload begins.
func (h BaseHeader) headerEnd() int64 {
	return int64(BaseHeaderSize) + int64(h.HeaderAreaLen)
}

// parseBaseHeader validates and decodes the fixed-size header prefix. It
// does not expose any other slice of buf until the checksum and
// total-length field have both been validated.
func parseBaseHeader(buf []byte) (BaseHeader, error) {
	if len(buf) < BaseHeaderSize {
		return BaseHeader{}, fmt.Errorf("base header: %w", ErrTruncated)
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return BaseHeader{}, fmt.Errorf("base header: %w", ErrBadMagic)
	}

	h := BaseHeader{
		Version:       buf[4],
		HeaderAreaLen: binary.LittleEndian.Uint32(buf[8:12]),
		TotalLength:   binary.LittleEndian.Uint32(buf[12:16]),
		Checksum:      binary.LittleEndian.Uint32(buf[16:20]),
	}

	headerEnd := h.headerEnd()
	if headerEnd > int64(h.TotalLength) {
		return BaseHeader{}, fmt.Errorf("base header offsets: %w", ErrInconsistentOffsets)
	}
	if int64(len(buf)) < int64(h.TotalLength) {
		return BaseHeader{}, fmt.Errorf("base header: %w", ErrTruncated)
	}

	covered := make([]byte, headerEnd)
	copy(covered, buf[:headerEnd])
	// Checksum field itself (bytes [16:20)) is zeroed for the purposes of
	// computing the expected value, so the stored checksum does not cover
	// itself.
	covered[16], covered[17], covered[18], covered[19] = 0, 0, 0, 0

	if crc32.Checksum(covered, crc32.MakeTable(crc32.Castagnoli)) != h.Checksum {
		return BaseHeader{}, fmt.Errorf("base header: %w", ErrBadChecksum)
	}

	return h, nil
}

// MainHeader describes the Main Header TLV (header-area type 1): a
// fallback source for binary_end_offset and the package-name field used by
// the reference Identifier Policy.
type MainHeader struct {
	BinaryEndOffset uint32
	Version         uint32
	PackageName     [PackageNameSize]byte
}

// ProgramHeader describes the Program Header TLV (header-area type 9, spec
// §6): the preferred source for binary_end_offset when the kernel
// understands credentials.
type ProgramHeader struct {
	InitFnOffset    uint32
	ProtectedSize   uint32
	MinimumRAMSize  uint32
	BinaryEndOffset uint32
	Version         uint32
}

// headerTLVs is the decoded result of scanning the header-TLV area: the
// optional Main Header and Program Header records. Unknown header-area TLV
// types are skipped, mirroring the footer area's unknown-type tolerance.
type headerTLVs struct {
	main    *MainHeader
	program *ProgramHeader
}

// parseHeaderArea walks the header-TLV area starting at BaseHeaderSize for
// HeaderAreaLen bytes, decoding the Main Header and Program Header records
// it finds. A duplicate Program Header is an error.
func parseHeaderArea(buf []byte, base BaseHeader) (headerTLVs, error) {
	var out headerTLVs

	start := int64(BaseHeaderSize)
	end := base.headerEnd()
	off := start

	for off < end {
		if off+8 > end {
			return headerTLVs{}, fmt.Errorf("header area: %w", ErrTruncatedHeaderTLV)
		}
		typ := binary.LittleEndian.Uint32(buf[off : off+4])
		length := binary.LittleEndian.Uint32(buf[off+4 : off+8])
		dataStart := off + 8
		dataEnd := dataStart + int64(length)
		if dataEnd > end {
			return headerTLVs{}, fmt.Errorf("header area: %w", ErrTruncatedHeaderTLV)
		}
		data := buf[dataStart:dataEnd]

		switch typ {
		case headerTLVMainHeader:
			if length != mainHeaderTLVDataLen {
				return headerTLVs{}, fmt.Errorf("main header: %w", ErrTruncatedHeaderTLV)
			}
			mh := MainHeader{
				BinaryEndOffset: binary.LittleEndian.Uint32(data[0:4]),
				Version:         binary.LittleEndian.Uint32(data[4:8]),
			}
			copy(mh.PackageName[:], data[8:8+PackageNameSize])
			out.main = &mh

		case headerTLVProgramHeader:
			if out.program != nil {
				return headerTLVs{}, fmt.Errorf("program header: %w", ErrDuplicateProgramHeader)
			}
			if length != programHeaderTLVDataLen {
				return headerTLVs{}, fmt.Errorf("program header: %w", ErrTruncatedHeaderTLV)
			}
			out.program = &ProgramHeader{
				InitFnOffset:    binary.LittleEndian.Uint32(data[0:4]),
				ProtectedSize:   binary.LittleEndian.Uint32(data[4:8]),
				MinimumRAMSize:  binary.LittleEndian.Uint32(data[8:12]),
				BinaryEndOffset: binary.LittleEndian.Uint32(data[12:16]),
				Version:         binary.LittleEndian.Uint32(data[16:20]),
			}

		default:
			// Unknown header TLV: skip, mirroring footer tolerance.
		}

		off = dataEnd
	}

	if out.main == nil && out.program == nil {
		return headerTLVs{}, fmt.Errorf("header area: %w", ErrNoHeader)
	}

	return out, nil
}
