// Package containertest builds well-formed (and deliberately malformed)
// container byte images for tests, shared across internal/container,
// internal/credcheck, and internal/loader.
package containertest

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	baseHeaderSize  = 20
	packageNameSize = 32
	programTLVLen   = 20
	mainTLVLen      = 4 + 4 + packageNameSize

	headerTLVMainHeader    uint32 = 1
	headerTLVProgramHeader uint32 = 9
)

// Footer describes one credential record to append to the footer area.
type Footer struct {
	Type uint32
	Data []byte
}

// Options describes the container to build. Zero-value Options builds a
// container with no header TLVs, which Parse rejects with ErrNoHeader; set
// at least one of UseMainHeader/UseProgramHeader for a loadable container.
// Build never validates its own output.
type Options struct {
	PackageName      string
	MainBinaryEnd    uint32
	MainVersion      uint32
	UseMainHeader    bool
	ProgramBinaryEnd uint32
	ProgramVersion   uint32
	UseProgramHeader bool
	DuplicateProgram bool // emit the Program Header TLV twice

	// AutoBinaryEnd overrides MainBinaryEnd/ProgramBinaryEnd with the
	// correct header_end+len(Payload) value. Tests exercising an
	// inconsistent-offsets violation leave this false and set an
	// explicit, deliberately wrong offset instead.
	AutoBinaryEnd bool

	Payload             []byte
	Footers             []Footer
	CorruptChecksum     bool
	TotalLengthOverride int64 // 0 means "compute naturally"
}

// Build assembles a complete container image and returns its bytes.
func Build(o Options) []byte {
	var headerArea []byte

	mainEnd, programEnd := o.MainBinaryEnd, o.ProgramBinaryEnd
	if o.AutoBinaryEnd {
		headerAreaLen := 0
		if o.UseMainHeader {
			headerAreaLen += 8 + mainTLVLen
		}
		if o.UseProgramHeader {
			headerAreaLen += 8 + programTLVLen
			if o.DuplicateProgram {
				headerAreaLen += 8 + programTLVLen
			}
		}
		autoEnd := uint32(baseHeaderSize + headerAreaLen + len(o.Payload))
		mainEnd, programEnd = autoEnd, autoEnd
	}

	if o.UseMainHeader {
		headerArea = append(headerArea, mainHeaderTLV(o.PackageName, mainEnd, o.MainVersion)...)
	}
	if o.UseProgramHeader {
		headerArea = append(headerArea, programHeaderTLV(programEnd, o.ProgramVersion)...)
		if o.DuplicateProgram {
			headerArea = append(headerArea, programHeaderTLV(programEnd, o.ProgramVersion)...)
		}
	}

	headerEnd := baseHeaderSize + len(headerArea)
	binaryEnd := headerEnd + len(o.Payload)

	var footerArea []byte
	for _, f := range o.Footers {
		footerArea = append(footerArea, footerTLV(f)...)
	}

	totalLength := binaryEnd + len(footerArea)
	if o.TotalLengthOverride != 0 {
		totalLength = int(o.TotalLengthOverride)
	}

	buf := make([]byte, 0, totalLength)
	base := make([]byte, baseHeaderSize)
	copy(base[0:4], []byte("PCH1"))
	base[4] = 1 // version
	binary.LittleEndian.PutUint32(base[8:12], uint32(len(headerArea)))
	binary.LittleEndian.PutUint32(base[12:16], uint32(totalLength))
	// checksum (base[16:20]) computed below, left zero for now.

	buf = append(buf, base...)
	buf = append(buf, headerArea...)
	buf = append(buf, o.Payload...)
	buf = append(buf, footerArea...)

	if len(buf) < headerEnd {
		// Defensive only: buf always holds the full base header and header
		// area. A TotalLengthOverride below header_end does not reach
		// here; Parse rejects it as inconsistent offsets.
		return buf
	}

	sum := crc32.Checksum(buf[:headerEnd], crc32.MakeTable(crc32.Castagnoli))
	if o.CorruptChecksum {
		sum++
	}
	binary.LittleEndian.PutUint32(buf[16:20], sum)

	return buf
}

func mainHeaderTLV(packageName string, binaryEnd, version uint32) []byte {
	data := make([]byte, mainTLVLen)
	binary.LittleEndian.PutUint32(data[0:4], binaryEnd)
	binary.LittleEndian.PutUint32(data[4:8], version)
	copy(data[8:8+packageNameSize], packageName)

	tlv := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint32(tlv[0:4], headerTLVMainHeader)
	binary.LittleEndian.PutUint16(tlv[4:6], uint16(len(data)))
	copy(tlv[8:], data)

	return tlv
}

func programHeaderTLV(binaryEnd, version uint32) []byte {
	data := make([]byte, programTLVLen)
	binary.LittleEndian.PutUint32(data[0:4], 0)         // init_fn_offset
	binary.LittleEndian.PutUint32(data[4:8], 0)          // protected_size
	binary.LittleEndian.PutUint32(data[8:12], 0)         // minimum_ram_size
	binary.LittleEndian.PutUint32(data[12:16], binaryEnd)
	binary.LittleEndian.PutUint32(data[16:20], version)

	tlv := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint32(tlv[0:4], headerTLVProgramHeader)
	binary.LittleEndian.PutUint16(tlv[4:6], uint16(len(data)))
	copy(tlv[8:], data)

	return tlv
}

func footerTLV(f Footer) []byte {
	tlv := make([]byte, 6+len(f.Data))
	binary.LittleEndian.PutUint32(tlv[0:4], f.Type)
	binary.LittleEndian.PutUint16(tlv[4:6], uint16(len(f.Data)))
	copy(tlv[6:], f.Data)
	return tlv
}
