package container

import (
	"bytes"
	"fmt"
)

// Container is a parsed view of a flash-resident binary container: a
// validated base header, the optional Main/Program header records, and
// enough information to resolve the payload/footer split once a binary-end
// policy is applied.
//
// Container holds no copies: Raw aliases the caller's buffer, truncated to
// the container's own declared length.
type Container struct {
	Raw     []byte
	Base    BaseHeader
	Main    *MainHeader
	Program *ProgramHeader
}

// Parse validates a container's base header (magic, checksum, offsets) and
// its header-TLV area, then returns a Container ready to resolve a payload
// and footer iterator. Parse never returns a Container backed by an
// unvalidated base header: the checksum and total-length checks happen
// before any other slice of buf is interpreted.
func Parse(buf []byte) (*Container, error) {
	base, err := parseBaseHeader(buf)
	if err != nil {
		return nil, err
	}

	tlvs, err := parseHeaderArea(buf, base)
	if err != nil {
		return nil, err
	}

	return &Container{
		Raw:     buf[:base.TotalLength],
		Base:    base,
		Main:    tlvs.main,
		Program: tlvs.program,
	}, nil
}

// HeaderEnd returns header_end: the offset at which the payload begins.
func (c *Container) HeaderEnd() int64 {
	return c.Base.headerEnd()
}

// ContainerEnd returns container_end: the total length of this container.
func (c *Container) ContainerEnd() int64 {
	return int64(c.Base.TotalLength)
}

// BinaryEndOffset resolves binary_end_offset: sourced from the Program
// Header if present and preferProgramHeader is true (or the
// Main Header is absent), otherwise from the Main Header, otherwise
// (neither present) the container_end -- in which case the footer area is
// empty.
func (c *Container) BinaryEndOffset(preferProgramHeader bool) int64 {
	switch {
	case c.Program != nil && c.Main != nil:
		if preferProgramHeader {
			return int64(c.Program.BinaryEndOffset)
		}
		return int64(c.Main.BinaryEndOffset)
	case c.Program != nil:
		return int64(c.Program.BinaryEndOffset)
	case c.Main != nil:
		return int64(c.Main.BinaryEndOffset)
	default:
		return c.ContainerEnd()
	}
}

// Resolve applies a binary-end policy and returns the payload slice and a
// lazy footer iterator over the remainder, after checking that
// header_end <= binary_end_offset <= container_end.
func (c *Container) Resolve(preferProgramHeader bool) ([]byte, *FooterIterator, error) {
	headerEnd := c.HeaderEnd()
	containerEnd := c.ContainerEnd()
	binaryEnd := c.BinaryEndOffset(preferProgramHeader)

	if binaryEnd < headerEnd || binaryEnd > containerEnd {
		return nil, nil, fmt.Errorf("resolve binary_end_offset=%d: %w", binaryEnd, ErrInconsistentOffsets)
	}

	payload := c.Raw[headerEnd:binaryEnd]
	footers := newFooterIterator(c.Raw, binaryEnd, containerEnd)

	return payload, footers, nil
}

// PackageName returns the Main Header's package-name field with trailing
// NUL padding trimmed, and false if there is no Main Header.
func (c *Container) PackageName() ([]byte, bool) {
	if c.Main == nil {
		return nil, false
	}
	name := bytes.TrimRight(c.Main.PackageName[:], "\x00")
	return name, true
}

// Version returns the version number carried by the Program Header if
// present, else the Main Header's, else 0: a container without a version
// header is assigned version 0.
func (c *Container) Version() uint32 {
	switch {
	case c.Program != nil:
		return c.Program.Version
	case c.Main != nil:
		return c.Main.Version
	default:
		return 0
	}
}
