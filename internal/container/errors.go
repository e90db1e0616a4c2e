package container

import "errors"

// Sentinel errors returned by Parse and the footer iterator.
//
// Callers should use [errors.Is] to classify a failure. A parse failure
// never aborts the caller's scan by itself -- the process-load driver
// decides whether to continue scanning past an invalid container.
var (
	// ErrTruncated indicates the byte slice is shorter than the base
	// header or shorter than TotalLength declares.
	ErrTruncated = errors.New("container: truncated")

	// ErrBadMagic indicates the base header magic bytes do not match.
	ErrBadMagic = errors.New("container: bad magic")

	// ErrBadChecksum indicates the base header checksum does not match
	// the computed CRC32C over the covered header bytes.
	ErrBadChecksum = errors.New("container: bad checksum")

	// ErrInconsistentOffsets indicates header_end > binary_end_offset,
	// binary_end_offset > container_end, or similarly malformed offsets.
	ErrInconsistentOffsets = errors.New("container: inconsistent offsets")

	// ErrNoHeader indicates neither a Main Header nor a Program Header
	// TLV was found in the header area.
	ErrNoHeader = errors.New("container: no recognized header")

	// ErrDuplicateProgramHeader indicates more than one Program Header
	// TLV was present in the header area.
	ErrDuplicateProgramHeader = errors.New("container: duplicate program header")

	// ErrTruncatedFooter indicates a footer TLV's declared length would
	// exceed the container bound. Footer records yielded before this
	// error was encountered remain valid.
	ErrTruncatedFooter = errors.New("container: truncated footer record")

	// ErrTruncatedHeaderTLV indicates a header-area TLV's declared length
	// would exceed the header area bound.
	ErrTruncatedHeaderTLV = errors.New("container: truncated header tlv")
)
