package flash

import "encoding/binary"

// baseHeaderSize and the byte offsets below mirror
// internal/container.BaseHeaderSize's layout; Region only peeks the magic
// and total-length field to find each candidate's boundary; it never
// validates a checksum or any other header content. That validation
// happens once, in internal/container.Parse, when the Process-Load
// Driver actually attempts to parse the slice Region hands it.
const (
	baseHeaderSize        = 20
	totalLengthFieldStart = 12
	totalLengthFieldEnd   = 16
)

var magic = [4]byte{'P', 'C', 'H', '1'}

// Region is a FlashRegion-shaped walker over a contiguous byte
// range: it satisfies internal/loader.FlashRegion structurally, without
// either package importing the other.
type Region struct {
	base   int64
	data   []byte
	off    int64
	closer func() error
	closed bool
}

// newRegion constructs a Region over data, whose first byte is at flash
// address base. closer releases any OS resources; it may be nil.
func newRegion(base int64, data []byte, closer func() error) *Region {
	return &Region{base: base, data: data, closer: closer}
}

// NewMemoryRegion wraps an in-memory byte slice as a Region, for tests and
// for any deployment that loads its flash image into a plain []byte
// instead of mapping a file.
func NewMemoryRegion(base int64, data []byte) *Region {
	return newRegion(base, data, nil)
}

// Next implements internal/loader.FlashRegion: it peeks the next
// candidate container's magic and declared total length, and yields the
// address and a slice of exactly that length (or the remainder of data,
// if truncated -- internal/container.Parse will report the truncation).
// A missing magic or a declared length of zero is the sentinel-typed
// base header that terminates the scan.
func (r *Region) Next() (int64, []byte, bool) {
	if r.closed {
		return 0, nil, false
	}
	remaining := r.data[r.off:]
	if int64(len(remaining)) < baseHeaderSize {
		return 0, nil, false
	}
	if remaining[0] != magic[0] || remaining[1] != magic[1] || remaining[2] != magic[2] || remaining[3] != magic[3] {
		return 0, nil, false
	}

	total := binary.LittleEndian.Uint32(remaining[totalLengthFieldStart:totalLengthFieldEnd])
	if total == 0 {
		return 0, nil, false
	}

	addr := r.base + r.off
	end := int64(total)
	if end > int64(len(remaining)) {
		end = int64(len(remaining))
	}
	slice := remaining[:end]

	r.off += int64(total)
	return addr, slice, true
}

// Close releases any OS resources this Region holds. It is a no-op for
// an in-memory region.
func (r *Region) Close() error {
	if r.closed {
		return ErrAlreadyClosed
	}
	r.closed = true
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
