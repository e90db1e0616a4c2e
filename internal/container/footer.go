package container

import (
	"encoding/binary"
	"fmt"
)

// CredentialType identifies the kind of a credential record found in a
// container's footer area.
type CredentialType uint32

// Recognized credential record types and their fixed data lengths. Reserved
// and unrecognized types carry a variable, self-declared length and are
// skipped without interpretation.
const (
	CredentialReserved         CredentialType = 0
	CredentialCleartextID      CredentialType = 1
	CredentialRsa3072Key       CredentialType = 2
	CredentialRsa4096Key       CredentialType = 3
	CredentialRsa3072KeyWithID CredentialType = 4
	CredentialRsa4096KeyWithID CredentialType = 5
	CredentialSHA256           CredentialType = 6
	CredentialSHA384           CredentialType = 7
	CredentialSHA512           CredentialType = 8
)

// fixedCredentialLengths maps a known credential type to its mandatory data
// length. Types absent from this map are treated as variable-length
// (Reserved) or unknown, and are skipped using their self-declared length.
var fixedCredentialLengths = map[CredentialType]uint16{
	CredentialCleartextID:      8,
	CredentialRsa3072Key:       768,
	CredentialRsa4096Key:       1024,
	CredentialRsa3072KeyWithID: 776,
	CredentialRsa4096KeyWithID: 1032,
	CredentialSHA256:           32,
	CredentialSHA384:           48,
	CredentialSHA512:           64,
}

// String returns a human-readable name for well-known credential types.
func (t CredentialType) String() string {
	switch t {
	case CredentialReserved:
		return "Reserved"
	case CredentialCleartextID:
		return "CleartextID"
	case CredentialRsa3072Key:
		return "Rsa3072Key"
	case CredentialRsa4096Key:
		return "Rsa4096Key"
	case CredentialRsa3072KeyWithID:
		return "Rsa3072KeyWithID"
	case CredentialRsa4096KeyWithID:
		return "Rsa4096KeyWithID"
	case CredentialSHA256:
		return "SHA256"
	case CredentialSHA384:
		return "SHA384"
	case CredentialSHA512:
		return "SHA512"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// Footer is a single credential record yielded by the footer iterator:
// (type, length, data), where data is a zero-copy slice into the
// container's backing bytes.
type Footer struct {
	Type   CredentialType
	Length uint16
	Data   []byte
}

// IsKnown reports whether Type has a fixed, interpretable layout.
func (f Footer) IsKnown() bool {
	_, ok := fixedCredentialLengths[f.Type]
	return ok
}

// FooterIterator yields a container's credential records in footer order
// without copying. It halts (returning ok=false and a non-nil err) on the
// first TLV whose declared length would exceed the container bound;
// records already yielded remain valid.
type FooterIterator struct {
	buf   []byte
	off   int64
	end   int64
	index int
	err   error
}

// newFooterIterator constructs an iterator over buf[start:end].
func newFooterIterator(buf []byte, start, end int64) *FooterIterator {
	return &FooterIterator{buf: buf, off: start, end: end}
}

// Err returns the error that halted iteration, if any. It is nil while
// iteration is ongoing or after it finishes exhausting the footer area
// cleanly.
func (it *FooterIterator) Err() error {
	return it.err
}

// Index returns the zero-based index of the record last returned by Next,
// or -1 if Next has not yet been called.
func (it *FooterIterator) Index() int {
	return it.index - 1
}

// Next advances the iterator and reports whether a record was produced.
// It returns false both at clean exhaustion (Err() == nil) and on a
// truncated-record error (Err() == ErrTruncatedFooter).
func (it *FooterIterator) Next() (Footer, bool) {
	if it.err != nil {
		return Footer{}, false
	}
	if it.off >= it.end {
		return Footer{}, false
	}
	if it.off+6 > it.end {
		it.err = fmt.Errorf("footer index %d: %w", it.index, ErrTruncatedFooter)
		return Footer{}, false
	}

	typ := CredentialType(binary.LittleEndian.Uint32(it.buf[it.off : it.off+4]))
	length := binary.LittleEndian.Uint16(it.buf[it.off+4 : it.off+6])
	dataStart := it.off + 6
	dataEnd := dataStart + int64(length)

	if dataEnd > it.end {
		it.err = fmt.Errorf("footer index %d: %w", it.index, ErrTruncatedFooter)
		return Footer{}, false
	}

	f := Footer{Type: typ, Length: length, Data: it.buf[dataStart:dataEnd]}
	it.off = dataEnd
	it.index++

	return f, true
}
