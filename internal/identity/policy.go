package identity

import (
	"crypto/sha256"

	"github.com/dantte-lp/procheckd/internal/container"
)

// Input bundles what a Policy needs to assign an identifier: a
// deterministic function of these fields, nothing else.
type Input struct {
	// PackageName is the Main Header's package-name field, if any.
	PackageName []byte
	// Payload is the container's executable payload slice
	// [header_end, binary_end_offset).
	Payload []byte
	// Accepted is the footer that produced Decided(Accept), valid only
	// when HasAccepted is true.
	Accepted container.Footer
	// HasAccepted is false when the container passed via Exhausted +
	// a permissive policy, in which case no single footer is decisive.
	HasAccepted bool
}

// Policy is the identifier-assignment contract: a pure function from a
// checked container's inputs to an ApplicationIdentifier.
type Policy interface {
	Identify(in Input) ApplicationIdentifier
}

// DefaultPolicy assigns identifiers in precedence order: embedded
// *WithID id, else accepted key bytes, else CleartextID, else a global
// payload-SHA-256 fallback, else LocallyUnique.
type DefaultPolicy struct{}

// Identify implements Policy.
func (DefaultPolicy) Identify(in Input) ApplicationIdentifier {
	if in.HasAccepted {
		if id, ok := identifierFromAccepted(in.Accepted); ok {
			return id
		}
	}

	if len(in.Payload) > 0 {
		sum := sha256.Sum256(in.Payload)
		return Concrete(sum[:])
	}

	return LocallyUniqueIdentifier()
}

// identifierFromAccepted extracts an identifier directly from the
// credential that decided Accept, when that credential type carries one.
func identifierFromAccepted(f container.Footer) (ApplicationIdentifier, bool) {
	switch f.Type {
	case container.CredentialRsa3072KeyWithID, container.CredentialRsa4096KeyWithID:
		// Embedded application id is the trailing 8 bytes, after the
		// modulus and signature halves.
		if len(f.Data) < 8 {
			return ApplicationIdentifier{}, false
		}
		id := f.Data[len(f.Data)-8:]
		return Concrete(id), true

	case container.CredentialRsa3072Key, container.CredentialRsa4096Key:
		keyLen := len(f.Data) / 2
		return Concrete(f.Data[:keyLen]), true

	case container.CredentialCleartextID:
		return Concrete(f.Data), true

	default:
		return ApplicationIdentifier{}, false
	}
}
