package identity

import "crypto/subtle"

// Kind discriminates the variants of ApplicationIdentifier.
type Kind uint8

const (
	// KindAbsent means no identifier could be assigned.
	KindAbsent Kind = iota
	// KindLocallyUnique is the sentinel that compares unequal to
	// everything, including another KindLocallyUnique value.
	KindLocallyUnique
	// KindConcrete carries an opaque, byte-compared identity value.
	KindConcrete
)

// ApplicationIdentifier is a sum type of three variants: Concrete(bytes),
// LocallyUnique, or Absent. The zero value is Absent.
type ApplicationIdentifier struct {
	kind  Kind
	bytes []byte
}

// Absent returns the Absent variant.
func Absent() ApplicationIdentifier {
	return ApplicationIdentifier{kind: KindAbsent}
}

// LocallyUniqueIdentifier returns the LocallyUnique sentinel variant.
func LocallyUniqueIdentifier() ApplicationIdentifier {
	return ApplicationIdentifier{kind: KindLocallyUnique}
}

// Concrete returns the Concrete(b) variant. b is not copied; callers must
// not mutate it afterward.
func Concrete(b []byte) ApplicationIdentifier {
	return ApplicationIdentifier{kind: KindConcrete, bytes: b}
}

// Kind reports which variant this identifier is.
func (a ApplicationIdentifier) Kind() Kind { return a.kind }

// Bytes returns the Concrete payload, or nil for the other variants.
func (a ApplicationIdentifier) Bytes() []byte { return a.bytes }

// Equal reports whether a and b conflict: two Concrete values with
// identical bytes are equal; LocallyUnique and Absent compare unequal to
// everything, including themselves, so they never block a promotion. The
// byte comparison is constant-time since a Concrete identifier may derive
// from key material.
func (a ApplicationIdentifier) Equal(b ApplicationIdentifier) bool {
	if a.kind != KindConcrete || b.kind != KindConcrete {
		return false
	}
	if len(a.bytes) != len(b.bytes) {
		return false
	}
	return subtle.ConstantTimeCompare(a.bytes, b.bytes) == 1
}

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "Absent"
	case KindLocallyUnique:
		return "LocallyUnique"
	case KindConcrete:
		return "Concrete"
	default:
		return "Unknown"
	}
}
