package verify

import "crypto/rsa"

// TrustedKeyStore resolves the modulus bytes embedded in an RSA credential
// record to the full public key the verifier should check the signature
// against. The wire record carries no public exponent; the verifier
// supplies it by key identity, so the modulus alone is the lookup key.
type TrustedKeyStore interface {
	Lookup(modulus []byte) (*rsa.PublicKey, bool)
}

// MapKeyStore is a TrustedKeyStore backed by an in-memory set of trusted
// public keys, suitable for tests and for a daemon whose trust anchors are
// loaded once at startup from configuration.
type MapKeyStore struct {
	byModulus map[string]*rsa.PublicKey
}

// NewMapKeyStore builds a MapKeyStore from a list of trusted public keys,
// indexed by the big-endian bytes of their modulus.
func NewMapKeyStore(keys ...*rsa.PublicKey) *MapKeyStore {
	s := &MapKeyStore{byModulus: make(map[string]*rsa.PublicKey, len(keys))}
	for _, k := range keys {
		s.byModulus[string(k.N.Bytes())] = k
	}
	return s
}

// Lookup implements TrustedKeyStore.
func (s *MapKeyStore) Lookup(modulus []byte) (*rsa.PublicKey, bool) {
	// Trim any leading zero-padding so a fixed-width record field and a
	// minimal big.Int encoding compare equal.
	trimmed := modulus
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	k, ok := s.byModulus[string(trimmed)]
	return k, ok
}
