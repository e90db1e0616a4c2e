package verify

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/procheckd/internal/container"
)

// Verifier is the asynchronous cryptographic verifier contract: given the
// container's integrity range (bytes [0, binary_end_offset) -- covers
// headers and the executable payload, never the footers) and one
// credential record, it asynchronously produces Accept, Pass, Reject, or
// Error. Exactly one verification may be outstanding per Verifier instance.
type Verifier interface {
	Verify(ctx context.Context, integrityRange []byte, cred container.Footer) *Future
}

const (
	rsa3072KeyLen = 384
	rsa4096KeyLen = 512
)

// RSAVerifier is a reference Verifier backed by PKCS#1 v1.5 signatures over
// SHA-512 for the Rsa3072*/Rsa4096* credential types, and a
// hash-allowlist check for the SHA256/SHA384/SHA512 types. CleartextID,
// Reserved, and unrecognized types are not understood by this verifier and
// fall through as Pass. It is not a hardened production verifier; it is a
// plausible implementation of the contract.
type RSAVerifier struct {
	keys   TrustedKeyStore
	hashes HashAllowlist
	log    *slog.Logger

	gate  chan struct{}
	group errgroup.Group
}

// NewRSAVerifier constructs an RSAVerifier. hashes may be nil, in which
// case SHA256/384/512 credentials always Reject (no hash is ever allowed).
func NewRSAVerifier(keys TrustedKeyStore, hashes HashAllowlist, log *slog.Logger) *RSAVerifier {
	if log == nil {
		log = slog.Default()
	}
	if hashes == nil {
		hashes = MapHashAllowlist{}
	}
	return &RSAVerifier{
		keys:   keys,
		hashes: hashes,
		log:    log.With(slog.String("component", "verify")),
		gate:   make(chan struct{}, 1),
	}
}

// Verify implements Verifier. It acquires the single-outstanding-
// verification gate before starting work and releases it when the
// underlying check completes, so a second call blocks until the first is
// done -- the Future it returns is fulfilled from a dedicated goroutine.
// If ctx is done before the gate is acquired, Verify instead returns a
// Future already fulfilled with Error and ctx.Err().
func (v *RSAVerifier) Verify(ctx context.Context, integrityRange []byte, cred container.Footer) *Future {
	fut := newFuture()

	select {
	case v.gate <- struct{}{}:
	case <-ctx.Done():
		fut.fulfill(Result{Outcome: Error, Err: ctx.Err()})
		return fut
	}

	v.group.Go(func() error {
		defer func() { <-v.gate }()
		fut.fulfill(v.verifyOne(integrityRange, cred))
		return nil
	})

	return fut
}

// Close waits for any in-flight verification goroutine to finish. Callers
// shutting down a process should call it once no further Verify calls
// will be made, so nothing outlives the Verifier (grounds goleak's
// expectation that the test binary exits with no stray goroutines).
func (v *RSAVerifier) Close() error {
	return v.group.Wait()
}

func (v *RSAVerifier) verifyOne(integrityRange []byte, cred container.Footer) Result {
	switch cred.Type {
	case container.CredentialRsa3072Key:
		return v.verifyRSA(integrityRange, cred.Data, rsa3072KeyLen, 0)
	case container.CredentialRsa3072KeyWithID:
		return v.verifyRSA(integrityRange, cred.Data, rsa3072KeyLen, 8)
	case container.CredentialRsa4096Key:
		return v.verifyRSA(integrityRange, cred.Data, rsa4096KeyLen, 0)
	case container.CredentialRsa4096KeyWithID:
		return v.verifyRSA(integrityRange, cred.Data, rsa4096KeyLen, 8)
	case container.CredentialSHA256:
		return v.verifyHash(integrityRange, cred.Data, sum256)
	case container.CredentialSHA384:
		return v.verifyHash(integrityRange, cred.Data, sum384)
	case container.CredentialSHA512:
		return v.verifyHash(integrityRange, cred.Data, sum512)
	case container.CredentialCleartextID, container.CredentialReserved:
		return Result{Outcome: Pass}
	default:
		v.log.Debug("credential type not understood", slog.Any("type", cred.Type))
		return Result{Outcome: Pass}
	}
}

// verifyRSA checks a Rsa3072Key/Rsa4096Key-family credential. Its data
// layout is keyLen bytes of modulus, keyLen bytes of signature, followed
// by idLen extra bytes of embedded application id (idLen is 0 for the
// plain key variants).
func (v *RSAVerifier) verifyRSA(integrityRange, data []byte, keyLen, idLen int) Result {
	if len(data) != keyLen*2+idLen {
		return Result{Outcome: Error, Err: fmt.Errorf("rsa credential: %w", ErrMalformedCredential)}
	}

	modulus := data[:keyLen]
	sig := data[keyLen : keyLen*2]

	pub, ok := v.keys.Lookup(modulus)
	if !ok {
		return Result{Outcome: Reject, Err: ErrUntrustedKey}
	}

	hashed := sha512.Sum512(integrityRange)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA512, hashed[:], sig); err != nil {
		return Result{Outcome: Reject, Err: fmt.Errorf("%w: %v", ErrSignatureMismatch, err)}
	}

	return Result{Outcome: Accept}
}

func (v *RSAVerifier) verifyHash(integrityRange, want []byte, sum func([]byte) [sha512.Size]byte) Result {
	got := sum(integrityRange)
	n := len(want)
	if n > len(got) {
		n = len(got)
	}
	if subtle.ConstantTimeCompare(got[:n], want[:n]) != 1 {
		return Result{Outcome: Reject, Err: ErrSignatureMismatch}
	}
	if !v.hashes.Allowed(want) {
		return Result{Outcome: Reject, Err: ErrHashNotAllowed}
	}
	return Result{Outcome: Accept}
}

func sum256(b []byte) [sha512.Size]byte {
	h := sha256.Sum256(b)
	var out [sha512.Size]byte
	copy(out[:], h[:])
	return out
}

func sum384(b []byte) [sha512.Size]byte {
	h := sha512.Sum384(b)
	var out [sha512.Size]byte
	copy(out[:], h[:])
	return out
}

func sum512(b []byte) [sha512.Size]byte {
	return sha512.Sum512(b)
}
