package verify

import "errors"

var (
	// ErrUntrustedKey indicates an RSA credential's embedded modulus does
	// not match any key in the TrustedKeyStore.
	ErrUntrustedKey = errors.New("verify: key not in trusted key store")

	// ErrSignatureMismatch indicates a credential's signature does not
	// verify under the resolved trusted key.
	ErrSignatureMismatch = errors.New("verify: signature mismatch")

	// ErrHashNotAllowed indicates a SHA-256/384/512 credential's hash is
	// not in the configured allowlist.
	ErrHashNotAllowed = errors.New("verify: hash not in allowlist")

	// ErrMalformedCredential indicates a credential record's data does
	// not have the length its type requires.
	ErrMalformedCredential = errors.New("verify: malformed credential record")
)
