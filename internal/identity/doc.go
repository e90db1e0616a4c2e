// Package identity implements the identifier policy and the
// short-identifier compressor: pure functions mapping a checked container
// and its accepted credential to an ApplicationIdentifier, and an
// ApplicationIdentifier down to a 32-bit ShortIdentifier.
package identity
