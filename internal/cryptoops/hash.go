// Package cryptoops implements the L0/L1 cryptographic primitives the
// wallet core is built from: CryptoNote-variant Keccak, BLAKE2b, scalar
// and point arithmetic on Ed25519, and the Pedersen commitment scheme
// used to hide output amounts.
//
// Every function here is pure and stateless; none of them touch the
// network, disk, or any mutable package-level state. Invalid-length or
// non-canonical input returns a structured error, never a panic.
package cryptoops

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes data with the original (pre-NIST) Keccak-256
// permutation padding used throughout the CryptoNote family: a single
// 0x01 final byte instead of SHA-3's 0x06 domain-separated padding.
// golang.org/x/crypto/sha3 exposes this directly via NewLegacyKeccak256,
// so no hand-rolled sponge construction is needed.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2b hashes data to outLen bytes (1..64), optionally keyed. Keys
// longer than 32 bytes are rejected with InvalidEncoding since CARROT
// never uses a key larger than a scalar's width.
func Blake2b(outLen int, key []byte, data ...[]byte) ([]byte, error) {
	if outLen < 1 || outLen > 64 {
		return nil, &Error{Kind: InvalidEncoding, Msg: "blake2b: out_len must be in [1,64]"}
	}
	if len(key) > 32 {
		return nil, &Error{Kind: InvalidEncoding, Msg: "blake2b: key too long"}
	}
	h, err := blake2b.New(outLen, key)
	if err != nil {
		return nil, &Error{Kind: InvalidEncoding, Msg: "blake2b: " + err.Error()}
	}
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil), nil
}

// MustBlake2b is Blake2b without the error return, for call sites where
// outLen and key are compile-time constants known to be valid (every
// CARROT domain-separated hash in this package uses this form).
func MustBlake2b(outLen int, key []byte, data ...[]byte) []byte {
	out, err := Blake2b(outLen, key, data...)
	if err != nil {
		panic(err)
	}
	return out
}
