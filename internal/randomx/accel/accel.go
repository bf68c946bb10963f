// Package accel selects between RandomX hashing backends. It mirrors
// the engine's hardware/software split: a default pure-Go backend
// always available, and a build-tagged slot for a faster backend when
// one is vetted and linked in.
package accel

import "github.com/salvium/wallet-core/internal/randomx"

// Hasher computes RandomX hashes against a fixed Context.
type Hasher interface {
	CalculateHash(input []byte) [32]byte
}

// NewHasher returns the best available backend for ctx. The build
// actually selected is determined by which file in this package is
// compiled in, see accel_software.go.
func NewHasher(ctx *randomx.Context) Hasher {
	return newBackend(ctx)
}
