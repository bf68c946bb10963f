// Package bulletproofs implements the Bulletproofs+ aggregated
// range-proof prover and verifier: the proof that every output
// commitment in a transaction hides a non-negative amount in
// [0, 2^64) without revealing the amount itself.
package bulletproofs

import (
	"encoding/binary"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

// BitLength is the range width proved per value (N in the paper).
const BitLength = 64

// MaxAggregation is the largest number of output commitments one
// proof aggregates before a second proof is required.
const MaxAggregation = 16

// crossTermGenerator (U) is derived once, and the domain-separated
// per-index vector generators (Gi, Hi) on every generatorVectors call,
// via hash_to_point, exactly as G/H/T are derived in cryptoops —
// deterministic, nothing-up-my-sleeve.
var crossTermGenerator = cryptoops.HashToPoint([]byte("bulletproof_plus_U"))

func vectorGenerator(label string, index int) cryptoops.Point {
	buf := make([]byte, len(label)+8)
	copy(buf, label)
	binary.LittleEndian.PutUint64(buf[len(label):], uint64(index))
	return cryptoops.HashToPoint(buf)
}

func generatorVectors(n int) (gi, hi []cryptoops.Point) {
	gi = make([]cryptoops.Point, n)
	hi = make([]cryptoops.Point, n)
	for i := 0; i < n; i++ {
		gi[i] = vectorGenerator("bulletproof_plus_G", i)
		hi[i] = vectorGenerator("bulletproof_plus_H", i)
	}
	return gi, hi
}

func nextPowerOfTwo(m int) int {
	p := 1
	for p < m {
		p *= 2
	}
	return p
}
