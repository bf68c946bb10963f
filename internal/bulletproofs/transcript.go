package bulletproofs

import "github.com/salvium/wallet-core/internal/cryptoops"

// Transcript is a simple hash-chained Fiat-Shamir transcript: each
// challenge mixes the running state with a label and whatever points
// or scalars are being bound at that step, then advances the state to
// the digest just produced so the next challenge can't be replayed
// independently of everything before it.
type Transcript struct {
	state [32]byte
}

// NewTranscript seeds the transcript with the statement being proved
// (the output commitments), so the very first challenge already binds
// to what's being ranged over.
func NewTranscript(commitments []cryptoops.Point) *Transcript {
	t := &Transcript{}
	buf := []byte("bulletproof_plus_transcript")
	for _, c := range commitments {
		enc := c.Compress()
		buf = append(buf, enc[:]...)
	}
	t.state = cryptoops.Keccak256(buf)
	return t
}

func (t *Transcript) mix(label string, parts ...[]byte) cryptoops.Scalar {
	buf := append([]byte(nil), t.state[:]...)
	buf = append(buf, label...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	t.state = cryptoops.Keccak256(buf)
	return cryptoops.ScReduce(t.state[:])
}

func (t *Transcript) challengeFromPoints(label string, pts ...cryptoops.Point) cryptoops.Scalar {
	parts := make([][]byte, len(pts))
	for i, p := range pts {
		enc := p.Compress()
		parts[i] = enc[:]
	}
	return t.mix(label, parts...)
}

func (t *Transcript) challengeFromScalars(label string, ss ...cryptoops.Scalar) cryptoops.Scalar {
	parts := make([][]byte, len(ss))
	for i, s := range ss {
		enc := s.Bytes()
		parts[i] = enc[:]
	}
	return t.mix(label, parts...)
}
