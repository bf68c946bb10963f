package bulletproofs

import (
	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// Verify checks an aggregated Bulletproofs+ range proof against the
// real output commitments it ranges over. commitments holds exactly
// the values the proof was built from, unpadded; Verify pads it to the
// same power-of-two aggregation the prover used before checking.
func Verify(commitments []cryptoops.Point, proof txcodec.BulletproofPlus) error {
	if len(commitments) == 0 {
		return &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproofs: no commitments to verify"}
	}
	if len(commitments) > MaxAggregation {
		return &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproofs: too many values for one proof"}
	}

	m := nextPowerOfTwo(len(commitments))
	padded := make([]cryptoops.Point, m)
	copy(padded, commitments)
	for j := len(commitments); j < m; j++ {
		padded[j] = cryptoops.Identity()
	}

	n := m * BitLength
	rounds := log2Exact(n)
	if len(proof.L) != rounds || len(proof.R) != rounds {
		return &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproofs: wrong number of folding rounds for aggregation size"}
	}

	gi, hi := generatorVectors(n)

	transcript := NewTranscript(padded)
	y := transcript.challengeFromPoints("bulletproof_plus_y", proof.A)
	z := transcript.challengeFromScalars("bulletproof_plus_z", y)

	st, err := buildStatement(m, y, z)
	if err != nil {
		return err
	}

	// Balance check: ties TauX/THat back to the committed values via
	// the aggregated offset delta(y, z).
	lhs := vectorCommit(st.zPowers, padded)
	lhs = cryptoops.PointAdd(lhs, cryptoops.ScalarMult(st.delta.Sub(proof.THat), cryptoops.H()))
	rhs := cryptoops.ScalarMult(proof.TauX, cryptoops.G())
	if !lhs.Equal(rhs) {
		return &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "bulletproofs: committed value / disclosed sum mismatch"}
	}

	hiPrime := make([]cryptoops.Point, n)
	dTimesYInv := make([]cryptoops.Scalar, n)
	for k := 0; k < n; k++ {
		hiPrime[k] = cryptoops.ScalarMult(st.yInvPowers[k], hi[k])
		dTimesYInv[k] = st.d[k].Mul(st.yInvPowers[k])
	}

	sumGi := vectorCommit(onesVector(n), gi)
	sumHi := vectorCommit(onesVector(n), hi)
	pPre := cryptoops.PointAdd(cryptoops.PointSub(proof.A, cryptoops.ScalarMult(z, sumGi)), cryptoops.ScalarMult(z, sumHi))
	pPre = cryptoops.PointAdd(pPre, vectorCommit(dTimesYInv, hi))
	p := cryptoops.PointAdd(pPre, cryptoops.ScalarMult(proof.THat, crossTermGenerator))

	challenges := make([]cryptoops.Scalar, rounds)
	for round := 0; round < rounds; round++ {
		challenges[round] = transcript.challengeFromPoints("bulletproof_plus_fold", proof.L[round], proof.R[round])
	}

	gFinal, hFinal := foldGenerators(gi, hiPrime, challenges)
	pFinal := foldPoint(p, proof.L, proof.R, challenges)

	e := transcript.challengeFromPoints("bulletproof_plus_final", proof.A1)

	left := cryptoops.PointAdd(pFinal, cryptoops.ScalarMult(e, proof.A1))
	right := cryptoops.PointAdd(cryptoops.ScalarMult(proof.R1, gFinal), cryptoops.ScalarMult(proof.S1, hFinal))
	right = cryptoops.PointAdd(right, cryptoops.ScalarMult(proof.R1.Mul(proof.S1), crossTermGenerator))
	right = cryptoops.PointAdd(right, cryptoops.ScalarMult(proof.D1, cryptoops.G()))

	if !left.Equal(right) {
		return &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "bulletproofs: final inner-product opening failed"}
	}
	return nil
}
