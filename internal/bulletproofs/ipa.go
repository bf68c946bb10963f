package bulletproofs

import "github.com/salvium/wallet-core/internal/cryptoops"

// ipaState is the prover's working state for one run of the folding
// argument: vectors a, b paired with generator vectors G, H, proving
// knowledge of a, b such that P = <a,G> + <b,H> + <a,b>*U + rho*Base,
// without revealing a, b beyond the final round.
type ipaState struct {
	a, b   []cryptoops.Scalar
	g, h   []cryptoops.Point
	rho    cryptoops.Scalar
}

func innerProduct(a, b []cryptoops.Scalar) cryptoops.Scalar {
	sum := cryptoops.ScalarZero()
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

func vectorCommit(a []cryptoops.Scalar, g []cryptoops.Point) cryptoops.Point {
	acc := cryptoops.Identity()
	for i := range a {
		acc = cryptoops.PointAdd(acc, cryptoops.ScalarMult(a[i], g[i]))
	}
	return acc
}

// foldRound halves a, b, g, h, consuming one Fiat-Shamir challenge it
// derives from the transcript together with the L, R it computes; it
// returns the round's (L, R) for the proof transcript.
func (st *ipaState) foldRound(transcript *Transcript) (l, r cryptoops.Point) {
	n := len(st.a)
	half := n / 2

	aLo, aHi := st.a[:half], st.a[half:]
	bLo, bHi := st.b[:half], st.b[half:]
	gLo, gHi := st.g[:half], st.g[half:]
	hLo, hHi := st.h[:half], st.h[half:]

	cL := innerProduct(aLo, bHi)
	cR := innerProduct(aHi, bLo)

	l = cryptoops.PointAdd(cryptoops.PointAdd(vectorCommit(aLo, gHi), vectorCommit(bHi, hLo)), cryptoops.ScalarMult(cL, crossTermGenerator))
	r = cryptoops.PointAdd(cryptoops.PointAdd(vectorCommit(aHi, gLo), vectorCommit(bLo, hHi)), cryptoops.ScalarMult(cR, crossTermGenerator))

	e := transcript.challengeFromPoints("bulletproof_plus_fold", l, r)
	eInv, err := e.Invert()
	if err != nil {
		// e == 0 has negligible probability from a hash output; treat as
		// a transcript collision and fold with the additive identity's
		// safe stand-in (one) rather than propagate a panic-prone zero.
		eInv = cryptoops.ScalarOne()
	}

	newA := make([]cryptoops.Scalar, half)
	newB := make([]cryptoops.Scalar, half)
	newG := make([]cryptoops.Point, half)
	newH := make([]cryptoops.Point, half)
	for i := 0; i < half; i++ {
		newA[i] = e.Mul(aLo[i]).Add(eInv.Mul(aHi[i]))
		newB[i] = eInv.Mul(bLo[i]).Add(e.Mul(bHi[i]))
		newG[i] = cryptoops.PointAdd(cryptoops.ScalarMult(eInv, gLo[i]), cryptoops.ScalarMult(e, gHi[i]))
		newH[i] = cryptoops.PointAdd(cryptoops.ScalarMult(e, hLo[i]), cryptoops.ScalarMult(eInv, hHi[i]))
	}
	st.a, st.b, st.g, st.h = newA, newB, newG, newH
	return l, r
}

// foldGenerators replays the same generator-vector halving the prover
// performed, using the recorded per-round challenges, so the verifier
// ends up with the same single (G, H) pair the prover's final round
// opened against.
func foldGenerators(g, h []cryptoops.Point, challenges []cryptoops.Scalar) (cryptoops.Point, cryptoops.Point) {
	for _, e := range challenges {
		eInv, err := e.Invert()
		if err != nil {
			eInv = cryptoops.ScalarOne()
		}
		half := len(g) / 2
		newG := make([]cryptoops.Point, half)
		newH := make([]cryptoops.Point, half)
		for i := 0; i < half; i++ {
			newG[i] = cryptoops.PointAdd(cryptoops.ScalarMult(eInv, g[i]), cryptoops.ScalarMult(e, g[half+i]))
			newH[i] = cryptoops.PointAdd(cryptoops.ScalarMult(e, h[i]), cryptoops.ScalarMult(eInv, h[half+i]))
		}
		g, h = newG, newH
	}
	return g[0], h[0]
}

// foldPoint replays P' = e^2*L + P + e^{-2}*R across every round.
func foldPoint(p cryptoops.Point, ls, rs []cryptoops.Point, challenges []cryptoops.Scalar) cryptoops.Point {
	for i, e := range challenges {
		e2 := e.Mul(e)
		e2Inv, err := e2.Invert()
		if err != nil {
			e2Inv = cryptoops.ScalarOne()
		}
		p = cryptoops.PointAdd(cryptoops.PointAdd(cryptoops.ScalarMult(e2, ls[i]), p), cryptoops.ScalarMult(e2Inv, rs[i]))
	}
	return p
}
