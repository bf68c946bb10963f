package bulletproofs

import (
	"crypto/rand"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

func randomScalar() (cryptoops.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return cryptoops.Scalar{}, err
	}
	return cryptoops.ScReduce(buf[:]), nil
}

// Prove builds an aggregated Bulletproofs+ range proof that every
// amount in amounts, committed with its paired mask, lies in
// [0, 2^64). It returns the proof alongside the full (power-of-two
// padded) commitment list it was built against; callers keep the
// first len(amounts) commitments as the real outputs and discard the
// padding, which is always the identity commitment to zero.
func Prove(amounts []uint64, masks []cryptoops.Scalar) (txcodec.BulletproofPlus, []cryptoops.Point, error) {
	if len(amounts) == 0 || len(amounts) != len(masks) {
		return txcodec.BulletproofPlus{}, nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproofs: amounts and masks length mismatch"}
	}
	if len(amounts) > MaxAggregation {
		return txcodec.BulletproofPlus{}, nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproofs: too many values for one proof"}
	}

	m := nextPowerOfTwo(len(amounts))
	paddedAmounts := make([]uint64, m)
	paddedMasks := make([]cryptoops.Scalar, m)
	copy(paddedAmounts, amounts)
	copy(paddedMasks, masks)
	for j := len(amounts); j < m; j++ {
		paddedMasks[j] = cryptoops.ScalarZero()
	}

	commitments := make([]cryptoops.Point, m)
	for j := 0; j < m; j++ {
		commitments[j] = cryptoops.Commit(cryptoops.ScalarFromUint64(paddedAmounts[j]), paddedMasks[j])
	}

	n := m * BitLength
	gi, hi := generatorVectors(n)

	aL := make([]cryptoops.Scalar, n)
	aR := make([]cryptoops.Scalar, n)
	for j := 0; j < m; j++ {
		v := paddedAmounts[j]
		for i := 0; i < BitLength; i++ {
			bit := (v >> uint(i)) & 1
			aL[j*BitLength+i] = cryptoops.ScalarFromUint64(bit)
			aR[j*BitLength+i] = aL[j*BitLength+i].Sub(cryptoops.ScalarOne())
		}
	}

	alpha, err := randomScalar()
	if err != nil {
		return txcodec.BulletproofPlus{}, nil, err
	}
	a := cryptoops.PointAdd(cryptoops.PointAdd(cryptoops.ScalarMult(alpha, cryptoops.G()), vectorCommit(aL, gi)), vectorCommit(aR, hi))

	transcript := NewTranscript(commitments)
	y := transcript.challengeFromPoints("bulletproof_plus_y", a)
	z := transcript.challengeFromScalars("bulletproof_plus_z", y)

	st, err := buildStatement(m, y, z)
	if err != nil {
		return txcodec.BulletproofPlus{}, nil, err
	}

	av := make([]cryptoops.Scalar, n)
	bv := make([]cryptoops.Scalar, n)
	hiPrime := make([]cryptoops.Point, n)
	for k := 0; k < n; k++ {
		av[k] = aL[k].Sub(z)
		bv[k] = st.yPowers[k].Mul(aR[k].Add(z)).Add(st.d[k])
		hiPrime[k] = cryptoops.ScalarMult(st.yInvPowers[k], hi[k])
	}

	tHat := innerProduct(av, bv)

	tauX := cryptoops.ScalarZero()
	for j := 0; j < m; j++ {
		tauX = tauX.Add(st.zPowers[j].Mul(paddedMasks[j]))
	}

	st2 := &ipaState{a: av, b: bv, g: gi, h: hiPrime, rho: alpha}
	rounds := log2Exact(n)
	ls := make([]cryptoops.Point, rounds)
	rs := make([]cryptoops.Point, rounds)
	for round := 0; round < rounds; round++ {
		ls[round], rs[round] = st2.foldRound(transcript)
	}

	mu, err := randomScalar()
	if err != nil {
		return txcodec.BulletproofPlus{}, nil, err
	}
	a1 := cryptoops.ScalarMult(mu, cryptoops.G())
	e := transcript.challengeFromPoints("bulletproof_plus_final", a1)
	d1 := st2.rho.Add(e.Mul(mu))

	proof := txcodec.BulletproofPlus{
		A:    a,
		A1:   a1,
		B:    cryptoops.Identity(),
		R1:   st2.a[0],
		S1:   st2.b[0],
		D1:   d1,
		TauX: tauX,
		THat: tHat,
		L:    ls,
		R:    rs,
	}
	return proof, commitments, nil
}

func onesVector(n int) []cryptoops.Scalar {
	ones := make([]cryptoops.Scalar, n)
	for i := range ones {
		ones[i] = cryptoops.ScalarOne()
	}
	return ones
}

func log2Exact(n int) int {
	rounds := 0
	for n > 1 {
		n /= 2
		rounds++
	}
	return rounds
}
