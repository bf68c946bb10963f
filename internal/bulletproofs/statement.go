package bulletproofs

import "github.com/salvium/wallet-core/internal/cryptoops"

// statement bundles the challenge-derived scalars both Prove and
// Verify need to compute identically: the per-index weight d, the
// powers of y, their inverses, and the public offset delta(y,z) that
// ties the proved inner product back to the ranged commitments.
type statement struct {
	n          int
	yPowers    []cryptoops.Scalar
	yInvPowers []cryptoops.Scalar
	zPowers    []cryptoops.Scalar // z^(2+j), j=0..M-1
	d          []cryptoops.Scalar
	delta      cryptoops.Scalar
}

func buildStatement(m int, y, z cryptoops.Scalar) (statement, error) {
	n := m * BitLength
	yInv, err := y.Invert()
	if err != nil {
		return statement{}, &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "bulletproofs: y challenge is zero"}
	}

	yPowers := make([]cryptoops.Scalar, n)
	yInvPowers := make([]cryptoops.Scalar, n)
	yPowers[0] = cryptoops.ScalarOne()
	yInvPowers[0] = cryptoops.ScalarOne()
	for k := 1; k < n; k++ {
		yPowers[k] = yPowers[k-1].Mul(y)
		yInvPowers[k] = yInvPowers[k-1].Mul(yInv)
	}

	zPowers := make([]cryptoops.Scalar, m)
	zSq := z.Mul(z)
	zPowers[0] = zSq
	for j := 1; j < m; j++ {
		zPowers[j] = zPowers[j-1].Mul(z)
	}

	d := make([]cryptoops.Scalar, n)
	for j := 0; j < m; j++ {
		for i := 0; i < BitLength; i++ {
			pow2 := cryptoops.ScalarFromUint64(uint64(1) << uint(i))
			d[j*BitLength+i] = zPowers[j].Mul(pow2)
		}
	}

	ySum := cryptoops.ScalarZero()
	for _, p := range yPowers {
		ySum = ySum.Add(p)
	}
	zSum := cryptoops.ScalarZero()
	for _, p := range zPowers {
		zSum = zSum.Add(p)
	}
	maxUint64 := cryptoops.ScalarFromUint64(^uint64(0))
	twoNMinus1 := maxUint64 // 2^64 - 1 as an unsigned 64-bit value

	oneMinusZ := cryptoops.ScalarOne().Sub(z)
	delta := z.Mul(oneMinusZ).Mul(ySum).Sub(z.Mul(twoNMinus1).Mul(zSum))

	return statement{n: n, yPowers: yPowers, yInvPowers: yInvPowers, zPowers: zPowers, d: d, delta: delta}, nil
}
