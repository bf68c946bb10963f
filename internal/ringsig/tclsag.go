package ringsig

import "github.com/salvium/wallet-core/internal/cryptoops"

// TRing is the public material a TCLSAG signs over. Unlike CLSAG,
// every ring member carries two independent one-time keys: P (the
// ordinary spend address, secret x) and P2 (the Salvium audit-tag
// key, secret y, built on T rather than G). The signature proves
// knowledge of both secrets for the same ring index without revealing
// which one.
type TRing struct {
	P  []cryptoops.Point
	P2 []cryptoops.Point
	C  []cryptoops.Point
	CPrime cryptoops.Point
}

// TSignature is a TCLSAG proof.
type TSignature struct {
	SX []cryptoops.Scalar
	SY []cryptoops.Scalar
	C1 cryptoops.Scalar
	D  cryptoops.Point
}

func tAggregateHashes(ring TRing, keyImage, d cryptoops.Point) (muP, muP2, muC cryptoops.Scalar) {
	var buf []byte
	buf = append(buf, "TCLSAG_agg_0"...)
	for _, p := range ring.P {
		enc := p.Compress()
		buf = append(buf, enc[:]...)
	}
	for _, p := range ring.P2 {
		enc := p.Compress()
		buf = append(buf, enc[:]...)
	}
	for _, c := range ring.C {
		enc := c.Compress()
		buf = append(buf, enc[:]...)
	}
	kiEnc := keyImage.Compress()
	buf = append(buf, kiEnc[:]...)
	dEnc := d.Compress()
	buf = append(buf, dEnc[:]...)
	cpEnc := ring.CPrime.Compress()
	buf = append(buf, cpEnc[:]...)

	h0 := cryptoops.Keccak256(buf)
	muP = cryptoops.ScReduce(h0[:])

	buf[11] = '1' // "TCLSAG_agg_1"
	h1 := cryptoops.Keccak256(buf)
	muP2 = cryptoops.ScReduce(h1[:])

	buf[11] = '2' // "TCLSAG_agg_2"
	h2 := cryptoops.Keccak256(buf)
	muC = cryptoops.ScReduce(h2[:])
	return muP, muP2, muC
}

func tRoundChallenge(msg []byte, muP, muP2, muC cryptoops.Scalar, keyImage, d cryptoops.Point, l, r cryptoops.Point) cryptoops.Scalar {
	var buf []byte
	buf = append(buf, "TCLSAG_round"...)
	muPb := muP.Bytes()
	buf = append(buf, muPb[:]...)
	muP2b := muP2.Bytes()
	buf = append(buf, muP2b[:]...)
	muCb := muC.Bytes()
	buf = append(buf, muCb[:]...)
	kiEnc := keyImage.Compress()
	buf = append(buf, kiEnc[:]...)
	dEnc := d.Compress()
	buf = append(buf, dEnc[:]...)
	buf = append(buf, msg...)
	lEnc := l.Compress()
	buf = append(buf, lEnc[:]...)
	rEnc := r.Compress()
	buf = append(buf, rEnc[:]...)

	h := cryptoops.Keccak256(buf)
	return cryptoops.ScReduce(h[:])
}

// TSign produces a TCLSAG proof. x is the spend secret (P[pi] = x*G),
// y is the audit-tag secret (P2[pi] = y*T), and zDiff folds the real
// commitment's mask against the pseudo-output's, exactly as in CLSAG.
func TSign(m []byte, ring TRing, pi int, x, y, zDiff cryptoops.Scalar) (TSignature, cryptoops.Point, error) {
	n := len(ring.P)
	if pi < 0 || pi >= n || len(ring.P2) != n || len(ring.C) != n {
		return TSignature{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "tclsag: malformed ring"}
	}

	hp := cryptoops.HashToPoint(ring.P[pi].Compress()[:])
	keyImage := cryptoops.ScalarMult(x, hp)
	d := cryptoops.ScalarMult(zDiff, hp)

	muP, muP2, muC := tAggregateHashes(ring, keyImage, d)

	alphaX, err := randomScalar()
	if err != nil {
		return TSignature{}, cryptoops.Point{}, err
	}
	alphaY, err := randomScalar()
	if err != nil {
		return TSignature{}, cryptoops.Point{}, err
	}

	sx := make([]cryptoops.Scalar, n)
	sy := make([]cryptoops.Scalar, n)
	for i := range sx {
		rx, err := randomScalar()
		if err != nil {
			return TSignature{}, cryptoops.Point{}, err
		}
		ry, err := randomScalar()
		if err != nil {
			return TSignature{}, cryptoops.Point{}, err
		}
		sx[i] = rx
		sy[i] = ry
	}

	l0 := cryptoops.PointAdd(cryptoops.ScalarMultBase(alphaX), cryptoops.ScalarMult(alphaY, cryptoops.T()))
	r0 := cryptoops.ScalarMult(alphaX, hp)
	c := tRoundChallenge(m, muP, muP2, muC, keyImage, d, l0, r0)

	// See the analogous comment in clsag.go: the signature must publish
	// c_0 (what verification, starting from index 0, expects), which is
	// not generally the c_pi this loop closes on.
	var c0 cryptoops.Scalar
	haveC0 := false

	idx := (pi + 1) % n
	for idx != pi {
		if idx == 0 {
			c0 = c
			haveC0 = true
		}
		pAgg := cryptoops.PointAdd(
			cryptoops.PointAdd(cryptoops.ScalarMult(muP, ring.P[idx]), cryptoops.ScalarMult(muP2, ring.P2[idx])),
			cryptoops.ScalarMult(muC, cryptoops.PointSub(ring.C[idx], ring.CPrime)),
		)
		l := cryptoops.PointAdd(
			cryptoops.PointAdd(cryptoops.ScalarMultBase(sx[idx]), cryptoops.ScalarMult(sy[idx], cryptoops.T())),
			cryptoops.ScalarMult(c, pAgg),
		)

		hpI := cryptoops.HashToPoint(ring.P[idx].Compress()[:])
		rAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, keyImage), cryptoops.ScalarMult(muC, d))
		r := cryptoops.PointAdd(cryptoops.ScalarMult(sx[idx], hpI), cryptoops.ScalarMult(c, rAgg))

		c = tRoundChallenge(m, muP, muP2, muC, keyImage, d, l, r)
		idx = (idx + 1) % n
	}
	if !haveC0 {
		c0 = c
	}

	if c.IsZero() {
		return TSignature{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "tclsag: c0 is zero, retry with fresh randomness"}
	}

	innerX := muP.Mul(x).Add(muC.Mul(zDiff))
	sx[pi] = alphaX.Sub(c.Mul(innerX))
	sy[pi] = alphaY.Sub(c.Mul(muP2.Mul(y)))

	return TSignature{SX: sx, SY: sy, C1: c0, D: d}, keyImage, nil
}

// TVerify checks a TCLSAG signature.
func TVerify(m []byte, ring TRing, sig TSignature, keyImage cryptoops.Point) error {
	n := len(ring.P)
	if len(sig.SX) != n || len(sig.SY) != n {
		return &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "tclsag: response count does not match ring size"}
	}
	if err := checkSubgroup(keyImage); err != nil {
		return err
	}

	muP, muP2, muC := tAggregateHashes(ring, keyImage, sig.D)

	c := sig.C1
	for i := 0; i < n; i++ {
		pAgg := cryptoops.PointAdd(
			cryptoops.PointAdd(cryptoops.ScalarMult(muP, ring.P[i]), cryptoops.ScalarMult(muP2, ring.P2[i])),
			cryptoops.ScalarMult(muC, cryptoops.PointSub(ring.C[i], ring.CPrime)),
		)
		l := cryptoops.PointAdd(
			cryptoops.PointAdd(cryptoops.ScalarMultBase(sig.SX[i]), cryptoops.ScalarMult(sig.SY[i], cryptoops.T())),
			cryptoops.ScalarMult(c, pAgg),
		)

		hpI := cryptoops.HashToPoint(ring.P[i].Compress()[:])
		rAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, keyImage), cryptoops.ScalarMult(muC, sig.D))
		r := cryptoops.PointAdd(cryptoops.ScalarMult(sig.SX[i], hpI), cryptoops.ScalarMult(c, rAgg))

		c = tRoundChallenge(m, muP, muP2, muC, keyImage, sig.D, l, r)
	}

	if !c.Equal(sig.C1) {
		return &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "tclsag: ring does not close"}
	}
	return nil
}
