// Package ringsig implements CLSAG and TCLSAG ring signatures: the
// per-input proof that the signer knows the secret key behind one
// (unrevealed) member of a ring, binding the key image for double-
// spend prevention and the pseudo-output commitment for balance.
package ringsig

import (
	"crypto/rand"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

// Ring is the public material a CLSAG signs over: the one-time
// addresses and amount commitments of every ring member, plus the
// pseudo-output commitment this input is spending against.
type Ring struct {
	P []cryptoops.Point // one-time addresses, P[pi] = real spender's key
	C []cryptoops.Point // amount commitments, C[pi] = real output's commitment
	CPrime cryptoops.Point // pseudo-output commitment
}

// Signature is a CLSAG proof. The key image is not carried here: per
// the wire format, it's injected from the corresponding input at
// expansion time.
type Signature struct {
	S  []cryptoops.Scalar
	C1 cryptoops.Scalar
	D  cryptoops.Point
}

func aggregateHashes(ring Ring, keyImage, d cryptoops.Point) (muP, muC cryptoops.Scalar) {
	var buf []byte
	buf = append(buf, "CLSAG_agg_0"...)
	for _, p := range ring.P {
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

	hP := cryptoops.Keccak256(buf)
	muP = cryptoops.ScReduce(hP[:])

	buf[10] = '1' // "CLSAG_agg_1" differs from "CLSAG_agg_0" in its last byte
	hC := cryptoops.Keccak256(buf)
	muC = cryptoops.ScReduce(hC[:])
	return muP, muC
}

func roundChallenge(msg []byte, muP, muC cryptoops.Scalar, keyImage, d cryptoops.Point, l, r cryptoops.Point) cryptoops.Scalar {
	var buf []byte
	buf = append(buf, "CLSAG_round"...)
	muPb := muP.Bytes()
	buf = append(buf, muPb[:]...)
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

func randomScalar() (cryptoops.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return cryptoops.Scalar{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "ringsig: rand read failed"}
	}
	return cryptoops.ScReduce(buf[:]), nil
}

// Sign produces a CLSAG proof for message m, where pi is the real
// signer's index in the ring, k is the real one-time secret (P[pi] =
// k*G), and z is the real commitment's blinding mask such that
// C[pi] - CPrime = (z - z')*G for the pseudo-output's own mask z'
// folded into zDiff = z - z'.
func Sign(m []byte, ring Ring, pi int, k, zDiff cryptoops.Scalar) (Signature, cryptoops.Point, error) {
	n := len(ring.P)
	if pi < 0 || pi >= n {
		return Signature{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "clsag: signer index out of range"}
	}

	hp := cryptoops.HashToPoint(ring.P[pi].Compress()[:])
	keyImage := cryptoops.ScalarMult(k, hp)
	d := cryptoops.ScalarMult(zDiff, hp)

	muP, muC := aggregateHashes(ring, keyImage, d)

	alpha, err := randomScalar()
	if err != nil {
		return Signature{}, cryptoops.Point{}, err
	}

	s := make([]cryptoops.Scalar, n)
	for i := range s {
		rs, err := randomScalar()
		if err != nil {
			return Signature{}, cryptoops.Point{}, err
		}
		s[i] = rs
	}

	aG := cryptoops.ScalarMultBase(alpha)
	aHp := cryptoops.ScalarMult(alpha, hp)
	c := roundChallenge(m, muP, muC, keyImage, d, aG, aHp)

	// Verification always walks the ring starting at index 0 (the
	// verifier doesn't know pi), so the signature must publish c_0, not
	// the c_pi this loop naturally ends on. Capture c_0 the moment the
	// walk reaches index 0; if pi==0 itself, index 0 is never visited as
	// a loop step (it's the signer's own slot) and c_0 coincides with
	// the final c_pi computed below.
	var c0 cryptoops.Scalar
	haveC0 := false

	idx := (pi + 1) % n
	for idx != pi {
		if idx == 0 {
			c0 = c
			haveC0 = true
		}
		pAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, ring.P[idx]), cryptoops.ScalarMult(muC, cryptoops.PointSub(ring.C[idx], ring.CPrime)))
		l := cryptoops.PointAdd(cryptoops.ScalarMultBase(s[idx]), cryptoops.ScalarMult(c, pAgg))

		hpI := cryptoops.HashToPoint(ring.P[idx].Compress()[:])
		rAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, keyImage), cryptoops.ScalarMult(muC, d))
		r := cryptoops.PointAdd(cryptoops.ScalarMult(s[idx], hpI), cryptoops.ScalarMult(c, rAgg))

		c = roundChallenge(m, muP, muC, keyImage, d, l, r)
		idx = (idx + 1) % n
	}
	if !haveC0 {
		c0 = c
	}

	if c.IsZero() {
		return Signature{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "clsag: c0 is zero, retry with fresh randomness"}
	}

	// s_pi = alpha - c_pi*(muP*k + muC*zDiff), using the c_pi this loop
	// closes on (not c0, which may be a different ring position).
	inner := muP.Mul(k).Add(muC.Mul(zDiff))
	s[pi] = alpha.Sub(c.Mul(inner))

	return Signature{S: s, C1: c0, D: d}, keyImage, nil
}

// Verify checks a CLSAG signature against a ring and a (separately
// supplied, from the corresponding input) key image.
func Verify(m []byte, ring Ring, sig Signature, keyImage cryptoops.Point) error {
	n := len(ring.P)
	if len(sig.S) != n {
		return &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "clsag: response count does not match ring size"}
	}
	if err := checkSubgroup(keyImage); err != nil {
		return err
	}

	muP, muC := aggregateHashes(ring, keyImage, sig.D)

	c := sig.C1
	for i := 0; i < n; i++ {
		pAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, ring.P[i]), cryptoops.ScalarMult(muC, cryptoops.PointSub(ring.C[i], ring.CPrime)))
		l := cryptoops.PointAdd(cryptoops.ScalarMultBase(sig.S[i]), cryptoops.ScalarMult(c, pAgg))

		hpI := cryptoops.HashToPoint(ring.P[i].Compress()[:])
		rAgg := cryptoops.PointAdd(cryptoops.ScalarMult(muP, keyImage), cryptoops.ScalarMult(muC, sig.D))
		r := cryptoops.PointAdd(cryptoops.ScalarMult(sig.S[i], hpI), cryptoops.ScalarMult(c, rAgg))

		c = roundChallenge(m, muP, muC, keyImage, sig.D, l, r)
	}

	if !c.Equal(sig.C1) {
		return &cryptoops.Error{Kind: cryptoops.CryptoCheckFailed, Msg: "clsag: ring does not close"}
	}
	return nil
}

// checkSubgroup verifies a key image lies in the prime-order subgroup:
// l*I must be the identity. Ed25519's point arithmetic here operates
// exclusively within that subgroup already (every generator and hash-
// to-point output is cofactor-cleared), so this reduces to checking
// l*I == identity directly via scalar multiplication by the group
// order.
func checkSubgroup(p cryptoops.Point) error {
	order := cryptoops.GroupOrderScalar()
	if !cryptoops.ScalarMult(order, p).Equal(cryptoops.Identity()) {
		return &cryptoops.Error{Kind: cryptoops.KeyImageSubgroupInvalid, Msg: "clsag: key image fails subgroup check"}
	}
	return nil
}
