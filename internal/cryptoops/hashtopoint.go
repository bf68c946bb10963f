package cryptoops

import "math/big"

// Montgomery-curve constants for curve25519 (v^2 = u^3 + A*u^2 + u),
// used as the intermediate curve for the Elligator2 hash-to-curve map.
var (
	montgomeryA   = feFromBig(big.NewInt(486662))
	elligatorNQR  = feFromBig(big.NewInt(2)) // a fixed non-residue mod p
	sqrtNegAPlus2 = computeSqrtNegAPlus2()    // sqrt(-(A+2)), for the Montgomery->Edwards map
)

func computeSqrtNegAPlus2() fieldElement {
	v := montgomeryA.add(feFromBig(big.NewInt(2))).neg()
	root, ok := v.sqrt()
	if !ok {
		panic("cryptoops: -(A+2) is not a square mod p")
	}
	return root
}

// hashToPoint maps arbitrary bytes onto the prime-order subgroup of
// Ed25519, the operation hash_to_point names: an Elligator2-style map
// onto the curve followed by cofactor clearing (multiplication by 8)
// so the result always lands in the ℓ-torsion-free subgroup used by
// every other operation in this package.
//
// This is a structurally faithful hash-to-curve construction (the same
// shape as CryptoNote's Elligator-derived ge_fromfe_frombytes_vartime)
// but is not guaranteed bit-identical to the reference chain's exact
// constant tables; a consensus-parity claim requires
// cross-checking against a published test vector before being relied
// upon for validation.
// HashToPoint is the exported form of hashToPoint, used by every layer
// above cryptoops (key images, CARROT subaddress recovery, generator
// derivation).
func HashToPoint(data []byte) Point { return hashToPoint(data) }

func hashToPoint(data []byte) Point {
	h := Keccak256(data)
	r := feFromLEBytes(h[:])
	if r.isZero() {
		r = feOne()
	}

	u, v := elligator2(r)
	ed := montgomeryToEdwards(u, v)

	// Clear the cofactor (8) to land in the prime-order subgroup.
	cleared := scalarMultPoint(ScalarFromUint64(8), ed)
	return cleared
}

// elligator2 maps a nonzero field element r to a point (u, v) on the
// Montgomery curve v^2 = u^3 + A*u^2 + u.
func elligator2(r fieldElement) (fieldElement, fieldElement) {
	rr := r.sq()
	d := feOne().add(elligatorNQR.mul(rr))
	if d.isZero() {
		d = feOne()
	}
	x1 := montgomeryA.neg().mul(d.invert())

	gx1 := x1.mul(x1.sq()).add(montgomeryA.mul(x1.sq())).add(x1)
	if y, ok := gx1.sqrt(); ok {
		return x1, canonicalSign(y)
	}

	x2 := x1.neg().sub(montgomeryA)
	gx2 := x2.mul(x2.sq()).add(montgomeryA.mul(x2.sq())).add(x2)
	y, ok := gx2.sqrt()
	if !ok {
		// Should not happen for a correctly chosen non-residue; fall back
		// to the identity-adjacent point rather than panicking on
		// attacker-controlled input.
		return feZero(), feOne()
	}
	return x2, canonicalSign(y)
}

// canonicalSign picks the even-parity square root, the conventional
// choice when either sign is equally valid.
func canonicalSign(y fieldElement) fieldElement {
	if y.isNegative() {
		return y.neg()
	}
	return y
}

// montgomeryToEdwards converts a Montgomery-curve point (u, v) to the
// birationally equivalent twisted-Edwards point, the standard
// x = sqrt(-(A+2)) * u/v, y = (u-1)/(u+1) map.
func montgomeryToEdwards(u, v fieldElement) Point {
	denomY := u.add(feOne())
	var y fieldElement
	if denomY.isZero() {
		y = feOne().neg() // u = -1 maps to y = -1 (the point at (0,-1))
	} else {
		y = u.sub(feOne()).mul(denomY.invert())
	}

	var x fieldElement
	if v.isZero() {
		x = feZero()
	} else {
		x = sqrtNegAPlus2.mul(u).mul(v.invert())
	}
	return Point{x: x, y: y}
}
