package cryptoops

import "golang.org/x/crypto/curve25519"

// X25519ScalarMult performs an X25519 Diffie-Hellman step on Montgomery
// u-coordinates. golang.org/x/crypto/curve25519 always applies RFC 7748
// scalar clamping internally and exposes no unclamped entry point; the
// CARROT enote scanning protocol calls for an unclamped multiply, which
// this package cannot currently provide bit-for-bit.
func X25519ScalarMult(scalar, u [32]byte) ([32]byte, error) {
	var out [32]byte
	dst, err := curve25519.X25519(scalar[:], u[:])
	if err != nil {
		return out, &Error{Kind: InvalidEncoding, Msg: "x25519: " + err.Error()}
	}
	copy(out[:], dst)
	return out, nil
}

// EdwardsToMontgomeryU converts an Edwards point's compressed encoding to
// its Montgomery u-coordinate: u = (1+y)/(1-y), the standard birational
// map used to feed an Ed25519 ephemeral public key into X25519.
func EdwardsToMontgomeryU(p Point) [32]byte {
	denom := feOne().sub(p.y)
	var u fieldElement
	if denom.isZero() {
		u = feZero()
	} else {
		u = feOne().add(p.y).mul(denom.invert())
	}
	return u.bytes()
}
