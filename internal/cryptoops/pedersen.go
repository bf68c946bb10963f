package cryptoops

// Commit returns the Pedersen commitment C = m*G + a*H, where a is the
// amount and m is the blinding mask. It hides a and binds to m.
func Commit(amount, mask Scalar) Point {
	return PointAdd(ScalarMultBase(mask), ScalarMult(amount, H()))
}

// ZeroCommit returns 1*G + a*H, the Salvium coinbase convention where the
// blinding factor is fixed at 1 rather than 0.
func ZeroCommit(amount Scalar) Point {
	return Commit(amount, ScalarOne())
}

// GenCommitmentMask derives the blinding mask for an output from its
// ECDH shared secret: sc_reduce(keccak256("commitment_mask" || shared_secret)).
func GenCommitmentMask(sharedSecret []byte) Scalar {
	h := Keccak256([]byte("commitment_mask"), sharedSecret)
	return ScReduce(h[:])
}
