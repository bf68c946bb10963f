package txvalidator

import (
	"errors"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// verifyOpeningProof checks a Schnorr-style proof of knowledge of a
// Pedersen commitment's opening: z1*G + z2*H must equal R + c*C, where
// c is rederived from the same transcript the prover used.
func verifyOpeningProof(msg []byte, commitment cryptoops.Point, proof txcodec.ZKProof) error {
	c := salviumChallenge(msg, proof.R, commitment)
	lhs := cryptoops.PointAdd(cryptoops.ScalarMultBase(proof.Z1), cryptoops.ScalarMult(proof.Z2, cryptoops.H()))
	rhs := cryptoops.PointAdd(proof.R, cryptoops.ScalarMult(c, commitment))
	if !lhs.Equal(rhs) {
		return errors.New("opening proof does not verify")
	}
	return nil
}

func salviumChallenge(msg []byte, r, commitment cryptoops.Point) cryptoops.Scalar {
	rEnc := r.Compress()
	cEnc := commitment.Compress()
	h := cryptoops.Keccak256([]byte("salvium_opening_challenge"), msg, rEnc[:], cEnc[:])
	return cryptoops.ScReduce(h[:])
}
