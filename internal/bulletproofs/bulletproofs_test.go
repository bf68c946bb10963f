package bulletproofs

import (
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

func maskFromSeed(seed byte) cryptoops.Scalar {
	buf := make([]byte, 64)
	buf[0] = seed
	return cryptoops.ScReduce(buf)
}

func TestBulletproofPlusProveVerifyRoundTrip(t *testing.T) {
	amounts := []uint64{1234567, 0, 42, 9999999999}
	masks := []cryptoops.Scalar{maskFromSeed(1), maskFromSeed(2), maskFromSeed(3), maskFromSeed(4)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(commitments[:len(amounts)], proof); err != nil {
		t.Fatalf("Verify rejected a valid proof: %v", err)
	}
}

func TestBulletproofPlusSingleValue(t *testing.T) {
	amounts := []uint64{1}
	masks := []cryptoops.Scalar{maskFromSeed(9)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(commitments, proof); err != nil {
		t.Fatalf("Verify rejected a valid single-value proof: %v", err)
	}
}

func TestBulletproofPlusVerifyRejectsWrongCommitment(t *testing.T) {
	amounts := []uint64{10, 20}
	masks := []cryptoops.Scalar{maskFromSeed(5), maskFromSeed(6)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	tampered := append([]cryptoops.Point(nil), commitments...)
	tampered[0] = cryptoops.Commit(cryptoops.ScalarFromUint64(11), masks[0])

	if err := Verify(tampered[:len(amounts)], proof); err == nil {
		t.Fatal("Verify accepted a proof against a mismatched commitment")
	}
}

func TestBulletproofPlusVerifyRejectsTamperedTHat(t *testing.T) {
	amounts := []uint64{100}
	masks := []cryptoops.Scalar{maskFromSeed(7)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.THat = proof.THat.Add(cryptoops.ScalarOne())

	if err := Verify(commitments, proof); err == nil {
		t.Fatal("Verify accepted a proof with a tampered disclosed inner product")
	}
}

func TestBulletproofPlusVerifyRejectsTamperedFoldingRound(t *testing.T) {
	amounts := []uint64{5, 6, 7}
	masks := []cryptoops.Scalar{maskFromSeed(11), maskFromSeed(12), maskFromSeed(13)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.L[0] = cryptoops.ScalarMultBase(cryptoops.ScalarOne())

	if err := Verify(commitments[:len(amounts)], proof); err == nil {
		t.Fatal("Verify accepted a proof with a tampered folding round")
	}
}

func TestBulletproofPlusVerifyRejectsWrongAggregationSize(t *testing.T) {
	amounts := []uint64{1, 2}
	masks := []cryptoops.Scalar{maskFromSeed(21), maskFromSeed(22)}

	proof, commitments, err := Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if err := Verify(commitments[:1], proof); err == nil {
		t.Fatal("Verify accepted a proof checked against the wrong number of commitments")
	}
}

func TestBulletproofPlusProveRejectsMismatchedLengths(t *testing.T) {
	_, _, err := Prove([]uint64{1, 2}, []cryptoops.Scalar{maskFromSeed(1)})
	if err == nil {
		t.Fatal("Prove accepted mismatched amounts/masks lengths")
	}
}

func TestBulletproofPlusProveRejectsTooManyValues(t *testing.T) {
	amounts := make([]uint64, MaxAggregation+1)
	masks := make([]cryptoops.Scalar, MaxAggregation+1)
	for i := range amounts {
		amounts[i] = uint64(i)
		masks[i] = maskFromSeed(byte(i))
	}
	_, _, err := Prove(amounts, masks)
	if err == nil {
		t.Fatal("Prove accepted an aggregation larger than the cap")
	}
}
