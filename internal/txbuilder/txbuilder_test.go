package txbuilder

import (
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

func testScalar(seed string) cryptoops.Scalar {
	return cryptoops.ScReduce([]byte(seed))
}

func testPointFromSeed(seed string) cryptoops.Point {
	return cryptoops.ScalarMultBase(testScalar(seed))
}

// zeroDecoyResolver returns count CN-era decoys with fabricated
// addresses and commitments, never actually matching the real input
// (assembleRing interleaves by global index; the real member always
// carries a distinct, pre-assigned GlobalIndex).
type zeroDecoyResolver struct{ nextIndex uint64 }

func (r *zeroDecoyResolver) ResolveDecoys(amount uint64, assetType string, count int, exclude uint64) ([]DecoyMember, error) {
	out := make([]DecoyMember, count)
	for i := range out {
		r.nextIndex++
		seed := []byte("decoy seed")
		seed = append(seed, byte(r.nextIndex))
		out[i] = DecoyMember{
			GlobalIndex:    r.nextIndex + 1000, // stays well clear of the real spend's index
			OneTimeAddress: cryptoops.ScalarMultBase(cryptoops.ScReduce(seed)),
			Commitment:     cryptoops.Commit(cryptoops.ScalarFromUint64(amount), cryptoops.ScReduce(append(seed, 'm'))),
		}
	}
	return out, nil
}

func cnSpendableEnote(secretSeed string, amount uint64, globalIndex uint64) SpendableEnote {
	secret := testScalar(secretSeed)
	mask := testScalar(secretSeed + " mask")
	return SpendableEnote{
		Era:            EraCN,
		OneTimeAddress: cryptoops.ScalarMultBase(secret),
		OneTimeSecret:  secret,
		Amount:         amount,
		Mask:           mask,
		AssetType:      "SAL",
		GlobalIndex:    globalIndex,
	}
}

func basicTransferRequest(input SpendableEnote, destAmount, fee uint64) Request {
	dest := Destination{
		Era:         EraCN,
		SpendPublic: testPointFromSeed("dest spend public"),
		ViewPublic:  testPointFromSeed("dest view public"),
		Amount:      destAmount,
		AssetType:   "SAL",
	}
	change := Destination{
		Era:         EraCN,
		SpendPublic: testPointFromSeed("change spend public"),
		ViewPublic:  testPointFromSeed("change view public"),
		AssetType:   "SAL",
	}
	return Request{
		Inputs:               []SpendableEnote{input},
		RingSize:             3,
		Resolver:             &zeroDecoyResolver{},
		Destinations:         []Destination{dest},
		Change:               change,
		Fee:                  fee,
		UnlockTime:           0,
		TxType:               txcodec.TxTransfer,
		Version:              2,
		SourceAssetType:      "SAL",
		DestinationAssetType: "SAL",
	}
}

func TestBuildBalancedTransferSucceeds(t *testing.T) {
	input := cnSpendableEnote("spend secret one", 1000, 7)
	req := basicTransferRequest(input, 600, 50)

	result, err := Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Prefix.Inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(result.Prefix.Inputs))
	}
	if len(result.Prefix.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2 (destination + change)", len(result.Prefix.Outputs))
	}
	if len(result.RctPrunable.CLSAGs) != 1 {
		t.Fatalf("clsags = %d, want 1", len(result.RctPrunable.CLSAGs))
	}
	if len(result.RctPrunable.TCLSAGs) != 0 {
		t.Errorf("tclsags = %d, want 0 for a plain transfer", len(result.RctPrunable.TCLSAGs))
	}
	if len(result.KeyImages) != 1 {
		t.Fatalf("key images = %d, want 1", len(result.KeyImages))
	}

	// Balance: pseudo-out commitment sum must equal the output
	// commitment sum plus the fee's share in H, since the fee has no
	// commitment of its own on the wire.
	pseudoSum := result.RctPrunable.PseudoOuts[0]
	outSum := result.RctBase.Commitments[0]
	for _, c := range result.RctBase.Commitments[1:] {
		outSum = cryptoops.PointAdd(outSum, c)
	}
	feeCommit := cryptoops.ScalarMult(cryptoops.ScalarFromUint64(req.Fee), cryptoops.H())
	want := cryptoops.PointAdd(outSum, feeCommit)
	if !pseudoSum.Equal(want) {
		t.Error("pseudo-out commitment does not balance against outputs plus fee")
	}
}

func TestBuildRejectsInsufficientFunds(t *testing.T) {
	input := cnSpendableEnote("spend secret two", 100, 9)
	req := basicTransferRequest(input, 90, 50) // 90 + 50 > 100

	_, err := Build(req)
	if err == nil {
		t.Fatal("expected an insufficient funds error")
	}
	berr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %T, want *Error", err)
	}
	if berr.Kind != InsufficientFunds {
		t.Errorf("kind = %v, want InsufficientFunds", berr.Kind)
	}
}

func TestBuildRejectsDuplicateKeyImages(t *testing.T) {
	input := cnSpendableEnote("spend secret three", 500, 11)
	req := basicTransferRequest(input, 100, 10)
	req.Inputs = []SpendableEnote{input, input} // same secret twice -> same key image

	_, err := Build(req)
	if err == nil {
		t.Fatal("expected a duplicate key image error")
	}
	berr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %T, want *Error", err)
	}
	if berr.Kind != DuplicateKeyImage {
		t.Errorf("kind = %v, want DuplicateKeyImage", berr.Kind)
	}
}

func TestFeeEstimateScalesWithPriority(t *testing.T) {
	low := FeeEstimate(1, 2, 11, PriorityLow)
	def := FeeEstimate(1, 2, 11, PriorityDefault)
	high := FeeEstimate(1, 2, 11, PriorityHigh)
	if !(low < def && def < high) {
		t.Errorf("fee estimates not monotonically increasing with priority: low=%d default=%d high=%d", low, def, high)
	}
}

func TestFeeEstimateScalesWithInputCount(t *testing.T) {
	small := FeeEstimate(1, 2, 11, PriorityDefault)
	large := FeeEstimate(4, 2, 11, PriorityDefault)
	if large <= small {
		t.Errorf("fee did not grow with input count: 1-input=%d 4-input=%d", small, large)
	}
}
