package txvalidator

import (
	"context"
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txbuilder"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// recordingResolver hands out decoys exactly like a real daemon's
// get_outs oracle would, while also recording every issued ring
// member so the test can build a matching RingLookup afterward.
type recordingResolver struct {
	next  uint64
	ring  map[uint64]RingMember
}

func newRecordingResolver() *recordingResolver {
	return &recordingResolver{ring: make(map[uint64]RingMember)}
}

func (r *recordingResolver) ResolveDecoys(amount uint64, assetType string, count int, exclude uint64) ([]txbuilder.DecoyMember, error) {
	out := make([]txbuilder.DecoyMember, count)
	for i := range out {
		r.next++
		seed := append([]byte("txvalidator decoy seed"), byte(r.next))
		addr := cryptoops.ScalarMultBase(cryptoops.ScReduce(seed))
		commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(amount), cryptoops.ScReduce(append(seed, 'm')))
		idx := r.next + 5000
		out[i] = txbuilder.DecoyMember{GlobalIndex: idx, OneTimeAddress: addr, Commitment: commitment}
		r.ring[idx] = RingMember{OneTimeAddress: addr, Commitment: commitment}
	}
	return out, nil
}

type mapLookup struct {
	ring map[uint64]RingMember
}

func (l mapLookup) FetchRingMembers(ctx context.Context, assetType string, globalIndices []uint64) ([]RingMember, error) {
	out := make([]RingMember, len(globalIndices))
	for i, idx := range globalIndices {
		m, ok := l.ring[idx]
		if !ok {
			return nil, errNotFound(idx)
		}
		out[i] = m
	}
	return out, nil
}

type errNotFound uint64

func (e errNotFound) Error() string { return "ring member not recorded" }

func testScalar(seed string) cryptoops.Scalar { return cryptoops.ScReduce([]byte(seed)) }
func testPointFromSeed(seed string) cryptoops.Point { return cryptoops.ScalarMultBase(testScalar(seed)) }

func TestBuildThenValidateTransferSucceeds(t *testing.T) {
	resolver := newRecordingResolver()

	secret := testScalar("validator spend secret")
	mask := testScalar("validator spend mask")
	amount := uint64(1000)
	globalIndex := uint64(42)
	input := txbuilder.SpendableEnote{
		Era:            txbuilder.EraCN,
		OneTimeAddress: cryptoops.ScalarMultBase(secret),
		OneTimeSecret:  secret,
		Amount:         amount,
		Mask:           mask,
		AssetType:      "SAL",
		GlobalIndex:    globalIndex,
	}
	resolver.ring[globalIndex] = RingMember{
		OneTimeAddress: input.OneTimeAddress,
		Commitment:     cryptoops.Commit(cryptoops.ScalarFromUint64(amount), mask),
	}

	req := txbuilder.Request{
		Inputs:   []txbuilder.SpendableEnote{input},
		RingSize: 4,
		Resolver: resolver,
		Destinations: []txbuilder.Destination{{
			Era:         txbuilder.EraCN,
			SpendPublic: testPointFromSeed("validator dest spend"),
			ViewPublic:  testPointFromSeed("validator dest view"),
			Amount:      700,
			AssetType:   "SAL",
		}},
		Change: txbuilder.Destination{
			Era:         txbuilder.EraCN,
			SpendPublic: testPointFromSeed("validator change spend"),
			ViewPublic:  testPointFromSeed("validator change view"),
			AssetType:   "SAL",
		},
		Fee:                  40,
		TxType:               txcodec.TxTransfer,
		Version:              2,
		SourceAssetType:      "SAL",
		DestinationAssetType: "SAL",
	}

	result, err := txbuilder.Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	lookup := mapLookup{ring: resolver.ring}
	tx := Transaction{Prefix: result.Prefix, RctBase: result.RctBase, RctPrunable: result.RctPrunable}
	if err := Validate(context.Background(), tx, lookup); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsBalanceMismatch(t *testing.T) {
	resolver := newRecordingResolver()
	secret := testScalar("validator tamper secret")
	mask := testScalar("validator tamper mask")
	amount := uint64(500)
	globalIndex := uint64(7)
	input := txbuilder.SpendableEnote{
		Era:            txbuilder.EraCN,
		OneTimeAddress: cryptoops.ScalarMultBase(secret),
		OneTimeSecret:  secret,
		Amount:         amount,
		Mask:           mask,
		AssetType:      "SAL",
		GlobalIndex:    globalIndex,
	}
	resolver.ring[globalIndex] = RingMember{
		OneTimeAddress: input.OneTimeAddress,
		Commitment:     cryptoops.Commit(cryptoops.ScalarFromUint64(amount), mask),
	}

	req := txbuilder.Request{
		Inputs:   []txbuilder.SpendableEnote{input},
		RingSize: 2,
		Resolver: resolver,
		Destinations: []txbuilder.Destination{{
			Era:         txbuilder.EraCN,
			SpendPublic: testPointFromSeed("tamper dest spend"),
			ViewPublic:  testPointFromSeed("tamper dest view"),
			Amount:      400,
			AssetType:   "SAL",
		}},
		Change: txbuilder.Destination{
			Era:         txbuilder.EraCN,
			SpendPublic: testPointFromSeed("tamper change spend"),
			ViewPublic:  testPointFromSeed("tamper change view"),
			AssetType:   "SAL",
		},
		Fee:                  20,
		TxType:               txcodec.TxTransfer,
		Version:              2,
		SourceAssetType:      "SAL",
		DestinationAssetType: "SAL",
	}

	result, err := txbuilder.Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result.RctBase.Fee += 1 // tamper with the fee after signing, balance must now fail

	lookup := mapLookup{ring: resolver.ring}
	tx := Transaction{Prefix: result.Prefix, RctBase: result.RctBase, RctPrunable: result.RctPrunable}
	err = Validate(context.Background(), tx, lookup)
	if err == nil {
		t.Fatal("expected a balance mismatch error")
	}
	verr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %T, want *Error", err)
	}
	if verr.Kind != BalanceMismatch {
		t.Errorf("kind = %v, want BalanceMismatch", verr.Kind)
	}
}
