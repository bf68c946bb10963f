package scanner

import (
	"encoding/binary"
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/keys"
)

func seed32(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}

// buildCarrotFixture constructs a CandidateOutput and the matching
// subaddress-table entry it must resolve to. It picks K_o directly
// (no sender-side extension, since that's an arbitrary choice on the
// sender's side) then runs the exact same sender-extension derivation
// TryScanCarrot's step 6 runs, recovering the subaddress spend key that
// derivation implies and registering that as the address the fixture
// "belongs to". This avoids needing to resolve the circular dependency
// between K_o and the sender-receiver secret from the sender's side
// (the receiver side, which is what TryScanCarrot implements, has no
// such circularity: it already knows K_o from the output it's
// scanning).
func buildCarrotFixture(t *testing.T, k keys.CarrotKeys, inputCtx []byte, amount uint64, enoteType EnoteType) (CandidateOutput, keys.SubaddressTable) {
	t.Helper()

	ephemeralSecret := cryptoops.ScReduce([]byte("carrot enote test ephemeral secret.."))
	ephemeralPub := cryptoops.ScalarMultBase(ephemeralSecret)

	deU := cryptoops.EdwardsToMontgomeryU(ephemeralPub)
	s0, err := cryptoops.X25519ScalarMult(k.ViewIncoming.Bytes(), deU)
	if err != nil {
		t.Fatalf("x25519: %v", err)
	}

	ssr, err := cryptoops.Blake2b(32, nil, []byte("carrot_sender_receiver_secret"), inputCtx, s0[:])
	if err != nil {
		t.Fatalf("blake2b ssr: %v", err)
	}

	ko := cryptoops.ScalarMultBase(cryptoops.ScReduce([]byte("arbitrary one time address seed....")))
	koEnc := ko.Compress()
	viewTag, err := cryptoops.Blake2b(3, nil, []byte("carrot_view_tag"), ssr, koEnc[:])
	if err != nil {
		t.Fatalf("blake2b view tag: %v", err)
	}

	extG := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_g"), ssr)[:])
	extT := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_t"), ssr)[:])
	recoveredSpend := cryptoops.PointSub(cryptoops.PointSub(ko, cryptoops.ScalarMultBase(extG)), cryptoops.ScalarMult(extT, cryptoops.T()))

	table := keys.SubaddressTable{
		recoveredSpend.Compress(): {Major: 7, Minor: 9},
	}

	amountMask, err := cryptoops.Blake2b(8, nil, []byte("carrot_encryption_mask_a"), ssr, koEnc[:])
	if err != nil {
		t.Fatalf("blake2b amount mask: %v", err)
	}
	var amtLE [8]byte
	binary.LittleEndian.PutUint64(amtLE[:], amount)
	encAmount := make([]byte, 8)
	for i := 0; i < 8; i++ {
		encAmount[i] = amtLE[i] ^ amountMask[i]
	}

	ksEnc := k.AccountSpendPublic.Compress()
	maskSeed := cryptoops.Keccak256(ssr, ksEnc[:], []byte{byte(enoteType)}, amtLE[:])
	mask := cryptoops.ScReduce(maskSeed[:])
	commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(amount), mask)

	out := CandidateOutput{
		OneTimeAddress:   ko,
		ViewTag:          viewTag,
		AmountCommitment: commitment,
		EncryptedAmount:  encAmount,
		EphemeralPubkey:  ephemeralPub,
	}
	return out, table
}

func TestTryScanCarrotRecognizesOwnOutput(t *testing.T) {
	k := keys.NewCarrotKeys(seed32("carrot scan test master secret...."))
	inputCtx := CoinbaseInputContext(12345)
	out, table := buildCarrotFixture(t, k, inputCtx, 7_500_000, EnotePayment)

	match, ok := TryScanCarrot(k, table, inputCtx, out)
	if !ok {
		t.Fatal("expected the wallet to recognize its own output")
	}
	if match.Amount != 7_500_000 {
		t.Errorf("recovered amount = %d, want 7500000", match.Amount)
	}
	if match.EnoteType != EnotePayment {
		t.Errorf("recovered enote type = %d, want PAYMENT", match.EnoteType)
	}
	if match.SubaddressIndex.Major != 7 || match.SubaddressIndex.Minor != 9 {
		t.Errorf("matched index = %+v, want (7,9)", match.SubaddressIndex)
	}
}

func TestTryScanCarrotRecognizesChangeEnote(t *testing.T) {
	k := keys.NewCarrotKeys(seed32("carrot scan test master secret...."))
	inputCtx := CoinbaseInputContext(1)
	out, table := buildCarrotFixture(t, k, inputCtx, 42, EnoteChange)

	match, ok := TryScanCarrot(k, table, inputCtx, out)
	if !ok {
		t.Fatal("expected the wallet to recognize its own change output")
	}
	if match.EnoteType != EnoteChange {
		t.Errorf("recovered enote type = %d, want CHANGE", match.EnoteType)
	}
}

func TestTryScanCarrotRejectsWrongWallet(t *testing.T) {
	k := keys.NewCarrotKeys(seed32("carrot scan test master secret...."))
	other := keys.NewCarrotKeys(seed32("a completely different master key"))
	inputCtx := CoinbaseInputContext(1)
	out, table := buildCarrotFixture(t, k, inputCtx, 1000, EnotePayment)

	if _, ok := TryScanCarrot(other, table, inputCtx, out); ok {
		t.Error("a different wallet's keys must not recognize this output")
	}
}

func TestTryScanCarrotRejectsTamperedViewTag(t *testing.T) {
	k := keys.NewCarrotKeys(seed32("carrot scan test master secret...."))
	inputCtx := CoinbaseInputContext(1)
	out, table := buildCarrotFixture(t, k, inputCtx, 1000, EnotePayment)
	out.ViewTag[0] ^= 0xFF

	if _, ok := TryScanCarrot(k, table, inputCtx, out); ok {
		t.Error("a tampered view tag must not be recognized")
	}
}

func TestTryScanCarrotRejectsUnknownSubaddress(t *testing.T) {
	k := keys.NewCarrotKeys(seed32("carrot scan test master secret...."))
	inputCtx := CoinbaseInputContext(1)
	out, _ := buildCarrotFixture(t, k, inputCtx, 1000, EnotePayment)

	if _, ok := TryScanCarrot(k, keys.SubaddressTable{}, inputCtx, out); ok {
		t.Error("an empty subaddress table must never match")
	}
}

func TestTryScanCNRecognizesOwnOutput(t *testing.T) {
	k := keys.NewCNKeys(seed32("cn scanner integration test seed"))
	sub := keys.DeriveCNSubaddress(k, 0, 0)
	table := keys.BuildCNSubaddressTable(k, 0, 0)

	ephemeralSecret := cryptoops.ScReduce([]byte("cn scanner test ephemeral secret"))
	ephemeralPub := cryptoops.ScalarMultBase(ephemeralSecret)
	derivation := cryptoops.ScalarMult(k.ViewSecret, ephemeralPub)

	outIdx := uint64(0)
	ko := keys.CNOneTimeOutputKey(derivation, outIdx, sub.SpendPublic)

	out := CandidateOutput{
		OneTimeAddress:  ko,
		EphemeralPubkey: ephemeralPub,
		OutputIndexInTx: outIdx,
	}

	match, ok := TryScanCN(k, table, out)
	if !ok {
		t.Fatal("expected the wallet to recognize its own legacy output")
	}
	if match.SubaddressIndex.Major != 0 || match.SubaddressIndex.Minor != 0 {
		t.Errorf("matched index = %+v, want (0,0)", match.SubaddressIndex)
	}
}

func TestTryScanCNRejectsForeignOutput(t *testing.T) {
	k := keys.NewCNKeys(seed32("cn scanner integration test seed"))
	other := keys.NewCNKeys(seed32("a totally different cn wallet...."))
	table := keys.BuildCNSubaddressTable(k, 0, 0)

	ephemeralSecret := cryptoops.ScReduce([]byte("cn scanner test ephemeral secret"))
	ephemeralPub := cryptoops.ScalarMultBase(ephemeralSecret)
	derivation := cryptoops.ScalarMult(other.ViewSecret, ephemeralPub)
	ko := keys.CNOneTimeOutputKey(derivation, 0, other.SpendPublic)

	out := CandidateOutput{OneTimeAddress: ko, EphemeralPubkey: ephemeralPub}
	if _, ok := TryScanCN(k, table, out); ok {
		t.Error("a foreign wallet's output must not be recognized")
	}
}
