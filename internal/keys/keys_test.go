package keys

import (
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

func seed32(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}

func TestCNSubaddressZeroIsPrimary(t *testing.T) {
	k := NewCNKeys(seed32("cn primary address test seed..."))
	sub := DeriveCNSubaddress(k, 0, 0)
	if !sub.SpendPublic.Equal(k.SpendPublic) || !sub.ViewPublic.Equal(k.ViewPublic) {
		t.Error("subaddress (0,0) must equal the primary address")
	}
}

func TestCNSubaddressDistinctIndices(t *testing.T) {
	k := NewCNKeys(seed32("cn distinct subaddress test seed"))
	a := DeriveCNSubaddress(k, 0, 1)
	b := DeriveCNSubaddress(k, 0, 2)
	if a.SpendPublic.Equal(b.SpendPublic) {
		t.Error("distinct subaddress indices must yield distinct spend keys")
	}
}

func TestCNOneTimeKeyRoundTrip(t *testing.T) {
	k := NewCNKeys(seed32("cn one time key round trip seed."))
	ephemeralSecret := cryptoops.ScReduce([]byte("ephemeral tx secret for one time test"))
	derivation := cryptoops.ScalarMult(k.ViewSecret, cryptoops.ScalarMultBase(ephemeralSecret))

	outIdx := uint64(3)
	onetime := CNOneTimeOutputKey(derivation, outIdx, k.SpendPublic)
	recoveredSecret := CNOneTimeSecret(derivation, outIdx, k.SpendSecret)

	if !cryptoops.ScalarMultBase(recoveredSecret).Equal(onetime) {
		t.Error("recovered one-time secret does not match the derived one-time key")
	}
}

func TestKeyImageDeterministic(t *testing.T) {
	k := NewCNKeys(seed32("key image determinism test seed"))
	onetime := k.SpendPublic
	ki1 := KeyImage(k.SpendSecret, onetime)
	ki2 := KeyImage(k.SpendSecret, onetime)
	if !ki1.Equal(ki2) {
		t.Error("key image must be deterministic for the same inputs")
	}
}

func TestCarrotAccountKeysConsistentWithIncomingView(t *testing.T) {
	k := NewCarrotKeys(seed32("carrot account key derivation seed"))
	// K_v = k_vi * K_s must hold by construction.
	if !cryptoops.ScalarMult(k.ViewIncoming, k.AccountSpendPublic).Equal(k.AccountViewPublic) {
		t.Error("K_v != k_vi * K_s")
	}
	if !cryptoops.ScalarMultBase(k.ViewIncoming).Equal(k.PrimaryViewPublic) {
		t.Error("K_v^0 != k_vi * G")
	}
}

func TestCarrotSubaddressZeroIsPrimary(t *testing.T) {
	k := NewCarrotKeys(seed32("carrot primary address test seed"))
	sub := DeriveCarrotSubaddress(k, 0, 0)
	if !sub.SpendPublic.Equal(k.AccountSpendPublic) {
		t.Error("subaddress (0,0) must equal the primary account spend key")
	}
}

func TestCarrotSubaddressTableLookup(t *testing.T) {
	k := NewCarrotKeys(seed32("carrot subaddress table test seed"))
	table := BuildCarrotSubaddressTable(k, 0, 3)

	sub := DeriveCarrotSubaddress(k, 0, 2)
	idx, ok := table[sub.SpendPublic.Compress()]
	if !ok {
		t.Fatal("expected subaddress (0,2) to be present in the table")
	}
	if idx.Major != 0 || idx.Minor != 2 {
		t.Errorf("table lookup returned (%d,%d), want (0,2)", idx.Major, idx.Minor)
	}
}

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	k := NewCNKeys(seed32("address round trip test seed...."))
	addr := EncodeAddress(MainNet, k.SpendPublic, k.ViewPublic)

	spend, view, err := DecodeAddress(MainNet, addr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !spend.Equal(k.SpendPublic) || !view.Equal(k.ViewPublic) {
		t.Error("decoded keys do not match the encoded keys")
	}
}

func TestAddressDecodeRejectsWrongNetwork(t *testing.T) {
	k := NewCNKeys(seed32("address wrong network test seed."))
	addr := EncodeAddress(MainNet, k.SpendPublic, k.ViewPublic)

	if _, _, err := DecodeAddress(TestNet, addr); err == nil {
		t.Error("expected an error decoding a mainnet address with testnet params")
	}
}

func TestAddressDecodeRejectsCorruption(t *testing.T) {
	k := NewCNKeys(seed32("address corruption test seed...."))
	addr := EncodeAddress(MainNet, k.SpendPublic, k.ViewPublic)
	corrupted := []byte(addr)
	// Flip a character deep in the payload, away from the padding edges.
	if corrupted[5] == 'a' {
		corrupted[5] = 'b'
	} else {
		corrupted[5] = 'a'
	}

	if _, _, err := DecodeAddress(MainNet, string(corrupted)); err == nil {
		t.Error("expected an error decoding a corrupted address")
	}
}
