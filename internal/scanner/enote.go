// Package scanner implements enote recognition: the per-output CARROT
// and legacy CryptoNote matching algorithms, and the block-range
// iterator that drives them against a daemon and a wallet store.
package scanner

import (
	"encoding/binary"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/keys"
)

// EnoteType distinguishes the two masks an output's amount commitment
// might have been built with.
type EnoteType uint8

const (
	EnotePayment EnoteType = 0
	EnoteChange  EnoteType = 1
)

// CandidateOutput is the subset of an on-chain output a scanner needs,
// independent of wire format.
type CandidateOutput struct {
	OneTimeAddress    cryptoops.Point
	ViewTag           []byte // 1 byte (CN) or 3 bytes (CARROT)
	AmountCommitment  cryptoops.Point
	EncryptedAmount   []byte // 8 bytes in the BP+/CARROT era
	EphemeralPubkey   cryptoops.Point
	AssetType         string
	OutputIndexInTx   uint64
	TxHash            [32]byte // hash of the containing transaction's prefix
}

// CoinbaseInputContext and RingInputContext build the input context,
// the 33-or-fewer-byte domain separator CARROT mixes into its
// sender-receiver secret: "C"||height for coinbase, or
// "R"||first key image for a ring-signed transaction.
func CoinbaseInputContext(blockHeight uint64) []byte {
	out := make([]byte, 9)
	out[0] = 'C'
	binary.LittleEndian.PutUint64(out[1:], blockHeight)
	return out
}

func RingInputContext(firstKeyImage cryptoops.Point) []byte {
	enc := firstKeyImage.Compress()
	out := make([]byte, 33)
	out[0] = 'R'
	copy(out[1:], enc[:])
	return out
}

// CarrotMatch is the material recovered once an output is confirmed to
// belong to the wallet.
type CarrotMatch struct {
	Amount           uint64
	Mask             cryptoops.Scalar
	EnoteType        EnoteType
	SubaddressIndex  keys.SubaddressIndex
	AddressScalar    cryptoops.Scalar
}

// TryScanCarrot runs the nine-step CARROT recognition algorithm against
// one output. ok is false whenever the output is not recognized as
// belonging to the wallet (wrong view tag, no subaddress match, or
// neither enote type's commitment matches) — none of those are errors,
// just "not mine".
func TryScanCarrot(k keys.CarrotKeys, table keys.SubaddressTable, inputCtx []byte, out CandidateOutput) (CarrotMatch, bool) {
	// Step 2: unclamped ECDH between k_vi and the ephemeral pubkey's
	// Montgomery u-coordinate. x25519.ScalarMult wraps a clamped
	// implementation (see cryptoops/x25519.go); this is the accepted
	// deviation from a bit-exact scan.
	deU := cryptoops.EdwardsToMontgomeryU(out.EphemeralPubkey)
	kvi := k.ViewIncoming.Bytes()
	s0, err := cryptoops.X25519ScalarMult(kvi, deU)
	if err != nil {
		return CarrotMatch{}, false
	}

	koEnc := out.OneTimeAddress.Compress()

	// Step 3: sender-receiver secret. Deliberately independent of K_o:
	// the sender must derive this before K_o exists (K_o is built from
	// the extensions this secret produces in step 6), so every place
	// downstream that needs to bind to a specific output appends koEnc
	// as its own explicit hash input instead of folding it in here.
	ssr, err := cryptoops.Blake2b(32, nil, []byte("carrot_sender_receiver_secret"), inputCtx, s0[:])
	if err != nil {
		return CarrotMatch{}, false
	}

	// Step 4: view-tag fast reject.
	expectedTag, err := cryptoops.Blake2b(3, nil, []byte("carrot_view_tag"), ssr, koEnc[:])
	if err != nil || len(out.ViewTag) != 3 {
		return CarrotMatch{}, false
	}
	if !bytesEqual(expectedTag, out.ViewTag) {
		return CarrotMatch{}, false
	}

	// Step 5: ephemeral address scalar (not directly used for matching,
	// but kept for callers that need to reconstruct K_o independently).
	addrScalarSeed, err := cryptoops.Blake2b(64, nil, []byte("carrot_address_scalar"), ssr)
	if err != nil {
		return CarrotMatch{}, false
	}
	ka := cryptoops.ScReduce(addrScalarSeed)

	// Step 6: recover the subaddress spend key by subtracting both
	// sender extensions, then look it up. The extensions are a function
	// of ssr alone (never of K_o): K_o is *defined* as the subaddress
	// spend key offset by these two extensions, so a formula that also
	// needed K_o to produce them would leave the sender with no way to
	// ever compute K_o in the first place.
	extG := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_g"), ssr)[:])
	extT := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_t"), ssr)[:])

	kjs := cryptoops.PointSub(cryptoops.PointSub(out.OneTimeAddress, cryptoops.ScalarMultBase(extG)), cryptoops.ScalarMult(extT, cryptoops.T()))
	idx, ok := table[kjs.Compress()]
	if !ok {
		return CarrotMatch{}, false
	}

	// Step 7: decrypt the amount.
	amountMask, err := cryptoops.Blake2b(8, nil, []byte("carrot_encryption_mask_a"), ssr, koEnc[:])
	if err != nil || len(out.EncryptedAmount) != 8 {
		return CarrotMatch{}, false
	}
	var amountBytes [8]byte
	for i := 0; i < 8; i++ {
		amountBytes[i] = out.EncryptedAmount[i] ^ amountMask[i]
	}
	amount := binary.LittleEndian.Uint64(amountBytes[:])

	// Step 8: try PAYMENT then CHANGE masks until the commitment matches.
	for _, et := range []EnoteType{EnotePayment, EnoteChange} {
		ksEnc := k.AccountSpendPublic.Compress()
		var amtLE [8]byte
		binary.LittleEndian.PutUint64(amtLE[:], amount)
		maskSeed := cryptoops.Keccak256(ssr, ksEnc[:], []byte{byte(et)}, amtLE[:])
		m := cryptoops.ScReduce(maskSeed[:])

		candidate := cryptoops.Commit(cryptoops.ScalarFromUint64(amount), m)
		if candidate.Equal(out.AmountCommitment) {
			return CarrotMatch{
				Amount:          amount,
				Mask:            m,
				EnoteType:       et,
				SubaddressIndex: idx,
				AddressScalar:   ka,
			}, true
		}
	}
	return CarrotMatch{}, false
}

// CNMatch is the material recovered for a legacy-era output.
type CNMatch struct {
	OneTimeSecret   cryptoops.Scalar
	SubaddressIndex keys.CNSubaddressIndexFor
}

// TryScanCN runs the legacy CryptoNote recognition algorithm: derive
// the shared secret k_v*D_e, subtract the per-output derivation scalar
// from the candidate's one-time address to recover the subaddress
// spend key it would have been built from, and look that key up
// directly rather than re-deriving every known subaddress.
func TryScanCN(cn keys.CNKeys, table map[[32]byte]keys.CNSubaddressIndexFor, out CandidateOutput) (CNMatch, bool) {
	derivation := cryptoops.ScalarMult(cn.ViewSecret, out.EphemeralPubkey)
	h := keys.CNDerivationScalar(derivation, out.OutputIndexInTx)

	candidateSpend := cryptoops.PointSub(out.OneTimeAddress, cryptoops.ScalarMultBase(h))
	idx, ok := table[candidateSpend.Compress()]
	if !ok {
		return CNMatch{}, false
	}
	return CNMatch{SubaddressIndex: idx}, true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
