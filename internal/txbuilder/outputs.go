package txbuilder

import (
	"crypto/rand"
	"encoding/binary"
	"sort"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/txcodec"
)

func randomScalar() (cryptoops.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return cryptoops.Scalar{}, err
	}
	return cryptoops.ScReduce(buf[:]), nil
}

func random16() ([16]byte, error) {
	var out [16]byte
	if _, err := rand.Read(out[:]); err != nil {
		return out, err
	}
	return out, nil
}

// buildCNOutput derives a legacy one-time address and its wire output
// for one CN destination. ephemeralSecret is this output's own r_i
// (the builder never reuses a shared r across destinations, so the
// R_i = r_i*spend_key trick legacy wallets use to disambiguate a
// shared r across subaddress destinations is unnecessary here).
func buildCNOutput(dest Destination, ephemeralSecret cryptoops.Scalar, outputIndex uint64, enoteType scanner.EnoteType) (builtOutput, error) {
	ephemeralPublic := cryptoops.ScalarMultBase(ephemeralSecret)
	derivation := cryptoops.ScalarMult(ephemeralSecret, dest.ViewPublic)

	h := cryptoops.Keccak256(func() []byte {
		enc := derivation.Compress()
		return append(append([]byte(nil), enc[:]...), encodeVarintLocal(outputIndex)...)
	}())
	hScalar := cryptoops.ScReduce(h[:])
	oneTime := cryptoops.PointAdd(cryptoops.ScalarMultBase(hScalar), dest.SpendPublic)

	sharedSecretEnc := derivation.Compress()
	mask := cryptoops.GenCommitmentMask(sharedSecretEnc[:])
	commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(dest.Amount), mask)

	amountMask := cryptoops.Keccak256([]byte("amount"), sharedSecretEnc[:])
	var amtLE [8]byte
	binary.LittleEndian.PutUint64(amtLE[:], dest.Amount)
	var encAmount [8]byte
	for i := 0; i < 8; i++ {
		encAmount[i] = amtLE[i] ^ amountMask[i]
	}

	out := txcodec.Output{
		Amount:     0,
		Tag:        txcodec.TargetToTaggedKey,
		Key:        oneTime,
		ViewTag1:   cnViewTag(sharedSecretEnc[:], outputIndex),
		AssetType:  dest.AssetType,
		UnlockTime: 0,
	}

	return builtOutput{
		output:          out,
		commitment:      commitment,
		mask:            mask,
		amount:          dest.Amount,
		encryptedAmount: encAmount,
		ephemeralSecret: ephemeralSecret,
		ephemeralPublic: ephemeralPublic,
	}, nil
}

// cnViewTag derives the single-byte fast-reject tag legacy tagged-key
// outputs carry, the first byte of Keccak256("view_tag"||shared_secret||output_index).
func cnViewTag(sharedSecret []byte, outputIndex uint64) byte {
	h := cryptoops.Keccak256([]byte("view_tag"), sharedSecret, encodeVarintLocal(outputIndex))
	return h[0]
}

func encodeVarintLocal(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

// buildCarrotOutput derives a CARROT one-time address and wire output
// for one destination. It runs TryScanCarrot's nine-step recognition
// algorithm forwards from the sender's side: the sender knows K_j^s
// and the recipient's account keys directly (no scanning needed), so
// it computes s_sr straight from the ECDH shared secret against the
// recipient's primary view public key K_v^0 rather than the per-
// subaddress-scaled view key scanning uses (TryScanCarrot itself scans
// every subaddress with one shared k_vi, so the matching ECDH input on
// the sender's side is necessarily the same account-level point).
func buildCarrotOutput(dest Destination, ephemeralSecret cryptoops.Scalar, inputCtx []byte, enoteType scanner.EnoteType, accountSpendPublic cryptoops.Point) (builtOutput, error) {
	ephemeralPublic := cryptoops.ScalarMultBase(ephemeralSecret)

	recipientViewU := cryptoops.EdwardsToMontgomeryU(dest.ViewPublic)
	s0, err := cryptoops.X25519ScalarMult(ephemeralSecret.Bytes(), recipientViewU)
	if err != nil {
		return builtOutput{}, err
	}

	ssr, err := cryptoops.Blake2b(32, nil, []byte("carrot_sender_receiver_secret"), inputCtx, s0[:])
	if err != nil {
		return builtOutput{}, err
	}

	extG := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_g"), ssr)[:])
	extT := cryptoops.ScReduce(cryptoops.Keccak256([]byte("carrot_sender_extension_t"), ssr)[:])
	oneTime := cryptoops.PointAdd(cryptoops.PointAdd(dest.SpendPublic, cryptoops.ScalarMultBase(extG)), cryptoops.ScalarMult(extT, cryptoops.T()))
	koEnc := oneTime.Compress()

	viewTag, err := cryptoops.Blake2b(3, nil, []byte("carrot_view_tag"), ssr, koEnc[:])
	if err != nil {
		return builtOutput{}, err
	}

	amountMask, err := cryptoops.Blake2b(8, nil, []byte("carrot_encryption_mask_a"), ssr, koEnc[:])
	if err != nil {
		return builtOutput{}, err
	}
	var amtLE [8]byte
	binary.LittleEndian.PutUint64(amtLE[:], dest.Amount)
	var encAmount [8]byte
	for i := 0; i < 8; i++ {
		encAmount[i] = amtLE[i] ^ amountMask[i]
	}

	ksEnc := accountSpendPublic.Compress()
	maskSeed := cryptoops.Keccak256(ssr, ksEnc[:], []byte{byte(enoteType)}, amtLE[:])
	mask := cryptoops.ScReduce(maskSeed[:])
	commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(dest.Amount), mask)

	anchor, err := random16()
	if err != nil {
		return builtOutput{}, err
	}
	anchorMask, err := cryptoops.Blake2b(16, nil, []byte("carrot_janus_anchor_mask"), ssr, koEnc[:])
	if err != nil {
		return builtOutput{}, err
	}
	var anchorEnc [16]byte
	for i := 0; i < 16; i++ {
		anchorEnc[i] = anchor[i] ^ anchorMask[i]
	}

	var tag3 [3]byte
	copy(tag3[:], viewTag)

	out := txcodec.Output{
		Tag:            txcodec.TargetToCarrotV1,
		Key:            oneTime,
		ViewTag3:       tag3,
		AssetType:      dest.AssetType,
		JanusAnchorEnc: anchorEnc,
		AuditTag:       cryptoops.ScalarMult(extT, cryptoops.T()),
	}

	return builtOutput{
		output:          out,
		commitment:      commitment,
		mask:            mask,
		amount:          dest.Amount,
		encryptedAmount: encAmount,
		ephemeralSecret: ephemeralSecret,
		ephemeralPublic: ephemeralPublic,
	}, nil
}

// sortOutputsCanonically orders built outputs by the ascending byte
// order of their one-time address's compressed encoding, so the
// position of any given destination in the final output list leaks
// nothing about the order the caller supplied destinations in.
func sortOutputsCanonically(outs []builtOutput) {
	sort.Slice(outs, func(i, j int) bool {
		a := outs[i].output.Key.Compress()
		b := outs[j].output.Key.Compress()
		for k := 0; k < 32; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}
