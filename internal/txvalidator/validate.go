// Package txvalidator checks a fully-assembled transaction against
// the protocol's consensus rules: structural shape, the Pedersen
// balance equation, the aggregated Bulletproofs+ range proof, every
// input's ring signature, and the Salvium-specific extension checks
// CONVERT and STAKE transactions carry.
package txvalidator

import (
	"context"
	"log"

	"github.com/salvium/wallet-core/internal/bulletproofs"
	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/ringsig"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// stakeUnlockBlocks is the minimum lock duration a STAKE transaction's
// unlock_time must clear, expressed in blocks (~30 days at a 2-minute
// target).
const stakeUnlockBlocks = 21600

// Transaction is everything Validate needs, already decoded from the
// wire.
type Transaction struct {
	Prefix      txcodec.Prefix
	RctBase     txcodec.RctBase
	RctPrunable txcodec.RctPrunable
}

// Validate runs every consensus check against tx, fetching ring
// members for each input through lookup. It returns the first failure
// encountered and does not run the stages after it; the per-stage
// checks are unexported.
func Validate(ctx context.Context, tx Transaction, lookup RingLookup) error {
	if err := checkStatic(tx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return newError(Cancelled, -1, "txvalidator: cancelled before balance check")
	default:
	}
	if err := checkBalance(tx); err != nil {
		return err
	}

	if err := checkRangeProof(tx); err != nil {
		return err
	}

	for i, in := range tx.Prefix.Inputs {
		select {
		case <-ctx.Done():
			return newError(Cancelled, i, "txvalidator: cancelled mid ring-signature check")
		default:
		}
		if err := checkRingSignature(ctx, tx, i, in, lookup); err != nil {
			return err
		}
	}

	if err := checkSalviumExtensions(tx); err != nil {
		return err
	}

	log.Printf("[TxValidator] transaction with %d inputs, %d outputs validated ok", len(tx.Prefix.Inputs), len(tx.Prefix.Outputs))
	return nil
}

func checkStatic(tx Transaction) error {
	if len(tx.Prefix.Inputs) == 0 {
		return newError(InvalidEncoding, -1, "txvalidator: no inputs")
	}
	if len(tx.Prefix.Outputs) == 0 {
		return newError(InvalidEncoding, -1, "txvalidator: no outputs")
	}
	if len(tx.RctPrunable.PseudoOuts) != len(tx.Prefix.Inputs) {
		return newError(InvalidEncoding, -1, "txvalidator: pseudo-out count does not match input count")
	}
	if len(tx.RctBase.Commitments) != len(tx.Prefix.Outputs) {
		return newError(InvalidEncoding, -1, "txvalidator: commitment count does not match output count")
	}
	if len(tx.RctBase.EncryptedAmounts) != len(tx.Prefix.Outputs) {
		return newError(InvalidEncoding, -1, "txvalidator: encrypted amount count does not match output count")
	}

	switch tx.RctBase.Type {
	case txcodec.RctSalviumOne:
		if len(tx.RctPrunable.TCLSAGs) != len(tx.Prefix.Inputs) {
			return newError(InvalidEncoding, -1, "txvalidator: tclsag count does not match input count")
		}
		if len(tx.RctPrunable.CLSAGs) != 0 {
			return newError(InvalidEncoding, -1, "txvalidator: rct type 9 must not carry clsags")
		}
	default:
		if len(tx.RctPrunable.CLSAGs) != len(tx.Prefix.Inputs) {
			return newError(InvalidEncoding, -1, "txvalidator: clsag count does not match input count")
		}
		if len(tx.RctPrunable.TCLSAGs) != 0 {
			return newError(InvalidEncoding, -1, "txvalidator: only rct type 9 carries tclsags")
		}
	}

	seen := make(map[[32]byte]bool, len(tx.Prefix.Inputs))
	for i, in := range tx.Prefix.Inputs {
		if in.Tag != txcodec.InputKey {
			continue
		}
		enc := in.KeyImage.Compress()
		if seen[enc] {
			return newError(DuplicateKeyImage, i, "txvalidator: duplicate key image among inputs")
		}
		seen[enc] = true
		if err := checkSubgroup(in.KeyImage); err != nil {
			return err
		}
	}
	return nil
}

func checkSubgroup(p cryptoops.Point) error {
	order := cryptoops.GroupOrderScalar()
	if !cryptoops.ScalarMult(order, p).Equal(cryptoops.Identity()) {
		return newError(RingSignatureInvalid, -1, "txvalidator: key image fails subgroup check")
	}
	return nil
}

// checkBalance verifies the Pedersen zero-sum invariant: the sum of
// pseudo-output commitments must equal the sum of output commitments
// plus the fee's (unblinded) contribution in H, plus p_r (the Salvium
// asset-conversion remainder point, identity for ordinary transfers).
func checkBalance(tx Transaction) error {
	pseudoSum := cryptoops.Identity()
	for _, p := range tx.RctPrunable.PseudoOuts {
		pseudoSum = cryptoops.PointAdd(pseudoSum, p)
	}

	outSum := cryptoops.Identity()
	for _, c := range tx.RctBase.Commitments {
		outSum = cryptoops.PointAdd(outSum, c)
	}
	feeCommit := cryptoops.ScalarMult(cryptoops.ScalarFromUint64(tx.RctBase.Fee), cryptoops.H())
	want := cryptoops.PointAdd(cryptoops.PointAdd(outSum, feeCommit), tx.RctBase.PR)

	if !pseudoSum.Equal(want) {
		return newError(BalanceMismatch, -1, "txvalidator: pseudo-outputs do not balance against outputs, fee, and p_r")
	}
	return nil
}

func checkRangeProof(tx Transaction) error {
	if len(tx.RctPrunable.BulletproofsPlus) != 1 {
		return newError(InvalidEncoding, -1, "txvalidator: expected exactly one aggregated bulletproof+")
	}
	if err := bulletproofs.Verify(tx.RctBase.Commitments, tx.RctPrunable.BulletproofsPlus[0]); err != nil {
		return newError(RangeProofInvalid, -1, "txvalidator: bulletproof+ verification failed: "+err.Error())
	}
	return nil
}

func checkRingSignature(ctx context.Context, tx Transaction, i int, in txcodec.Input, lookup RingLookup) error {
	absolute := absoluteKeyOffsets(in)
	members, err := lookup.FetchRingMembers(ctx, in.AssetType, absolute)
	if err != nil {
		return newError(Unrecognized, i, "txvalidator: could not resolve ring members: "+err.Error())
	}
	if len(members) != len(absolute) {
		return newError(Unrecognized, i, "txvalidator: resolver returned the wrong ring member count")
	}

	msgHash, err := txcodec.PrefixHash(tx.Prefix)
	if err != nil {
		return newError(InvalidEncoding, i, "txvalidator: prefix hash failed: "+err.Error())
	}

	if tx.RctBase.Type == txcodec.RctSalviumOne {
		ring := buildConvertRing(members, tx.RctPrunable.PseudoOuts[i])
		sig := tclsagSigFor(tx.RctPrunable.TCLSAGs, i)
		if err := ringsig.TVerify(msgHash[:], ring, sig, in.KeyImage); err != nil {
			return newError(RingSignatureInvalid, i, "txvalidator: tclsag verification failed: "+err.Error())
		}
		return nil
	}

	ring := buildLegacyRing(members, tx.RctPrunable.PseudoOuts[i])
	sig := clsagSigFor(tx.RctPrunable.CLSAGs, i)
	if err := ringsig.Verify(msgHash[:], ring, sig, in.KeyImage); err != nil {
		return newError(RingSignatureInvalid, i, "txvalidator: clsag verification failed: "+err.Error())
	}
	return nil
}

func clsagSigFor(sigs []txcodec.CLSAGSignature, i int) ringsig.Signature {
	s := sigs[i]
	return ringsig.Signature{S: s.S, C1: s.C1, D: s.D}
}

func tclsagSigFor(sigs []txcodec.TCLSAGSignature, i int) ringsig.TSignature {
	s := sigs[i]
	return ringsig.TSignature{SX: s.SX, SY: s.SY, C1: s.C1, D: s.D}
}

// checkSalviumExtensions runs the Salvium-specific checks CONVERT and
// STAKE transactions carry on top of the ordinary transfer rules.
func checkSalviumExtensions(tx Transaction) error {
	switch tx.Prefix.TxType {
	case txcodec.TxConvert:
		if tx.RctBase.SalviumData == nil {
			return newError(InvalidEncoding, -1, "txvalidator: convert transaction missing salvium_data")
		}
		msgHash, err := txcodec.PrefixHash(tx.Prefix)
		if err != nil {
			return newError(InvalidEncoding, -1, "txvalidator: prefix hash failed: "+err.Error())
		}
		sd := tx.RctBase.SalviumData
		prMsg := append(append([]byte(nil), msgHash[:]...), "pr_proof"...)
		if err := verifyOpeningProof(prMsg, sd.AuditCommitment, sd.PrProof); err != nil {
			return newError(RingSignatureInvalid, -1, "txvalidator: pr_proof verification failed: "+err.Error())
		}
		saMsg := append(append([]byte(nil), msgHash[:]...), "sa_proof"...)
		if err := verifyOpeningProof(saMsg, sd.AuditCommitment, sd.SaProof); err != nil {
			return newError(RingSignatureInvalid, -1, "txvalidator: sa_proof verification failed: "+err.Error())
		}

	case txcodec.TxStake:
		if tx.Prefix.UnlockTime < stakeUnlockBlocks {
			return newError(StateError, -1, "txvalidator: stake transaction unlock_time below the minimum lock duration")
		}
	}
	return nil
}
