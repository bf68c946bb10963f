package txbuilder

import (
	"github.com/salvium/wallet-core/internal/bulletproofs"
	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// Build assembles and signs a complete transaction per the request:
// fresh per-destination ephemeral keys, canonically-ordered outputs, a
// balanced set of pseudo-outputs, an aggregated Bulletproofs+ range
// proof, one ring signature per input, and the Salvium-specific
// trailer fields the transaction's purpose requires.
func Build(req Request) (Result, error) {
	if len(req.Inputs) == 0 {
		return Result{}, newError(InvalidDestination, -1, "txbuilder: no inputs")
	}
	if len(req.Destinations) == 0 {
		return Result{}, newError(InvalidDestination, -1, "txbuilder: no destinations")
	}
	if req.RingSize < 1 {
		return Result{}, newError(RingResolutionFailed, -1, "txbuilder: ring size must be at least 1")
	}

	if err := checkDuplicateKeyImages(req.Inputs); err != nil {
		return Result{}, err
	}

	inputTotal, ok := sumAmounts(amountsOf(req.Inputs))
	if !ok {
		return Result{}, newError(InsufficientFunds, -1, "txbuilder: input amount overflow")
	}
	destTotal, ok := sumAmounts(destAmounts(req.Destinations))
	if !ok {
		return Result{}, newError(InsufficientFunds, -1, "txbuilder: destination amount overflow")
	}
	spent := destTotal + req.Fee + req.AmountBurnt
	if spent < destTotal || spent < req.Fee {
		return Result{}, newError(InsufficientFunds, -1, "txbuilder: output amount overflow")
	}
	if inputTotal < spent {
		return Result{}, newError(InsufficientFunds, -1, "txbuilder: inputs do not cover destinations, fee, and burnt amount")
	}
	change := req.Change
	change.Amount = inputTotal - spent

	outs := make([]builtOutput, 0, len(req.Destinations)+1)
	allDests := append(append([]Destination(nil), req.Destinations...), change)

	for i, dest := range allDests {
		ephemeralSecret, err := randomScalar()
		if err != nil {
			return Result{}, err
		}
		enoteType := scanner.EnotePayment
		if i == len(allDests)-1 {
			enoteType = scanner.EnoteChange
		}

		var built builtOutput
		switch dest.Era {
		case EraCN:
			built, err = buildCNOutput(dest, ephemeralSecret, uint64(i), enoteType)
		case EraCarrot:
			inputCtx := carrotInputContext(req.Inputs)
			built, err = buildCarrotOutput(dest, ephemeralSecret, inputCtx, enoteType, dest.SpendPublic)
		default:
			err = newError(InvalidDestination, i, "txbuilder: destination has an unrecognized era")
		}
		if err != nil {
			return Result{}, err
		}
		outs = append(outs, built)
	}

	sortOutputsCanonically(outs)

	amounts := make([]uint64, len(outs))
	masks := make([]cryptoops.Scalar, len(outs))
	for i, o := range outs {
		amounts[i] = o.amount
		masks[i] = o.mask
	}
	bp, commitments, err := bulletproofs.Prove(amounts, masks)
	if err != nil {
		return Result{}, err
	}

	outputMaskSum := sumMasks(masks)
	pseudoMasks, err := pseudoOutMasks(len(req.Inputs), outputMaskSum)
	if err != nil {
		return Result{}, err
	}
	pseudoOuts := make([]cryptoops.Point, len(req.Inputs))
	for i, in := range req.Inputs {
		pseudoOuts[i] = cryptoops.Commit(cryptoops.ScalarFromUint64(in.Amount), pseudoMasks[i])
	}

	rctType := txcodec.RctCLSAG
	if req.TxType == txcodec.TxConvert {
		rctType = txcodec.RctSalviumOne
	}

	codecOutputs := make([]txcodec.Output, len(outs))
	encryptedAmounts := make([][8]byte, len(outs))
	for i, o := range outs {
		codecOutputs[i] = o.output
		encryptedAmounts[i] = o.encryptedAmount
	}

	prefix := txcodec.Prefix{
		Version:              req.Version,
		UnlockTime:           req.UnlockTime,
		Outputs:              codecOutputs,
		TxType:               req.TxType,
		AmountBurnt:          req.AmountBurnt,
		ReturnAddress:        cryptoops.Identity(),
		ReturnPubkey:         cryptoops.Identity(),
		SourceAssetType:      req.SourceAssetType,
		DestinationAssetType: req.DestinationAssetType,
		AmountSlippageLimit:  req.AmountSlippageLimit,
	}
	prefix.Extra = buildExtra(outs)

	// Key images are a deterministic function of each input's own spend
	// secret, independent of any signature randomness, so rings and
	// inputs can be finalized before the prefix hash that the ring
	// signatures will sign over is computed.
	rings := make([]ringMaterial, len(req.Inputs))
	inputs := make([]txcodec.Input, len(req.Inputs))
	keyImages := make([]cryptoops.Point, len(req.Inputs))
	for i, enote := range req.Inputs {
		mat, err := assembleRing(enote, req.Resolver, req.RingSize)
		if err != nil {
			return Result{}, err
		}
		rings[i] = mat

		hp := cryptoops.HashToPoint(enote.OneTimeAddress.Compress())
		keyImages[i] = cryptoops.ScalarMult(enote.OneTimeSecret, hp)

		inputs[i] = txcodec.Input{
			Tag:        txcodec.InputKey,
			Amount:     0,
			AssetType:  enote.AssetType,
			KeyOffsets: relativeOffsets(mat.keyOffsets),
			KeyImage:   keyImages[i],
		}
	}
	prefix.Inputs = inputs

	msgHash, err := txcodec.PrefixHash(prefix)
	if err != nil {
		return Result{}, err
	}

	clsags := make([]txcodec.CLSAGSignature, 0, len(req.Inputs))
	tclsags := make([]txcodec.TCLSAGSignature, 0, len(req.Inputs))
	for i, enote := range req.Inputs {
		switch req.TxType {
		case txcodec.TxConvert:
			sig, keyImage, err := signConvertInput(msgHash[:], rings[i], pseudoOuts[i], enote, pseudoMasks[i])
			if err != nil {
				return Result{}, err
			}
			if !keyImage.Equal(keyImages[i]) {
				return Result{}, newError(DuplicateKeyImage, i, "txbuilder: signed key image does not match the input's declared key image")
			}
			tclsags = append(tclsags, sig)
		default:
			sig, keyImage, err := signLegacyInput(msgHash[:], rings[i], pseudoOuts[i], enote, pseudoMasks[i])
			if err != nil {
				return Result{}, err
			}
			if !keyImage.Equal(keyImages[i]) {
				return Result{}, newError(DuplicateKeyImage, i, "txbuilder: signed key image does not match the input's declared key image")
			}
			clsags = append(clsags, sig)
		}
	}

	rctBase := txcodec.RctBase{
		Type:             rctType,
		Fee:              req.Fee,
		EncryptedAmounts: encryptedAmounts,
		Commitments:      commitments,
		PR:               cryptoops.Identity(),
	}
	if req.TxType == txcodec.TxConvert {
		sd, err := buildConvertSalviumData(msgHash[:])
		if err != nil {
			return Result{}, err
		}
		rctBase.Type = txcodec.RctSalviumOne
		rctBase.SalviumData = sd
	}

	rctPrunable := txcodec.RctPrunable{
		BulletproofsPlus: []txcodec.BulletproofPlus{bp},
		CLSAGs:           clsags,
		TCLSAGs:          tclsags,
		PseudoOuts:       pseudoOuts,
	}

	return Result{
		Prefix:      prefix,
		RctBase:     rctBase,
		RctPrunable: rctPrunable,
		KeyImages:   keyImages,
	}, nil
}

func checkDuplicateKeyImages(inputs []SpendableEnote) error {
	seen := make(map[[32]byte]bool, len(inputs))
	for i, in := range inputs {
		hp := cryptoops.HashToPoint(in.OneTimeAddress.Compress())
		ki := cryptoops.ScalarMult(in.OneTimeSecret, hp)
		enc := ki.Compress()
		if seen[enc] {
			return newError(DuplicateKeyImage, i, "txbuilder: duplicate key image among inputs")
		}
		seen[enc] = true
	}
	return nil
}

func amountsOf(inputs []SpendableEnote) []uint64 {
	out := make([]uint64, len(inputs))
	for i, in := range inputs {
		out[i] = in.Amount
	}
	return out
}

func destAmounts(dests []Destination) []uint64 {
	out := make([]uint64, len(dests))
	for i, d := range dests {
		out[i] = d.Amount
	}
	return out
}

// carrotInputContext derives the input_context CARROT's sender-
// receiver secret binds to: the first input's key image, using the
// same "R"||key_image encoding the scanner's receive side expects.
func carrotInputContext(inputs []SpendableEnote) []byte {
	hp := cryptoops.HashToPoint(inputs[0].OneTimeAddress.Compress())
	ki := cryptoops.ScalarMult(inputs[0].OneTimeSecret, hp)
	return scanner.RingInputContext(ki)
}

// buildExtra places every output's ephemeral public key in the extra
// TLV stream: ExtraTxPubkey for the first (canonically-sorted) output,
// and, when there's more than one output, ExtraAdditionalPubkeys for
// the complete per-output list (output 0 included, duplicated across
// both fields) so the receiver can recompute its own ECDH regardless
// of which slot its output landed in after the sort.
func buildExtra(outs []builtOutput) []byte {
	fields := []txcodec.ExtraField{{Tag: txcodec.ExtraTxPubkey, TxPubkey: outs[0].ephemeralPublic}}
	if len(outs) > 1 {
		pubs := make([]cryptoops.Point, len(outs))
		for i, o := range outs {
			pubs[i] = o.ephemeralPublic
		}
		fields = append(fields, txcodec.ExtraField{Tag: txcodec.ExtraAdditionalPubkeys, AdditionalPubkeys: pubs})
	}
	return txcodec.EncodeExtra(fields)
}

// relativeOffsets is the inverse of txcodec.AbsoluteOffsets: global
// indices, assumed already sorted ascending, to wire-format deltas.
func relativeOffsets(abs []uint64) []uint64 {
	rel := make([]uint64, len(abs))
	var prev uint64
	for i, a := range abs {
		rel[i] = a - prev
		prev = a
	}
	return rel
}
