package daemon

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// blockTxWire is one transaction's scan-relevant material as the
// daemon reports it: the prefix and rct_base sections hex-encoded
// exactly as EncodeHashable/EncodeRctBase produce them. Signatures and
// range proofs never travel over this call; a scanning wallet has no
// use for them and they would roughly triple the response size.
type blockTxWire struct {
	PrefixHex  string `json:"prefix"`
	RctBaseHex string `json:"rct_base"`
}

type getBlockResult struct {
	Height     uint64        `json:"height"`
	Hash       string        `json:"hash"`
	IsCoinbase bool          `json:"is_coinbase"`
	Txs        []blockTxWire `json:"txs"`
}

// GetBlockOutputs implements scanner.Daemon, decoding every
// transaction the daemon returns for height into the candidate
// outputs a scan session tries against a wallet's keys.
func (c *Client) GetBlockOutputs(ctx context.Context, height uint64) (scanner.BlockOutputs, error) {
	var res getBlockResult
	if err := c.call(ctx, "get_block", map[string]uint64{"height": height}, &res); err != nil {
		return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: %w", err)
	}

	out := scanner.BlockOutputs{Height: res.Height, IsCoinbase: res.IsCoinbase}
	hashBytes, err := hex.DecodeString(res.Hash)
	if err != nil || len(hashBytes) != 32 {
		return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: malformed block hash at height %d", height)
	}
	copy(out.BlockHash[:], hashBytes)

	var firstKeyImage *[32]byte
	for txIdx, w := range res.Txs {
		prefixBytes, err := hex.DecodeString(w.PrefixHex)
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: bad prefix hex: %w", txIdx, err)
		}
		prefix, err := txcodec.DecodePrefix(prefixBytes)
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: decode prefix: %w", txIdx, err)
		}

		rctBytes, err := hex.DecodeString(w.RctBaseHex)
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: bad rct_base hex: %w", txIdx, err)
		}
		rctBase, _, err := txcodec.DecodeRctBase(rctBytes, len(prefix.Outputs))
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: decode rct_base: %w", txIdx, err)
		}

		if firstKeyImage == nil {
			if ki, ok := firstKeyImageOf(prefix); ok {
				firstKeyImage = &ki
			}
		}

		extraFields, err := txcodec.DecodeExtra(prefix.Extra)
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: decode extra: %w", txIdx, err)
		}
		ephemeralPubkeys := ephemeralPubkeysOf(extraFields, len(prefix.Outputs))

		txHash, err := txcodec.PrefixHash(prefix)
		if err != nil {
			return scanner.BlockOutputs{}, fmt.Errorf("daemon: get_block_outputs: tx %d: hash prefix: %w", txIdx, err)
		}

		for _, ki := range keyImagesOf(prefix) {
			out.SpentKeyImages = append(out.SpentKeyImages, scanner.SpentKeyImage{KeyImage: ki, TxHash: txHash})
		}

		for i, o := range prefix.Outputs {
			candidate := scanner.CandidateOutput{
				OneTimeAddress:   o.Key,
				AmountCommitment: rctBase.Commitments[i],
				EncryptedAmount:  append([]byte(nil), rctBase.EncryptedAmounts[i][:]...),
				EphemeralPubkey:  ephemeralPubkeys[i],
				AssetType:        o.AssetType,
				OutputIndexInTx:  uint64(i),
				TxHash:           txHash,
			}
			switch o.Tag {
			case txcodec.TargetToTaggedKey:
				candidate.ViewTag = []byte{o.ViewTag1}
			case txcodec.TargetToCarrotV1:
				candidate.ViewTag = append([]byte(nil), o.ViewTag3[:]...)
			}
			out.Outputs = append(out.Outputs, candidate)
		}
	}
	out.FirstKeyImg = firstKeyImage

	return out, nil
}

func firstKeyImageOf(prefix txcodec.Prefix) ([32]byte, bool) {
	for _, in := range prefix.Inputs {
		if in.Tag != txcodec.InputKey {
			continue
		}
		return in.KeyImage.Compress(), true
	}
	return [32]byte{}, false
}

// keyImagesOf returns every key input's key image in a transaction,
// in prefix order. A ring-signed transaction can spend several
// outputs at once; firstKeyImageOf only needs the first for CARROT's
// input-context domain separator, but spend detection needs all of
// them.
func keyImagesOf(prefix txcodec.Prefix) [][32]byte {
	var out [][32]byte
	for _, in := range prefix.Inputs {
		if in.Tag != txcodec.InputKey {
			continue
		}
		out = append(out, in.KeyImage.Compress())
	}
	return out
}

// ephemeralPubkeysOf maps the tx_pubkey/additional_pubkeys extra
// fields back onto per-output ephemeral keys, mirroring the
// txbuilder convention: output 0 (in prefix order, which is already
// the canonically-sorted order the builder wrote) takes
// ExtraTxPubkey, and every output takes its own entry from
// ExtraAdditionalPubkeys when present.
func ephemeralPubkeysOf(fields []txcodec.ExtraField, numOutputs int) []cryptoops.Point {
	pubs := make([]cryptoops.Point, numOutputs)
	var txPubkey cryptoops.Point
	var additional []cryptoops.Point
	for _, f := range fields {
		switch f.Tag {
		case txcodec.ExtraTxPubkey:
			txPubkey = f.TxPubkey
		case txcodec.ExtraAdditionalPubkeys:
			additional = f.AdditionalPubkeys
		}
	}
	for i := range pubs {
		if i < len(additional) {
			pubs[i] = additional[i]
		} else {
			pubs[i] = txPubkey
		}
	}
	return pubs
}
