package daemon

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/salvium/wallet-core/internal/txcodec"
)

// Transaction is a fully-built, signed transaction ready for relay.
type Transaction struct {
	Prefix      txcodec.Prefix
	RctBase     txcodec.RctBase
	RctPrunable txcodec.RctPrunable
}

type sendRawTransactionParams struct {
	TxAsHex string `json:"tx_as_hex"`
}

type sendRawTransactionResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// SubmitTransaction serializes tx to its wire form and relays it to
// the daemon's mempool.
func (c *Client) SubmitTransaction(ctx context.Context, tx Transaction) error {
	blob, err := encodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("daemon: submit_transaction: encode: %w", err)
	}

	var res sendRawTransactionResult
	params := sendRawTransactionParams{TxAsHex: hex.EncodeToString(blob)}
	if err := c.call(ctx, "send_raw_transaction", params, &res); err != nil {
		return fmt.Errorf("daemon: submit_transaction: %w", err)
	}
	if !res.Accepted {
		return fmt.Errorf("daemon: submit_transaction: rejected: %s", res.Reason)
	}
	return nil
}

// encodeTransaction serializes the full wire transaction: the
// hashable prefix, the rct_base section, then the prunable section
// (range proof, one signature per input, pseudo-outputs) in that
// order. txcodec exposes encoders for each piece but never their
// concatenation, since only the sender ever needs the whole blob.
func encodeTransaction(tx Transaction) ([]byte, error) {
	prefixBytes, err := txcodec.EncodeHashable(tx.Prefix)
	if err != nil {
		return nil, fmt.Errorf("prefix: %w", err)
	}
	rctBaseBytes, err := txcodec.EncodeRctBase(tx.RctBase)
	if err != nil {
		return nil, fmt.Errorf("rct_base: %w", err)
	}

	var prunable []byte
	prunable = append(prunable, txcodec.EncodeVarint(uint64(len(tx.RctPrunable.BulletproofsPlus)))...)
	for _, bp := range tx.RctPrunable.BulletproofsPlus {
		prunable = append(prunable, txcodec.EncodeBulletproofPlus(bp)...)
	}
	if tx.RctBase.Type == txcodec.RctSalviumOne {
		for _, sig := range tx.RctPrunable.TCLSAGs {
			prunable = append(prunable, txcodec.EncodeTCLSAG(sig)...)
		}
	} else {
		for _, sig := range tx.RctPrunable.CLSAGs {
			prunable = append(prunable, txcodec.EncodeCLSAG(sig)...)
		}
	}
	for _, p := range tx.RctPrunable.PseudoOuts {
		enc := p.Compress()
		prunable = append(prunable, enc[:]...)
	}

	out := make([]byte, 0, len(prefixBytes)+len(rctBaseBytes)+len(prunable))
	out = append(out, prefixBytes...)
	out = append(out, rctBaseBytes...)
	out = append(out, prunable...)
	return out, nil
}
