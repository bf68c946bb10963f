package walletapi

import (
	"fmt"

	"github.com/salvium/wallet-core/internal/store"
	"github.com/salvium/wallet-core/pkg/wallettypes"
)

// toOutputDTO converts a store.Enote to its wire representation.
// store.Enote carries cryptoops.Point/Scalar fields with unexported
// internals, so it must never be handed to c.JSON directly — it would
// silently serialize as empty objects instead of failing loudly.
func toOutputDTO(e store.Enote, currentHeight uint64) wallettypes.Output {
	return wallettypes.Output{
		KeyImage:    fmt.Sprintf("%x", e.KeyImage),
		Amount:      e.Amount,
		AssetType:   e.AssetType,
		BlockHeight: e.BlockHeight,
		GlobalIndex: e.GlobalIndex,
		IsCoinbase:  e.IsCoinbase,
		IsSpent:     e.IsSpent,
		IsFrozen:    e.IsFrozen,
		Unlocked:    store.Unlocked(e.BlockHeight, currentHeight, e.IsCoinbase),
	}
}

func toOutputDTOs(outputs []store.Enote, currentHeight uint64) []wallettypes.Output {
	dtos := make([]wallettypes.Output, len(outputs))
	for i, e := range outputs {
		dtos[i] = toOutputDTO(e, currentHeight)
	}
	return dtos
}

func toTransactionDTO(rec store.TransactionRecord) wallettypes.Transaction {
	return wallettypes.Transaction{
		TxHash:      fmt.Sprintf("%x", rec.TxHash),
		BlockHeight: rec.BlockHeight,
		Direction:   string(rec.Direction),
		Amount:      rec.Amount,
		Fee:         rec.Fee,
		AssetType:   rec.AssetType,
		Confirmed:   rec.Confirmed,
	}
}

func toTransactionDTOs(recs []store.TransactionRecord) []wallettypes.Transaction {
	dtos := make([]wallettypes.Transaction, len(recs))
	for i, rec := range recs {
		dtos[i] = toTransactionDTO(rec)
	}
	return dtos
}
