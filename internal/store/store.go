// Package store defines the wallet's persistent state contract: the
// enote index, the transaction history, the synced block-hash ledger,
// and the sync-height cursor a scanner advances as it walks the chain.
// Concrete engines (see store/postgres) implement Store; the scanner,
// builder, and API packages depend only on this interface.
package store

import (
	"context"
	"errors"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

// ErrNotFound is returned by single-record lookups when nothing
// matches; callers treat it the same as a nil/zero-value miss.
var ErrNotFound = errors.New("store: not found")

// Era mirrors txbuilder.Era without importing it, so store has no
// dependency on the signing path.
type Era int

const (
	EraCN Era = iota
	EraCarrot
)

// Enote is one recognized, wallet-owned output: everything the scanner
// recovered plus the bookkeeping the store layers on top (spent state,
// chain position).
type Enote struct {
	KeyImage         [32]byte // zero for a coinbase output never yet spendable
	OneTimeAddress   cryptoops.Point
	AmountCommitment cryptoops.Point
	EphemeralPubkey  cryptoops.Point
	Amount           uint64
	Mask             cryptoops.Scalar
	Era              Era
	AssetType        string
	SubaddrMajor     uint32
	SubaddrMinor     uint32
	BlockHeight      uint64
	GlobalIndex      uint64
	OutputIndexInTx  uint64
	IsCoinbase       bool
	IsSpent          bool
	SpendingTxHash   [32]byte
	SpentHeight      uint64
	IsFrozen         bool
}

// OutputFilter selects a subset of owned outputs. Zero-value fields
// are wildcards; SpentState narrows to spent-only/unspent-only when
// non-nil.
type OutputFilter struct {
	AssetType  string
	SpentState *bool
	Frozen     *bool
}

// TransactionRecord is one wallet-relevant transaction: either sent,
// received, or both (self-transfer). Amount and Fee are always in the
// transaction's asset_type denomination.
type TransactionRecord struct {
	TxHash      [32]byte
	BlockHeight uint64
	Direction   TxDirection
	Amount      uint64
	Fee         uint64
	AssetType   string
	Confirmed   bool
}

type TxDirection string

const (
	DirectionIn  TxDirection = "in"
	DirectionOut TxDirection = "out"
)

// TransactionFilter narrows TransactionRecord queries; zero values are
// wildcards.
type TransactionFilter struct {
	AssetType string
	Direction TxDirection
}

// Balance reports an asset's total, spendable, and locked holdings as
// of current_height, per the lock-window rule in Unlocked.
type Balance struct {
	Total    uint64
	Unlocked uint64
	Locked   uint64
}

// Confirmation windows an output must clear before Balance.Unlocked
// counts it: ordinary outputs need 10 confirmations, coinbase needs 60
// (the deeper reorg-safety margin coinbase rewards require).
const (
	UnlockConfirmationsNormal   = 10
	UnlockConfirmationsCoinbase = 60
)

// Unlocked reports whether an output first seen at blockHeight (and,
// if coinbase, flagged as such) has cleared its lock window as of
// currentHeight.
func Unlocked(blockHeight, currentHeight uint64, isCoinbase bool) bool {
	required := uint64(UnlockConfirmationsNormal)
	if isCoinbase {
		required = UnlockConfirmationsCoinbase
	}
	if currentHeight < blockHeight {
		return false
	}
	return currentHeight-blockHeight >= required
}

// Store is the full set of operations the wallet core needs from
// durable storage.
type Store interface {
	PutOutput(ctx context.Context, enote Enote) error
	GetOutput(ctx context.Context, keyImage [32]byte) (Enote, error)
	MarkOutputSpent(ctx context.Context, keyImage [32]byte, spendingTx [32]byte, spentHeight uint64) error
	GetOutputs(ctx context.Context, filter OutputFilter) ([]Enote, error)

	PutTransaction(ctx context.Context, rec TransactionRecord) error
	GetTransaction(ctx context.Context, txHash [32]byte) (TransactionRecord, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRecord, error)

	PutBlockHash(ctx context.Context, height uint64, hash [32]byte) error
	GetBlockHash(ctx context.Context, height uint64) ([32]byte, error)

	GetSyncHeight(ctx context.Context) (uint64, error)
	SetSyncHeight(ctx context.Context, height uint64) error

	// Rollback deletes every block hash and enote recorded above height,
	// and unmarks outputs whose spent_height exceeds it. Used after a
	// daemon-reported reorg invalidates the wallet's cached chain tail.
	Rollback(ctx context.Context, height uint64) error

	GetBalance(ctx context.Context, assetType string, currentHeight uint64) (Balance, error)
}
