// Package walletapi exposes the wallet core over HTTP and a push
// WebSocket stream: balance/output/transaction queries, a send
// endpoint, and a transaction notification pushed after each send
// (the new_block and sync_progress event types are defined, but
// nothing in this module broadcasts them). It never
// custodies keys on behalf of a remote caller — it is the local API
// surface of a wallet process that already holds its own keys, the
// same role monero-wallet-rpc plays for its engine.
package walletapi

import (
	"context"

	"github.com/salvium/wallet-core/internal/store"
)

// SendRequest is one outgoing payment request.
type SendRequest struct {
	Destinations []SendDestination
	AssetType    string
	Priority     int
}

type SendDestination struct {
	Address string
	Amount  uint64
}

// SendResult reports the outcome of a submitted transaction.
type SendResult struct {
	TxHash string
	Fee    uint64
}

// SubaddressRequest asks for a fresh receive address at a given
// account index.
type SubaddressRequest struct {
	Major uint32
	Minor uint32
}

// Core is everything the HTTP/WebSocket layer needs from the wallet
// engine. cmd/walletcore supplies the concrete implementation, wiring
// together store.Store, the daemon client, the scanner session, and
// txbuilder; tests supply a fake.
type Core interface {
	Balance(ctx context.Context, assetType string) (store.Balance, error)
	Outputs(ctx context.Context, filter store.OutputFilter) ([]store.Enote, error)
	Transactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error)
	SyncHeight(ctx context.Context) (uint64, error)
	DaemonHeight(ctx context.Context) (uint64, error)
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	NewSubaddress(ctx context.Context, req SubaddressRequest) (string, error)
}

// Event is a push notification fanned out over the WebSocket stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EventNewBlock     = "new_block"
	EventTransaction  = "transaction"
	EventSyncProgress = "sync_progress"
)
