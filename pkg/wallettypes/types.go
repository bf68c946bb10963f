// Package wallettypes holds the wire-level DTOs exchanged with wallet
// API consumers — distinct from the internal engine's store/scanner
// representations, which carry decompressed curve points and are
// never serialized directly to a caller.
package wallettypes

// Output is one scanned, wallet-owned enote as exposed over the API.
type Output struct {
	KeyImage    string `json:"keyImage"`
	Amount      uint64 `json:"amount"`
	AssetType   string `json:"assetType"`
	BlockHeight uint64 `json:"blockHeight"`
	GlobalIndex uint64 `json:"globalIndex"`
	IsCoinbase  bool   `json:"isCoinbase"`
	IsSpent     bool   `json:"isSpent"`
	IsFrozen    bool   `json:"isFrozen"`
	Unlocked    bool   `json:"unlocked"`
}

// Destination is one payment target in a send request: an address
// string (decoded internally into spend/view pubkeys and an era tag)
// plus the amount to pay it.
type Destination struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Transaction is one wallet-relevant transaction as exposed over the
// API: either an incoming payment or an outgoing send, as Direction
// says.
type Transaction struct {
	TxHash      string `json:"txHash"`
	BlockHeight uint64 `json:"blockHeight"`
	Direction   string `json:"direction"` // "in" or "out"
	Amount      uint64 `json:"amount"`
	Fee         uint64 `json:"fee"`
	AssetType   string `json:"assetType"`
	Confirmed   bool   `json:"confirmed"`
}

// Balance reports an asset's total, spendable, and locked holdings.
type Balance struct {
	AssetType string `json:"assetType"`
	Total     uint64 `json:"total"`
	Unlocked  uint64 `json:"unlocked"`
	Locked    uint64 `json:"locked"`
}

// SyncStatus reports the wallet's scan progress against the daemon's
// chain tip.
type SyncStatus struct {
	WalletHeight uint64 `json:"walletHeight"`
	DaemonHeight uint64 `json:"daemonHeight"`
	Synchronized bool   `json:"synchronized"`
}

// SendResult reports the outcome of a submitted transaction.
type SendResult struct {
	TxHash string `json:"txHash"`
	Fee    uint64 `json:"fee"`
}
