// Package txbuilder assembles a complete, signed Salvium transaction
// from a caller-selected set of spendable enotes, a destination list,
// and externally-resolved decoy ring members. It is the sender-side
// mirror of package scanner: where scanner recovers an enote's secrets
// from a wallet's keys, txbuilder derives a fresh enote's public wire
// form from a recipient's public keys, and signs the inputs that fund
// it.
package txbuilder

import (
	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// Era selects which one-time-address scheme a destination expects.
// Unlike an incoming enote (which self-describes its era by output
// target tag), a destination address must say up front which scheme
// the recipient can scan, since the two hierarchies use disjoint
// public-key material.
type Era int

const (
	EraCN Era = iota
	EraCarrot
)

// Destination is one payment target: a decoded address plus the amount
// to send it, and the asset type it denominates (Salvium is
// multi-asset; TRANSFER transactions still carry a source/destination
// asset type pair even when both are the native asset).
type Destination struct {
	Era         Era
	SpendPublic cryptoops.Point
	ViewPublic  cryptoops.Point
	Amount      uint64
	AssetType   string
}

// SpendableEnote is everything the builder needs to spend one owned
// output as an input: its wire position (for the ring), the real
// secret key spending it, and the mask/amount the prover needs to
// balance pseudo-outputs.
type SpendableEnote struct {
	Era            Era
	OneTimeAddress cryptoops.Point
	OneTimeSecret  cryptoops.Scalar // k: spend-key discrete log of OneTimeAddress w.r.t. G
	AuditSecret    cryptoops.Scalar // y: discrete log of AuditTag w.r.t. T, CARROT/TCLSAG inputs only
	AuditTag       cryptoops.Point  // published audit-tag key, y*T; zero value for CN-era enotes
	Amount         uint64
	Mask           cryptoops.Scalar
	AssetType      string
	GlobalIndex    uint64 // this output's position in the chain-wide output set
}

// DecoyMember is one non-spent ring member the daemon's get_outs oracle
// resolved for a requested (amount, global_index) pair.
type DecoyMember struct {
	GlobalIndex    uint64
	OneTimeAddress cryptoops.Point
	Commitment     cryptoops.Point
	AuditTag       cryptoops.Point // CARROT-era decoys only; zero value for CN-era decoys
}

// DecoyResolver is the subset of the daemon the builder needs to fetch
// ring members; scanner.Daemon is kept separate since scanning and
// building share no call shape.
type DecoyResolver interface {
	ResolveDecoys(amount uint64, assetType string, count int, exclude uint64) ([]DecoyMember, error)
}

// Priority selects a fee tier; FeeEstimate maps it to a multiplier over
// the base per-byte rate.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityDefault
	PriorityHigh
	PriorityPriority
)

// Request is everything Build needs: the funding inputs (one RingSize
// applies to the ring resolved around every input), the
// destinations, a change destination, and the transaction's Salvium
// purpose.
type Request struct {
	Inputs       []SpendableEnote
	RingSize     int
	Resolver     DecoyResolver
	Destinations []Destination
	Change       Destination
	Fee          uint64
	UnlockTime   uint64
	TxType       txcodec.TxType
	Version      uint64
	SourceAssetType      string
	DestinationAssetType string
	AmountBurnt          uint64
	AmountSlippageLimit  uint64
}

// Result is a fully-built, signed transaction ready for serialization,
// plus the key images it spends (for the caller's own double-spend
// bookkeeping before broadcast).
type Result struct {
	Prefix     txcodec.Prefix
	RctBase    txcodec.RctBase
	RctPrunable txcodec.RctPrunable
	KeyImages  []cryptoops.Point
}

// builtOutput is one output's public wire form plus the private mask
// the commitment was built with, tracked together until the final
// canonical sort scatters them back into parallel slices.
type builtOutput struct {
	output          txcodec.Output
	commitment      cryptoops.Point
	mask            cryptoops.Scalar
	amount          uint64
	encryptedAmount [8]byte
	ephemeralSecret cryptoops.Scalar
	ephemeralPublic cryptoops.Point
}

// ringMaterial is the assembled per-input ring (real + decoys, with
// the real member's position recorded) ready for CLSAG/TCLSAG signing.
type ringMaterial struct {
	realIndex int
	addresses []cryptoops.Point
	audits    []cryptoops.Point // second-generator keys, TCLSAG only; zero-value entries for CN decoys
	commitments []cryptoops.Point
	keyOffsets  []uint64 // absolute global indices, ascending order as placed in the ring
}
