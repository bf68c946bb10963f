package main

import (
	"context"
	"fmt"
	"log"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/daemon"
	"github.com/salvium/wallet-core/internal/keys"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/store"
	"github.com/salvium/wallet-core/internal/txbuilder"
	"github.com/salvium/wallet-core/internal/txcodec"
	"github.com/salvium/wallet-core/internal/walletapi"
)

// txVersion is the prefix version every transaction this engine builds
// declares; version 2 sits below TRANSFER's version-3 return-address-
// list trailer, and carries none of the version-gated STAKE/
// PROTOCOL trailer fields this engine never populates.
const txVersion = uint64(2)

// Engine wires the store, the daemon client, and the wallet's own key
// material into walletapi.Core. It is the only piece of this module
// that ever touches a spend secret: recognition (scanner) and signing
// (txbuilder) both work with secrets Engine hands them for the
// duration of one call, never with secrets the store persists.
type Engine struct {
	store  store.Store
	daemon *daemon.Client
	net    keys.NetworkParams

	cn        keys.CNKeys
	cnTable   map[[32]byte]keys.CNSubaddressIndexFor
	carrot    keys.CarrotKeys
	carrotTbl keys.SubaddressTable

	defaultAssetType string
	ringSize         int
}

// NewEngine precomputes the subaddress lookup tables both key
// hierarchies need for recognition, bounded by lookaheadMajor/Minor —
// a wallet that needs a subaddress beyond this window must be
// restarted with a wider lookahead, the same practical bound
// BuildCNSubaddressTable/BuildCarrotSubaddressTable's doc comments
// describe for bootstrapping.
func NewEngine(st store.Store, dmn *daemon.Client, net keys.NetworkParams, seed [32]byte, defaultAssetType string, ringSize int, lookaheadMajor, lookaheadMinor uint32) *Engine {
	cn := keys.NewCNKeys(seed)
	carrot := keys.NewCarrotKeys(seed)

	return &Engine{
		store:            st,
		daemon:           dmn,
		net:              net,
		cn:               cn,
		cnTable:          keys.BuildCNSubaddressTable(cn, lookaheadMajor, lookaheadMinor),
		carrot:           carrot,
		carrotTbl:        keys.BuildCarrotSubaddressTable(carrot, lookaheadMajor, lookaheadMinor),
		defaultAssetType: defaultAssetType,
		ringSize:         ringSize,
	}
}

func (e *Engine) assetTypeOrDefault(assetType string) string {
	if assetType == "" {
		return e.defaultAssetType
	}
	return assetType
}

// Balance implements walletapi.Core.
func (e *Engine) Balance(ctx context.Context, assetType string) (store.Balance, error) {
	height, err := e.store.GetSyncHeight(ctx)
	if err != nil {
		return store.Balance{}, err
	}
	return e.store.GetBalance(ctx, e.assetTypeOrDefault(assetType), height)
}

// Outputs implements walletapi.Core.
func (e *Engine) Outputs(ctx context.Context, filter store.OutputFilter) ([]store.Enote, error) {
	return e.store.GetOutputs(ctx, filter)
}

// Transactions implements walletapi.Core.
func (e *Engine) Transactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	return e.store.GetTransactions(ctx, filter)
}

// SyncHeight implements walletapi.Core.
func (e *Engine) SyncHeight(ctx context.Context) (uint64, error) {
	return e.store.GetSyncHeight(ctx)
}

// DaemonHeight implements walletapi.Core.
func (e *Engine) DaemonHeight(ctx context.Context) (uint64, error) {
	return e.daemon.TipHeight(ctx)
}

// NewSubaddress implements walletapi.Core. It always derives a
// CN-era address: CN is the only era this engine can later spend from,
// so every address it ever hands out for receiving funds stays
// spendable by this same wallet (see Send's era note).
func (e *Engine) NewSubaddress(ctx context.Context, req walletapi.SubaddressRequest) (string, error) {
	sub := keys.DeriveCNSubaddress(e.cn, req.Major, req.Minor)
	return keys.EncodeAddress(e.net, sub.SpendPublic, sub.ViewPublic), nil
}

// Send implements walletapi.Core: selects unspent, unlocked CN-era
// enotes to cover the request, reconstructs each one's one-time spend
// secret from wallet keys, builds and signs a transaction, submits it,
// and records the resulting spend.
//
// Only CN-era enotes are ever selected as inputs. A CARROT-era enote's
// one-time secret needs the sender's two per-output subaddress
// extensions (ext_g, ext_t); scanner.CarrotMatch never recovers them
// (TryScanCarrot only needs the subaddress spend key's compressed
// encoding to look up the owning subaddress, not the extensions
// themselves), so this engine cannot derive k_o for a CARROT output
// and never tries to spend one.
func (e *Engine) Send(ctx context.Context, req walletapi.SendRequest) (walletapi.SendResult, error) {
	if len(req.Destinations) == 0 {
		return walletapi.SendResult{}, fmt.Errorf("walletcore: no destinations")
	}
	assetType := e.assetTypeOrDefault(req.AssetType)

	dests := make([]txbuilder.Destination, 0, len(req.Destinations))
	var destTotal uint64
	for i, d := range req.Destinations {
		spend, view, err := keys.DecodeAddress(e.net, d.Address)
		if err != nil {
			return walletapi.SendResult{}, fmt.Errorf("walletcore: destination %d: %w", i, err)
		}
		dests = append(dests, txbuilder.Destination{
			Era:         txbuilder.EraCN,
			SpendPublic: spend,
			ViewPublic:  view,
			Amount:      d.Amount,
			AssetType:   assetType,
		})
		destTotal += d.Amount
	}

	priority := txbuilder.Priority(req.Priority)
	spendables, selectedTotal, err := e.selectInputs(ctx, assetType, destTotal, priority)
	if err != nil {
		return walletapi.SendResult{}, err
	}

	fee := txbuilder.FeeEstimate(len(spendables), len(dests)+1, e.ringSize, priority)
	if selectedTotal < destTotal+fee {
		spendables, selectedTotal, err = e.selectInputs(ctx, assetType, destTotal+fee, priority)
		if err != nil {
			return walletapi.SendResult{}, err
		}
		fee = txbuilder.FeeEstimate(len(spendables), len(dests)+1, e.ringSize, priority)
		if selectedTotal < destTotal+fee {
			return walletapi.SendResult{}, fmt.Errorf("walletcore: insufficient unlocked funds for %s", assetType)
		}
	}

	change := txbuilder.Destination{
		Era:         txbuilder.EraCN,
		SpendPublic: e.cn.SpendPublic,
		ViewPublic:  e.cn.ViewPublic,
		AssetType:   assetType,
	}

	buildReq := txbuilder.Request{
		Inputs:               spendables,
		RingSize:             e.ringSize,
		Resolver:             e.daemon,
		Destinations:         dests,
		Change:               change,
		Fee:                  fee,
		TxType:               txcodec.TxTransfer,
		Version:              txVersion,
		SourceAssetType:      assetType,
		DestinationAssetType: assetType,
	}

	result, err := txbuilder.Build(buildReq)
	if err != nil {
		return walletapi.SendResult{}, fmt.Errorf("walletcore: build transaction: %w", err)
	}

	tx := daemon.Transaction{Prefix: result.Prefix, RctBase: result.RctBase, RctPrunable: result.RctPrunable}
	if err := e.daemon.SubmitTransaction(ctx, tx); err != nil {
		return walletapi.SendResult{}, fmt.Errorf("walletcore: submit transaction: %w", err)
	}

	txHash, err := txcodec.PrefixHash(result.Prefix)
	if err != nil {
		return walletapi.SendResult{}, fmt.Errorf("walletcore: hash transaction: %w", err)
	}

	syncHeight, _ := e.store.GetSyncHeight(ctx)
	for _, ki := range result.KeyImages {
		if err := e.store.MarkOutputSpent(ctx, ki.Compress(), txHash, syncHeight); err != nil {
			log.Printf("walletcore: mark spent failed for key image %x: %v", ki.Compress(), err)
		}
	}

	rec := store.TransactionRecord{
		TxHash:      txHash,
		BlockHeight: 0, // unconfirmed: the scanner fills this in once it sees the transaction mined
		Direction:   store.DirectionOut,
		Amount:      destTotal,
		Fee:         fee,
		AssetType:   assetType,
		Confirmed:   false,
	}
	if err := e.store.PutTransaction(ctx, rec); err != nil {
		log.Printf("walletcore: failed to record sent transaction: %v", err)
	}

	return walletapi.SendResult{TxHash: fmt.Sprintf("%x", txHash), Fee: fee}, nil
}

// selectInputs greedily accumulates unspent, unlocked CN-era enotes of
// assetType until their total reaches target, in the order the store
// returns them. A real wallet would weigh dust consolidation and
// output-count privacy; this engine takes the simplest selection that
// is still correct, oldest-eligible-first via the store's natural
// order.
func (e *Engine) selectInputs(ctx context.Context, assetType string, target uint64, priority txbuilder.Priority) ([]txbuilder.SpendableEnote, uint64, error) {
	notSpent := false
	outputs, err := e.store.GetOutputs(ctx, store.OutputFilter{AssetType: assetType, SpentState: &notSpent})
	if err != nil {
		return nil, 0, fmt.Errorf("walletcore: list outputs: %w", err)
	}
	height, err := e.store.GetSyncHeight(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("walletcore: sync height: %w", err)
	}

	var spendables []txbuilder.SpendableEnote
	var total uint64
	for _, enote := range outputs {
		if enote.Era != store.EraCN {
			continue
		}
		if !store.Unlocked(enote.BlockHeight, height, enote.IsCoinbase) {
			continue
		}

		secret, err := e.reconstructCNSecret(enote)
		if err != nil {
			log.Printf("walletcore: skipping unspendable output %x: %v", enote.KeyImage, err)
			continue
		}

		spendables = append(spendables, txbuilder.SpendableEnote{
			Era:            txbuilder.EraCN,
			OneTimeAddress: enote.OneTimeAddress,
			OneTimeSecret:  secret,
			Amount:         enote.Amount,
			Mask:           enote.Mask,
			AssetType:      enote.AssetType,
			GlobalIndex:    enote.GlobalIndex,
		})
		total += enote.Amount
		if total >= target {
			break
		}
	}
	if total < target {
		return nil, 0, fmt.Errorf("walletcore: insufficient unlocked %s balance", assetType)
	}
	return spendables, total, nil
}

// reconstructCNSecret recovers k_o for a CN-era enote purely from the
// wallet's own keys and the enote's public fields: derivation = k_v*D_e,
// the subaddress spend offset from (major, minor), then
// CNOneTimeSecret(derivation, output_index, spend_secret+offset).
func (e *Engine) reconstructCNSecret(enote store.Enote) (cryptoops.Scalar, error) {
	derivation := cryptoops.ScalarMult(e.cn.ViewSecret, enote.EphemeralPubkey)
	subOffset := keys.CNSubaddressOffset(e.cn.ViewSecret, enote.SubaddrMajor, enote.SubaddrMinor)
	subSpendSecret := e.cn.SpendSecret.Add(subOffset)
	return keys.CNOneTimeSecret(derivation, enote.OutputIndexInTx, subSpendSecret), nil
}

// scanSink converts a recognized enote match into a store.Enote and
// persists it. Built as a scanner.Sink so it plugs directly into
// syncBlock's block-by-block dispatch.
func (e *Engine) scanSink(ctx context.Context, height uint64, carrot *scanner.CarrotMatch, cn *scanner.CNMatch, out scanner.CandidateOutput, isCoinbase bool) {
	var enote store.Enote
	enote.OneTimeAddress = out.OneTimeAddress
	enote.AmountCommitment = out.AmountCommitment
	enote.EphemeralPubkey = out.EphemeralPubkey
	enote.AssetType = out.AssetType
	enote.BlockHeight = height
	enote.OutputIndexInTx = out.OutputIndexInTx
	enote.IsCoinbase = isCoinbase

	switch {
	case cn != nil:
		derivation := cryptoops.ScalarMult(e.cn.ViewSecret, out.EphemeralPubkey)
		derivationEnc := derivation.Compress()
		mask := cryptoops.GenCommitmentMask(derivationEnc[:])
		amount, ok := decryptCNAmount(derivation, out.EncryptedAmount)
		if !ok {
			return
		}
		enote.Era = store.EraCN
		enote.SubaddrMajor = cn.SubaddressIndex.Major
		enote.SubaddrMinor = cn.SubaddressIndex.Minor
		enote.Amount = amount
		enote.Mask = mask

		subOffset := keys.CNSubaddressOffset(e.cn.ViewSecret, cn.SubaddressIndex.Major, cn.SubaddressIndex.Minor)
		subSpendSecret := e.cn.SpendSecret.Add(subOffset)
		secret := keys.CNOneTimeSecret(derivation, out.OutputIndexInTx, subSpendSecret)
		enote.KeyImage = keys.KeyImage(secret, out.OneTimeAddress).Compress()

	case carrot != nil:
		enote.Era = store.EraCarrot
		enote.SubaddrMajor = carrot.SubaddressIndex.Major
		enote.SubaddrMinor = carrot.SubaddressIndex.Minor
		enote.Amount = carrot.Amount
		enote.Mask = carrot.Mask
		// A CARROT enote's key image needs k_gi and the ext_g/ext_t
		// extensions this scan never recovers (see Send's doc comment);
		// the zero key image still lets the output be recorded,
		// balanced, and displayed, just never spent by this engine.

	default:
		return
	}

	if err := e.store.PutOutput(ctx, enote); err != nil {
		log.Printf("walletcore: failed to persist scanned output: %v", err)
		return
	}

	rec := store.TransactionRecord{
		TxHash:      out.TxHash,
		BlockHeight: height,
		Direction:   store.DirectionIn,
		Amount:      enote.Amount,
		AssetType:   enote.AssetType,
		Confirmed:   true,
	}
	if err := e.store.PutTransaction(ctx, rec); err != nil {
		log.Printf("walletcore: failed to record received transaction: %v", err)
	}
}

// decryptCNAmount reverses the legacy amount mask a CN output was
// encrypted under, the sender-side counterpart of buildCNOutput's
// amount encryption: keccak256("amount", derivation) XORed with the
// little-endian amount.
func decryptCNAmount(derivation cryptoops.Point, encAmount []byte) (uint64, bool) {
	if len(encAmount) != 8 {
		return 0, false
	}
	enc := derivation.Compress()
	mask := cryptoops.Keccak256([]byte("amount"), enc[:])
	var amtLE [8]byte
	for i := 0; i < 8; i++ {
		amtLE[i] = encAmount[i] ^ mask[i]
	}
	return leUint64(amtLE), true
}

func leUint64(b [8]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
