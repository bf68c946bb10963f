package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/daemon"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/store"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// jsonRPCRequest mirrors the wire shape daemon.Client sends; kept local
// since the real type is unexported in package daemon.
type jsonRPCRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// rpcFixture answers a fixed JSON-RPC method with a canned result,
// the same pattern daemon_test.go uses to stand in for a real daemon.
type rpcFixture struct {
	byMethod map[string]json.RawMessage
}

func newRPCFixture() *rpcFixture { return &rpcFixture{byMethod: make(map[string]json.RawMessage)} }

func (f *rpcFixture) set(method string, result any) {
	enc, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	f.byMethod[method] = enc
}

func (f *rpcFixture) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, ok := f.byMethod[req.Method]
		if !ok {
			t.Fatalf("unexpected method %q", req.Method)
		}
		resp := map[string]json.RawMessage{"result": result}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestSyncBlockPersistsOwnOutputAndAdvancesCursor(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(t, st)

	out := buildCNCandidate(t, e, 3_000_000, 0)

	prefix := txcodec.Prefix{
		Version: 2,
		Inputs: []txcodec.Input{{
			Tag:        txcodec.InputKey,
			AssetType:  "SAL",
			KeyOffsets: []uint64{1, 2},
			KeyImage:   cryptoops.ScalarMultBase(cryptoops.ScReduce([]byte("sync test key image"))),
		}},
		Outputs: []txcodec.Output{{
			Tag:       txcodec.TargetToTaggedKey,
			Key:       out.OneTimeAddress,
			ViewTag1:  0,
			AssetType: "SAL",
		}},
		TxType:               txcodec.TxTransfer,
		ReturnAddress:        cryptoops.Identity(),
		ReturnPubkey:         cryptoops.Identity(),
		SourceAssetType:      "SAL",
		DestinationAssetType: "SAL",
	}
	prefix.Extra = txcodec.EncodeExtra([]txcodec.ExtraField{{Tag: txcodec.ExtraTxPubkey, TxPubkey: out.EphemeralPubkey}})

	var encAmount [8]byte
	copy(encAmount[:], out.EncryptedAmount)
	rctBase := txcodec.RctBase{
		Type:             txcodec.RctCLSAG,
		Fee:              1,
		EncryptedAmounts: [][8]byte{encAmount},
		Commitments:      []cryptoops.Point{out.AmountCommitment},
		PR:               cryptoops.Identity(),
	}

	prefixBytes, err := txcodec.EncodeHashable(prefix)
	if err != nil {
		t.Fatalf("encode prefix: %v", err)
	}
	rctBaseBytes, err := txcodec.EncodeRctBase(rctBase)
	if err != nil {
		t.Fatalf("encode rct_base: %v", err)
	}

	blockHash := [32]byte{0x01, 0x02, 0x03}
	fx := newRPCFixture()
	fx.set("get_info", map[string]uint64{"height": 1})
	fx.set("get_block", map[string]any{
		"height":      101,
		"hash":        hex.EncodeToString(blockHash[:]),
		"is_coinbase": false,
		"txs": []map[string]string{{
			"prefix":   hex.EncodeToString(prefixBytes),
			"rct_base": hex.EncodeToString(rctBaseBytes),
		}},
	})
	srv := fx.server(t)
	defer srv.Close()

	client, err := daemon.NewClient(daemon.Config{Host: srv.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	e.daemon = client

	if err := syncBlock(context.Background(), e, 101); err != nil {
		t.Fatalf("syncBlock: %v", err)
	}

	if len(st.outputs) != 1 {
		t.Fatalf("outputs stored = %d, want 1", len(st.outputs))
	}
	for _, enote := range st.outputs {
		if enote.Amount != 3_000_000 {
			t.Errorf("amount = %d, want 3000000", enote.Amount)
		}
		if enote.Era != store.EraCN {
			t.Errorf("era = %v, want EraCN", enote.Era)
		}
	}

	height, err := st.GetSyncHeight(context.Background())
	if err != nil {
		t.Fatalf("GetSyncHeight: %v", err)
	}
	if height != 101 {
		t.Errorf("sync height = %d, want 101", height)
	}
}

func TestMarkSpentKeyImagesMarksOwnedOutputSpentByAnyTransaction(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(t, st)

	owned := store.Enote{KeyImage: [32]byte{0x42}, AssetType: "SAL", Amount: 1000}
	st.PutOutput(context.Background(), owned)

	spendingTx := [32]byte{0x99}
	spent := []scanner.SpentKeyImage{
		{KeyImage: [32]byte{0x42}, TxHash: spendingTx},
		{KeyImage: [32]byte{0xaa}, TxHash: spendingTx}, // not ours — must be ignored, not error
	}

	if err := markSpentKeyImages(context.Background(), e, 250, spent); err != nil {
		t.Fatalf("markSpentKeyImages: %v", err)
	}

	got := st.outputs[[32]byte{0x42}]
	if !got.IsSpent {
		t.Fatal("expected owned output to be marked spent")
	}
	if got.SpendingTxHash != spendingTx {
		t.Errorf("spendingTxHash = %x, want %x", got.SpendingTxHash, spendingTx)
	}
	if got.SpentHeight != 250 {
		t.Errorf("spentHeight = %d, want 250", got.SpentHeight)
	}
}

func TestMarkSpentKeyImagesIsIdempotent(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(t, st)

	st.PutOutput(context.Background(), store.Enote{KeyImage: [32]byte{0x42}, AssetType: "SAL", Amount: 1000})
	spent := []scanner.SpentKeyImage{{KeyImage: [32]byte{0x42}, TxHash: [32]byte{0x01}}}

	if err := markSpentKeyImages(context.Background(), e, 100, spent); err != nil {
		t.Fatalf("markSpentKeyImages (first): %v", err)
	}
	// A second block reconfirming (or re-observing) the same spend must
	// not error or overwrite the original spend height.
	spent[0].TxHash = [32]byte{0x02}
	if err := markSpentKeyImages(context.Background(), e, 101, spent); err != nil {
		t.Fatalf("markSpentKeyImages (second): %v", err)
	}

	got := st.outputs[[32]byte{0x42}]
	if got.SpentHeight != 100 {
		t.Errorf("spentHeight = %d, want 100 (first observation wins)", got.SpentHeight)
	}
}
