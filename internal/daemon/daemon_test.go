package daemon

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// rpcFixture answers a fixed JSON-RPC method with a canned result,
// mimicking just enough of a daemon to exercise the client's
// transport and decoding logic.
type rpcFixture struct {
	byMethod map[string]json.RawMessage
}

func newFixture() *rpcFixture { return &rpcFixture{byMethod: make(map[string]json.RawMessage)} }

func (f *rpcFixture) set(method string, result any) {
	enc, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	f.byMethod[method] = enc
}

func (f *rpcFixture) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, ok := f.byMethod[req.Method]
		if !ok {
			t.Fatalf("unexpected method %q", req.Method)
		}
		resp := rpcResponse{Result: result}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func testScalar(seed string) cryptoops.Scalar { return cryptoops.ScReduce([]byte(seed)) }

func TestNewClientVerifiesConnectivity(t *testing.T) {
	fx := newFixture()
	fx.set("get_info", infoResult{Height: 123})
	srv := fx.server(t)
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	height, err := c.TipHeight(context.Background())
	if err != nil {
		t.Fatalf("TipHeight: %v", err)
	}
	if height != 123 {
		t.Errorf("height = %d, want 123", height)
	}
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	if _, err := NewClient(Config{Host: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected an error connecting to a closed port")
	}
}

func TestGetBlockOutputsDecodesOutputs(t *testing.T) {
	destSpend := cryptoops.ScalarMultBase(testScalar("daemon test spend"))
	commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(500), testScalar("daemon test mask"))
	ephemeral := cryptoops.ScalarMultBase(testScalar("daemon test ephemeral"))

	prefix := txcodec.Prefix{
		Version:    2,
		UnlockTime: 0,
		Inputs: []txcodec.Input{{
			Tag:        txcodec.InputKey,
			AssetType:  "SAL",
			KeyOffsets: []uint64{1, 2},
			KeyImage:   cryptoops.ScalarMultBase(testScalar("daemon test key image")),
		}},
		Outputs: []txcodec.Output{{
			Tag:       txcodec.TargetToTaggedKey,
			Key:       destSpend,
			ViewTag1:  0x7a,
			AssetType: "SAL",
		}},
		TxType:               txcodec.TxTransfer,
		AmountBurnt:          0,
		ReturnAddress:        cryptoops.Identity(),
		ReturnPubkey:         cryptoops.Identity(),
		SourceAssetType:      "SAL",
		DestinationAssetType: "SAL",
	}
	prefix.Extra = txcodec.EncodeExtra([]txcodec.ExtraField{{Tag: txcodec.ExtraTxPubkey, TxPubkey: ephemeral}})

	rctBase := txcodec.RctBase{
		Type:             txcodec.RctCLSAG,
		Fee:              10,
		EncryptedAmounts: [][8]byte{{1, 2, 3, 4, 5, 6, 7, 8}},
		Commitments:      []cryptoops.Point{commitment},
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

	blockHash := [32]byte{0xaa, 0xbb}
	fx := newFixture()
	fx.set("get_info", infoResult{Height: 1})
	fx.set("get_block", getBlockResult{
		Height:     42,
		Hash:       hex.EncodeToString(blockHash[:]),
		IsCoinbase: false,
		Txs: []blockTxWire{{
			PrefixHex:  hex.EncodeToString(prefixBytes),
			RctBaseHex: hex.EncodeToString(rctBaseBytes),
		}},
	})
	srv := fx.server(t)
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	block, err := c.GetBlockOutputs(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBlockOutputs: %v", err)
	}
	if block.Height != 42 {
		t.Errorf("height = %d, want 42", block.Height)
	}
	if block.BlockHash != blockHash {
		t.Errorf("block hash mismatch")
	}
	if len(block.Outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(block.Outputs))
	}
	out := block.Outputs[0]
	if !out.OneTimeAddress.Equal(destSpend) {
		t.Error("one-time address mismatch")
	}
	if !out.EphemeralPubkey.Equal(ephemeral) {
		t.Error("ephemeral pubkey mismatch")
	}
	if len(out.ViewTag) != 1 || out.ViewTag[0] != 0x7a {
		t.Errorf("view tag = %v, want [0x7a]", out.ViewTag)
	}
	if block.FirstKeyImg == nil {
		t.Fatal("expected a first key image")
	}
	if len(block.SpentKeyImages) != 1 {
		t.Fatalf("spent key images = %d, want 1", len(block.SpentKeyImages))
	}
	if block.SpentKeyImages[0].KeyImage != *block.FirstKeyImg {
		t.Error("spent key image should match the tx's sole key input")
	}
}

func TestResolveDecoysReturnsRequestedCount(t *testing.T) {
	addr := cryptoops.ScalarMultBase(testScalar("decoy addr"))
	commitment := cryptoops.Commit(cryptoops.ScalarFromUint64(500), testScalar("decoy mask"))
	addrEnc := addr.Compress()
	commitEnc := commitment.Compress()

	fx := newFixture()
	fx.set("get_info", infoResult{Height: 1})
	fx.set("get_outs", getOutsResult{Outs: []outWire{
		{GlobalIndex: 10, OneTimeAddress: hex.EncodeToString(addrEnc[:]), Commitment: hex.EncodeToString(commitEnc[:])},
		{GlobalIndex: 11, OneTimeAddress: hex.EncodeToString(addrEnc[:]), Commitment: hex.EncodeToString(commitEnc[:])},
	}})
	srv := fx.server(t)
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	members, err := c.ResolveDecoys(500, "SAL", 2, 5)
	if err != nil {
		t.Fatalf("ResolveDecoys: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].GlobalIndex != 10 || members[1].GlobalIndex != 11 {
		t.Errorf("unexpected global indices: %+v", members)
	}
	if !members[0].AuditTag.Equal(cryptoops.Identity()) {
		t.Error("expected identity audit tag for a CN-era decoy")
	}
}

func TestSubmitTransactionSurfacesRejection(t *testing.T) {
	fx := newFixture()
	fx.set("get_info", infoResult{Height: 1})
	fx.set("send_raw_transaction", sendRawTransactionResult{Accepted: false, Reason: "double spend"})
	srv := fx.server(t)
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tx := Transaction{
		Prefix: txcodec.Prefix{
			Version: 2,
			Outputs: []txcodec.Output{{Tag: txcodec.TargetToKey, Key: cryptoops.Identity(), AssetType: "SAL"}},
			ReturnAddress: cryptoops.Identity(),
			ReturnPubkey:  cryptoops.Identity(),
		},
		RctBase: txcodec.RctBase{
			Type:             txcodec.RctCLSAG,
			EncryptedAmounts: [][8]byte{{}},
			Commitments:      []cryptoops.Point{cryptoops.Identity()},
			PR:               cryptoops.Identity(),
		},
	}

	err = c.SubmitTransaction(context.Background(), tx)
	if err == nil {
		t.Fatal("expected an error for a rejected transaction")
	}
}
