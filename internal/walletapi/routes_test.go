package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/salvium/wallet-core/internal/store"
)

type fakeCore struct {
	balance      store.Balance
	outputs      []store.Enote
	transactions []store.TransactionRecord
	syncHeight   uint64
	daemonHeight uint64
	sendResult   SendResult
	sendErr      error
	newAddress   string
}

func (f *fakeCore) Balance(ctx context.Context, assetType string) (store.Balance, error) {
	return f.balance, nil
}
func (f *fakeCore) Outputs(ctx context.Context, filter store.OutputFilter) ([]store.Enote, error) {
	return f.outputs, nil
}
func (f *fakeCore) Transactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	return f.transactions, nil
}
func (f *fakeCore) SyncHeight(ctx context.Context) (uint64, error)   { return f.syncHeight, nil }
func (f *fakeCore) DaemonHeight(ctx context.Context) (uint64, error) { return f.daemonHeight, nil }
func (f *fakeCore) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	return f.sendResult, f.sendErr
}
func (f *fakeCore) NewSubaddress(ctx context.Context, req SubaddressRequest) (string, error) {
	return f.newAddress, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(core *fakeCore) *gin.Engine {
	hub := NewHub()
	go hub.Run()
	return SetupRouter(core, hub)
}

func TestHandleHealth(t *testing.T) {
	r := testRouter(&fakeCore{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleBalance(t *testing.T) {
	core := &fakeCore{balance: store.Balance{Total: 100, Unlocked: 80, Locked: 20}}
	r := testRouter(core)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance?asset_type=SAL", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["total"].(float64) != 100 {
		t.Fatalf("total = %v, want 100", body["total"])
	}
}

func TestHandleOutputsReturnsWireFriendlyDTOs(t *testing.T) {
	core := &fakeCore{
		outputs: []store.Enote{{
			KeyImage:    [32]byte{0xaa, 0xbb},
			Amount:      500,
			AssetType:   "SAL",
			BlockHeight: 100,
			IsCoinbase:  false,
		}},
		syncHeight: 1000,
	}
	r := testRouter(core)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outputs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Outputs []map[string]any `json:"outputs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(body.Outputs))
	}
	out := body.Outputs[0]
	if out["keyImage"] != "aabb000000000000000000000000000000000000000000000000000000000000" {
		t.Errorf("keyImage = %v, want hex-encoded key image", out["keyImage"])
	}
	if out["amount"].(float64) != 500 {
		t.Errorf("amount = %v, want 500", out["amount"])
	}
	if out["unlocked"] != true {
		t.Errorf("unlocked = %v, want true (900 blocks past block height 100 at height 1000)", out["unlocked"])
	}
}

func TestHandleTransactionsReturnsWireFriendlyDTOs(t *testing.T) {
	core := &fakeCore{
		transactions: []store.TransactionRecord{{
			TxHash:      [32]byte{0x01},
			BlockHeight: 50,
			Direction:   store.DirectionIn,
			Amount:      9000,
			AssetType:   "SAL",
			Confirmed:   true,
		}},
	}
	r := testRouter(core)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		Transactions []map[string]any `json:"transactions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(body.Transactions))
	}
	tx := body.Transactions[0]
	if tx["direction"] != "in" {
		t.Errorf("direction = %v, want in", tx["direction"])
	}
	if tx["amount"].(float64) != 9000 {
		t.Errorf("amount = %v, want 9000", tx["amount"])
	}
}

func TestHandleSyncHeightReportsSynchronized(t *testing.T) {
	core := &fakeCore{syncHeight: 1000, daemonHeight: 1000}
	r := testRouter(core)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/height", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["synchronized"] != true {
		t.Fatalf("synchronized = %v, want true", body["synchronized"])
	}
}

func TestHandleSendRejectsEmptyDestinations(t *testing.T) {
	core := &fakeCore{}
	r := testRouter(core)

	body, _ := json.Marshal(map[string]any{"destinations": []SendDestination{}, "assetType": "SAL"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleSendSucceeds(t *testing.T) {
	core := &fakeCore{sendResult: SendResult{TxHash: "abc123", Fee: 42}}
	r := testRouter(core)

	reqBody, _ := json.Marshal(map[string]any{
		"destinations": []SendDestination{{Address: "addr1", Amount: 500}},
		"assetType":    "SAL",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["txHash"] != "abc123" {
		t.Fatalf("txHash = %v, want abc123", resp["txHash"])
	}
}

func TestHandleSendRequiresBearerTokenWhenConfigured(t *testing.T) {
	t.Setenv("WALLET_API_AUTH_TOKEN", "secret-token")

	core := &fakeCore{}
	r := testRouter(core)

	reqBody, _ := json.Marshal(map[string]any{
		"destinations": []SendDestination{{Address: "addr1", Amount: 500}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
