package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Client wraps a Salvium daemon's JSON-RPC 2.0 endpoint. There is no
// typed RPC library for this protocol the way rpcclient covers Bitcoin
// Core, so every call goes through the raw HTTP POST + manual
// unmarshal idiom that client.go falls back to for calls its typed
// wrapper doesn't cover.
type Client struct {
	http *http.Client
	cfg  Config
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// NewClient connects to the daemon at cfg.Host and verifies it is
// actually reachable before handing back a usable client.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		http: &http.Client{Timeout: cfg.timeoutOrDefault()},
		cfg:  cfg,
	}

	log.Printf("Connecting to Salvium daemon RPC at %s...", cfg.Host)
	info, err := c.GetInfo(context.Background())
	if err != nil {
		return nil, fmt.Errorf("daemon: connectivity check failed: %w", err)
	}
	log.Printf("Connected to Salvium daemon. Tip height: %d", info.Height)
	return c, nil
}

// call performs one JSON-RPC request and decodes its result field into
// out (nil if the caller doesn't need the result). Every typed wrapper
// method in this package funnels through here; a call that needs more
// time than the rest (get_block for a large block, a cold get_outs
// against a large output set) sets a longer Config.Timeout rather than
// growing a one-off http.Client per slow method.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("daemon: %s: marshal params: %w", method, err)
		}
		raw = encoded
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
	if err != nil {
		return fmt.Errorf("daemon: %s: marshal request: %w", method, err)
	}

	url := fmt.Sprintf("http://%s/json_rpc", c.cfg.Host)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("daemon: %s: build request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" {
		httpReq.SetBasicAuth(c.cfg.User, c.cfg.Pass)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("daemon: %s: http request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("daemon: %s: read body: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("daemon: %s: unmarshal response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("daemon: %s: %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("daemon: %s: unmarshal result: %w", method, err)
		}
	}
	return nil
}
