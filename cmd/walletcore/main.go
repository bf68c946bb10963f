package main

import (
	"context"
	"encoding/hex"
	"log"
	"os"
	"strconv"

	"github.com/salvium/wallet-core/internal/daemon"
	"github.com/salvium/wallet-core/internal/keys"
	"github.com/salvium/wallet-core/internal/store/postgres"
	"github.com/salvium/wallet-core/internal/walletapi"
)

func main() {
	log.Println("Starting Salvium wallet-core...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials and key material MUST come from environment
	// variables. No fallback defaults for security-sensitive values.
	// Use a .env file for local development: cp .env.example .env
	// ────────────────────────────────────────────────────────────────────

	dbURL := requireEnv("DATABASE_URL")
	seedHex := requireEnv("WALLET_SEED_HEX")

	seedBytes, err := hex.DecodeString(seedHex)
	if err != nil || len(seedBytes) != 32 {
		log.Fatalf("FATAL: WALLET_SEED_HEX must be 64 hex characters (32 bytes): %v", err)
	}
	var seed [32]byte
	copy(seed[:], seedBytes)

	st, err := postgres.Connect(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to wallet database: %v", err)
	}
	defer st.Close()
	if err := st.InitSchema(context.Background()); err != nil {
		log.Fatalf("FATAL: wallet schema init failed: %v", err)
	}

	daemonHost := getEnvOrDefault("DAEMON_RPC_HOST", "localhost:19081")
	daemonCfg := daemon.Config{
		Host: daemonHost,
		User: os.Getenv("DAEMON_RPC_USER"),
		Pass: os.Getenv("DAEMON_RPC_PASS"),
	}
	daemonClient, err := daemon.NewClient(daemonCfg)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to Salvium daemon RPC at %s: %v", daemonHost, err)
	}

	net := keys.MainNet
	if getEnvOrDefault("NETWORK", "mainnet") == "testnet" {
		net = keys.TestNet
	}

	lookaheadMajor := getEnvUintOrDefault("SUBADDRESS_LOOKAHEAD_MAJOR", 3)
	lookaheadMinor := getEnvUintOrDefault("SUBADDRESS_LOOKAHEAD_MINOR", 50)
	ringSize := int(getEnvUintOrDefault("RING_SIZE", 11))
	defaultAssetType := getEnvOrDefault("DEFAULT_ASSET_TYPE", "SAL")

	engine := NewEngine(st, daemonClient, net, seed, defaultAssetType, ringSize,
		uint32(lookaheadMajor), uint32(lookaheadMinor))

	primaryAddr := keys.EncodeAddress(net, engine.cn.SpendPublic, engine.cn.ViewPublic)
	log.Printf("Wallet primary address: %s", primaryAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runScanLoop(ctx, engine)

	wsHub := walletapi.NewHub()
	go wsHub.Run()

	r := walletapi.SetupRouter(engine, wsHub)

	port := getEnvOrDefault("PORT", "8080")
	log.Printf("wallet-core API listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is
// not set, preventing the binary from starting with missing critical
// configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvUintOrDefault(key string, fallback uint64) uint64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return parsed
}
