package accel

import (
	"context"
	"testing"

	"github.com/salvium/wallet-core/internal/randomx"
)

func TestSoftwareHasherMatchesDirectVM(t *testing.T) {
	ctx, err := randomx.NewContext(context.Background(), []byte("accel test key"), randomx.Light)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	h := NewHasher(ctx)
	want := ctx.NewVM().CalculateHash([]byte("payload"))
	got := h.CalculateHash([]byte("payload"))

	if got != want {
		t.Fatalf("accel hasher diverged from direct VM: %x != %x", got, want)
	}
}

func TestSoftwareHasherReusableAcrossCalls(t *testing.T) {
	ctx, err := randomx.NewContext(context.Background(), []byte("accel test key"), randomx.Light)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	h := NewHasher(ctx)

	first := h.CalculateHash([]byte("payload"))
	for i := 0; i < 3; i++ {
		if got := h.CalculateHash([]byte("payload")); got != first {
			t.Fatalf("call %d diverged: %x != %x", i, got, first)
		}
	}
}
