//go:build !randomx_asm

package accel

import (
	"log"
	"sync"

	"github.com/salvium/wallet-core/internal/randomx"
)

// newBackend is the software fallback: it hashes with the package's
// plain-Go VM. No vetted assembly or CGO-linked RandomX backend exists
// in this build, so this is the only backend compiled in unless a
// future build carries the randomx_asm tag and its own implementation
// of newBackend.
func newBackend(ctx *randomx.Context) Hasher {
	log.Println("[randomx] hardware-accelerated backend not linked in this build, using software VM")
	return &softwareHasher{ctx: ctx}
}

// softwareHasher takes a VM from a pool for each call, allocating one
// when the pool is empty, so a single Hasher is safe to share, even
// though the underlying VM is not.
type softwareHasher struct {
	ctx *randomx.Context
	vms sync.Pool
}

func (h *softwareHasher) CalculateHash(input []byte) [32]byte {
	v, _ := h.vms.Get().(*randomx.VM)
	if v == nil {
		v = h.ctx.NewVM()
	}
	defer h.vms.Put(v)
	return v.CalculateHash(input)
}
