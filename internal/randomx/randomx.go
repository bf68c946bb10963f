// Package randomx implements the proof-of-work engine the chain's
// block headers are hashed against: a key-seeded cache (BLAKE2b-filled
// in place of RandomX's Argon2d fill, see cache.go), the
// SuperscalarHash dataset generator, and the RandomX virtual machine
// that drives block-hash evaluation. A Context owns the cache (and,
// in full mode, the generated dataset); VMs are cheap, single-owner,
// non-thread-safe handles onto a shared, read-only Context.
package randomx

import "context"

// Mode selects how a VM resolves dataset reads: Light recomputes each
// item on demand via SuperscalarHash (slow per hash, small working
// set); Full looks it up in a pre-built 2 GiB dataset (fast per hash,
// large one-time cost). Both modes are bit-exact for the same seed
// and input; only their cost profile differs.
type Mode int

const (
	Light Mode = iota
	Full
)

// Context owns the cache and, in Full mode, the dataset built from it.
// Both are immutable once initialized and safe to share across
// concurrently-running VMs.
type Context struct {
	mode    Mode
	cache   *Cache
	dataset *Dataset
}

// NewContext seeds a cache from key (the RandomX "seed hash", typically
// a recent block hash under the reference chain's key-rotation rule)
// and, for Full mode, builds the complete dataset. Either step can be
// cancelled via ctx; a cancelled NewContext returns an error wrapping
// ctx.Err().
func NewContext(ctx context.Context, key []byte, mode Mode) (*Context, error) {
	cache, err := NewCache(ctx, key)
	if err != nil {
		return nil, err
	}
	c := &Context{mode: mode, cache: cache}
	if mode == Full {
		ds, err := NewDataset(ctx, cache)
		if err != nil {
			return nil, err
		}
		c.dataset = ds
	}
	return c, nil
}

// NewVM allocates a fresh VM bound to this context. VMs are not
// thread-safe: a caller hashing on N threads allocates N VMs, one per
// thread, all sharing this Context's read-only cache/dataset.
func (c *Context) NewVM() *VM {
	return &VM{ctx: c}
}
