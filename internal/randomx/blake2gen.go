package randomx

import "github.com/salvium/wallet-core/internal/cryptoops"

// blake2Generator is RandomX's seeded byte stream: a small pool of
// BLAKE2b output, refilled by rehashing itself with an incrementing
// counter whenever it runs dry. Both the superscalar program generator
// and the per-hash VM program generator draw from one of these.
type blake2Generator struct {
	seed    []byte
	counter uint32
	pool    []byte
	pos     int
}

func newBlake2Generator(seed []byte) *blake2Generator {
	g := &blake2Generator{seed: append([]byte(nil), seed...)}
	g.refill()
	return g
}

func (g *blake2Generator) refill() {
	var counterBytes [4]byte
	counterBytes[0] = byte(g.counter)
	counterBytes[1] = byte(g.counter >> 8)
	counterBytes[2] = byte(g.counter >> 16)
	counterBytes[3] = byte(g.counter >> 24)
	g.counter++
	g.pool = cryptoops.MustBlake2b(64, nil, g.seed, counterBytes[:])
	g.pos = 0
}

func (g *blake2Generator) nextByte() byte {
	if g.pos >= len(g.pool) {
		g.refill()
	}
	b := g.pool[g.pos]
	g.pos++
	return b
}

func (g *blake2Generator) nextUint32() uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(g.nextByte()) << (8 * i)
	}
	return v
}

func (g *blake2Generator) nextUint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(g.nextByte()) << (8 * i)
	}
	return v
}
