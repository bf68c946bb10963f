package txvalidator

import (
	"context"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/ringsig"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// RingMember is the public material the chain holds for one output
// global index: enough to reconstruct the ring a CLSAG/TCLSAG signed
// over.
type RingMember struct {
	OneTimeAddress cryptoops.Point
	Commitment     cryptoops.Point
	AuditTag       cryptoops.Point // carrot-era only; zero value for legacy outputs
}

// RingLookup resolves the chain-wide outputs an input's key offsets
// reference. Implementations typically hit a local output index kept
// by the store package, not the daemon directly.
type RingLookup interface {
	FetchRingMembers(ctx context.Context, assetType string, globalIndices []uint64) ([]RingMember, error)
}

func buildLegacyRing(members []RingMember, pseudoOut cryptoops.Point) ringsig.Ring {
	p := make([]cryptoops.Point, len(members))
	c := make([]cryptoops.Point, len(members))
	for i, m := range members {
		p[i] = m.OneTimeAddress
		c[i] = m.Commitment
	}
	return ringsig.Ring{P: p, C: c, CPrime: pseudoOut}
}

func buildConvertRing(members []RingMember, pseudoOut cryptoops.Point) ringsig.TRing {
	p := make([]cryptoops.Point, len(members))
	p2 := make([]cryptoops.Point, len(members))
	c := make([]cryptoops.Point, len(members))
	for i, m := range members {
		p[i] = m.OneTimeAddress
		p2[i] = m.AuditTag
		c[i] = m.Commitment
	}
	return ringsig.TRing{P: p, P2: p2, C: c, CPrime: pseudoOut}
}

// absoluteKeyOffsets mirrors txcodec.AbsoluteOffsets for readability at
// the call site; kept as a thin alias rather than re-exporting.
func absoluteKeyOffsets(in txcodec.Input) []uint64 {
	return txcodec.AbsoluteOffsets(in.KeyOffsets)
}
