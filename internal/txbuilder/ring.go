package txbuilder

import (
	"fmt"
	"sort"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/ringsig"
	"github.com/salvium/wallet-core/internal/txcodec"
)

// ringMember is one ring position before it's split into the parallel
// slices ringsig.Ring/ringsig.TRing expect.
type ringMember struct {
	globalIndex    uint64
	oneTimeAddress cryptoops.Point
	commitment     cryptoops.Point
	auditTag       cryptoops.Point
}

// assembleRing resolves count-1 decoys around the real spent enote and
// interleaves them by global index, so the real member's position in
// the ring gives away nothing about when it was created relative to
// the decoys.
func assembleRing(enote SpendableEnote, resolver DecoyResolver, count int) (ringMaterial, error) {
	decoys, err := resolver.ResolveDecoys(enote.Amount, enote.AssetType, count-1, enote.GlobalIndex)
	if err != nil {
		return ringMaterial{}, newError(RingResolutionFailed, -1, "txbuilder: decoy resolution failed: "+err.Error())
	}
	if len(decoys) != count-1 {
		return ringMaterial{}, newError(RingResolutionFailed, -1, fmt.Sprintf("txbuilder: resolver returned %d decoys, requested %d", len(decoys), count-1))
	}

	members := make([]ringMember, 0, count)
	members = append(members, ringMember{
		globalIndex:    enote.GlobalIndex,
		oneTimeAddress: enote.OneTimeAddress,
		commitment:     cryptoops.Commit(cryptoops.ScalarFromUint64(enote.Amount), enote.Mask),
		auditTag:       enote.AuditTag,
	})
	for _, d := range decoys {
		members = append(members, ringMember{
			globalIndex:    d.GlobalIndex,
			oneTimeAddress: d.OneTimeAddress,
			commitment:     d.Commitment,
			auditTag:       d.AuditTag,
		})
	}

	sort.Slice(members, func(i, j int) bool { return members[i].globalIndex < members[j].globalIndex })

	mat := ringMaterial{
		addresses:   make([]cryptoops.Point, count),
		audits:      make([]cryptoops.Point, count),
		commitments: make([]cryptoops.Point, count),
		keyOffsets:  make([]uint64, count),
		realIndex:   -1,
	}
	for i, m := range members {
		mat.addresses[i] = m.oneTimeAddress
		mat.audits[i] = m.auditTag
		mat.commitments[i] = m.commitment
		mat.keyOffsets[i] = m.globalIndex
		if m.globalIndex == enote.GlobalIndex {
			mat.realIndex = i
		}
	}
	if mat.realIndex < 0 {
		return ringMaterial{}, newError(RingResolutionFailed, -1, "txbuilder: real spend missing from assembled ring")
	}
	return mat, nil
}

// signLegacyInput builds a CLSAG ring from mat and signs it with the
// real input's secrets.
func signLegacyInput(msg []byte, mat ringMaterial, pseudoOut cryptoops.Point, enote SpendableEnote, pseudoMask cryptoops.Scalar) (txcodec.CLSAGSignature, cryptoops.Point, error) {
	ring := ringsig.Ring{P: mat.addresses, C: mat.commitments, CPrime: pseudoOut}
	zDiff := enote.Mask.Sub(pseudoMask)

	sig, keyImage, err := ringsig.Sign(msg, ring, mat.realIndex, enote.OneTimeSecret, zDiff)
	if err != nil {
		return txcodec.CLSAGSignature{}, cryptoops.Point{}, err
	}
	return txcodec.CLSAGSignature{S: sig.S, C1: sig.C1, D: sig.D}, keyImage, nil
}

// signConvertInput builds a TCLSAG ring. Every member must carry a
// non-identity audit tag: legacy (CN-era) enotes never publish one, so
// a CN decoy or a CN-era real spend here is a builder bug, not a
// resolver fault, and is rejected before any signing work starts.
func signConvertInput(msg []byte, mat ringMaterial, pseudoOut cryptoops.Point, enote SpendableEnote, pseudoMask cryptoops.Scalar) (txcodec.TCLSAGSignature, cryptoops.Point, error) {
	if enote.Era != EraCarrot || enote.AuditTag.Equal(cryptoops.Identity()) {
		return txcodec.TCLSAGSignature{}, cryptoops.Point{}, newError(InvalidDestination, -1, "txbuilder: conversion input must be a carrot-era enote with an audit tag")
	}
	for i, a := range mat.audits {
		if a.Equal(cryptoops.Identity()) {
			return txcodec.TCLSAGSignature{}, cryptoops.Point{}, newError(RingResolutionFailed, i, "txbuilder: ring member lacks an audit tag, unfit for a conversion ring")
		}
	}

	ring := ringsig.TRing{P: mat.addresses, P2: mat.audits, C: mat.commitments, CPrime: pseudoOut}
	zDiff := enote.Mask.Sub(pseudoMask)

	sig, keyImage, err := ringsig.TSign(msg, ring, mat.realIndex, enote.OneTimeSecret, enote.AuditSecret, zDiff)
	if err != nil {
		return txcodec.TCLSAGSignature{}, cryptoops.Point{}, err
	}
	return txcodec.TCLSAGSignature{SX: sig.SX, SY: sig.SY, C1: sig.C1, D: sig.D}, keyImage, nil
}
