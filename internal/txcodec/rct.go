package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// RctType tags the signature/commitment scheme a transaction uses. The
// BP+ family (>= RctBulletproofPlus) is the only one this codec builds
// or validates; earlier tags are recognized for wire compatibility when
// decoding historical data but are rejected by EncodeRctBase.
type RctType byte

const (
	RctNull RctType = iota
	RctFull
	RctSimple
	RctBulletproof
	RctBulletproof2
	RctBulletproofPlus
	RctCLSAG
	RctSalviumOneProof  // type 7: pr_proof + sa_proof, no salvium_data wrapper
	RctSalviumZeroAudit // type 8: salvium_data with one proof pair
	RctSalviumOne       // type 9: TCLSAG + salvium_data
)

// ZKProof is a Schnorr-style proof: R || z1 || z2, 96 bytes total.
type ZKProof struct {
	R  cryptoops.Point
	Z1 cryptoops.Scalar
	Z2 cryptoops.Scalar
}

func (p ZKProof) encode() []byte {
	out := make([]byte, 0, 96)
	r := p.R.Compress()
	out = append(out, r[:]...)
	z1 := p.Z1.Bytes()
	out = append(out, z1[:]...)
	z2 := p.Z2.Bytes()
	out = append(out, z2[:]...)
	return out
}

func decodeZKProof(b []byte) (ZKProof, error) {
	if len(b) < 96 {
		return ZKProof{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "zk_proof: truncated"}
	}
	r, err := cryptoops.DecompressPoint(b[0:32])
	if err != nil {
		return ZKProof{}, err
	}
	z1, err := cryptoops.NewScalarCanonical(b[32:64])
	if err != nil {
		return ZKProof{}, err
	}
	z2, err := cryptoops.NewScalarCanonical(b[64:96])
	if err != nil {
		return ZKProof{}, err
	}
	return ZKProof{R: r, Z1: z1, Z2: z2}, nil
}

// SalviumDataType distinguishes the one currently defined salvium_data
// body shape. Decided as an open design question: tag 1 for the
// SalviumZeroAudit (type 8) data body below; no published test vector
// cross-checks this.
const SalviumDataTypeZeroAudit byte = 1

// SalviumData is the rct-base add-on of type 8 (SalviumZeroAudit) and
// type 9 (SalviumOne).
type SalviumData struct {
	DataType        byte
	PrProof         ZKProof
	SaProof         ZKProof
	AuditCommitment cryptoops.Point
}

// RctBase is the per-transaction (not per-input) RCT header.
type RctBase struct {
	Type              RctType
	Fee               uint64
	EncryptedAmounts  [][8]byte
	Commitments       []cryptoops.Point
	PR                cryptoops.Point

	// Salvium add-ons, gated on Type.
	PrProof     *ZKProof     // type 7
	SaProof     *ZKProof     // type 7
	SalviumData *SalviumData // types 8, 9
}

// EncodeRctBase serializes the RCT base section.
func EncodeRctBase(rb RctBase) ([]byte, error) {
	if rb.Type < RctBulletproofPlus {
		return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: pre-BP+ types are decode-only"}
	}
	var out []byte
	out = append(out, byte(rb.Type))
	out = append(out, EncodeVarint(rb.Fee)...)
	for _, ea := range rb.EncryptedAmounts {
		out = append(out, ea[:]...)
	}
	for _, c := range rb.Commitments {
		enc := c.Compress()
		out = append(out, enc[:]...)
	}
	pr := rb.PR.Compress()
	out = append(out, pr[:]...)

	switch rb.Type {
	case RctSalviumOneProof:
		if rb.PrProof == nil || rb.SaProof == nil {
			return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: type 7 requires pr_proof and sa_proof"}
		}
		out = append(out, rb.PrProof.encode()...)
		out = append(out, rb.SaProof.encode()...)

	case RctSalviumZeroAudit, RctSalviumOne:
		if rb.SalviumData == nil {
			return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: types 8/9 require salvium_data"}
		}
		sd := rb.SalviumData
		out = append(out, sd.DataType)
		out = append(out, sd.PrProof.encode()...)
		out = append(out, sd.SaProof.encode()...)
		auditEnc := sd.AuditCommitment.Compress()
		out = append(out, auditEnc[:]...)
	}
	return out, nil
}

// DecodeRctBase reads the RCT base section; numOutputs must already be
// known from the prefix (the encrypted-amount and commitment arrays
// have no independent length prefix).
func DecodeRctBase(b []byte, numOutputs int) (RctBase, int, error) {
	if len(b) == 0 {
		return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: empty"}
	}
	rb := RctBase{Type: RctType(b[0])}
	pos := 1

	fee, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return RctBase{}, 0, err
	}
	rb.Fee = fee
	pos += n

	rb.EncryptedAmounts = make([][8]byte, numOutputs)
	for i := range rb.EncryptedAmounts {
		if len(b)-pos < 8 {
			return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: truncated encrypted amount"}
		}
		copy(rb.EncryptedAmounts[i][:], b[pos:pos+8])
		pos += 8
	}

	rb.Commitments = make([]cryptoops.Point, numOutputs)
	for i := range rb.Commitments {
		if len(b)-pos < 32 {
			return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: truncated commitment"}
		}
		c, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return RctBase{}, 0, err
		}
		rb.Commitments[i] = c
		pos += 32
	}

	if len(b)-pos < 32 {
		return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: truncated p_r"}
	}
	pr, err := cryptoops.DecompressPoint(b[pos : pos+32])
	if err != nil {
		return RctBase{}, 0, err
	}
	rb.PR = pr
	pos += 32

	switch rb.Type {
	case RctSalviumOneProof:
		prProof, err := decodeZKProof(b[pos:])
		if err != nil {
			return RctBase{}, 0, err
		}
		pos += 96
		saProof, err := decodeZKProof(b[pos:])
		if err != nil {
			return RctBase{}, 0, err
		}
		pos += 96
		rb.PrProof = &prProof
		rb.SaProof = &saProof

	case RctSalviumZeroAudit, RctSalviumOne:
		if pos >= len(b) {
			return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: truncated salvium_data"}
		}
		dataType := b[pos]
		pos++
		prProof, err := decodeZKProof(b[pos:])
		if err != nil {
			return RctBase{}, 0, err
		}
		pos += 96
		saProof, err := decodeZKProof(b[pos:])
		if err != nil {
			return RctBase{}, 0, err
		}
		pos += 96
		if len(b)-pos < 32 {
			return RctBase{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "rct_base: truncated audit commitment"}
		}
		auditCommitment, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return RctBase{}, 0, err
		}
		pos += 32
		rb.SalviumData = &SalviumData{DataType: dataType, PrProof: prProof, SaProof: saProof, AuditCommitment: auditCommitment}
	}

	return rb, pos, nil
}

// BulletproofPlus is the compact aggregated range-proof encoding: the
// bit-vector commitment A, the folding transcript (L, R, one pair per
// halving round), the final inner-product opening (A1, B, R1, S1,
// D1), and the two scalars (TauX, THat) tying the proved inner
// product back to the output commitments it ranges over.
type BulletproofPlus struct {
	A, A1, B   cryptoops.Point
	R1, S1, D1 cryptoops.Scalar
	TauX, THat cryptoops.Scalar
	L, R       []cryptoops.Point
}

// CLSAGSignature is a legacy-era per-input ring signature. The key
// image is deliberately absent: it's injected from the corresponding
// input at verify time ("expansion"), per the wire format.
type CLSAGSignature struct {
	S  []cryptoops.Scalar
	C1 cryptoops.Scalar
	D  cryptoops.Point
}

// TCLSAGSignature is the two-accumulator RCT-type-9 variant.
type TCLSAGSignature struct {
	SX []cryptoops.Scalar
	SY []cryptoops.Scalar
	C1 cryptoops.Scalar
	D  cryptoops.Point
}

// RctPrunable is the prunable section: the BP+ proofs, then one
// CLSAG/TCLSAG per input (no count prefix; derived from input count),
// then the pseudo-output commitments.
type RctPrunable struct {
	BulletproofsPlus []BulletproofPlus
	CLSAGs           []CLSAGSignature  // populated for types != RctSalviumOne
	TCLSAGs          []TCLSAGSignature // populated for RctSalviumOne
	PseudoOuts       []cryptoops.Point
}

func encodeScalars(ss []cryptoops.Scalar) []byte {
	var out []byte
	for _, s := range ss {
		b := s.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// EncodeBulletproofPlus serializes one aggregated range proof.
func EncodeBulletproofPlus(bp BulletproofPlus) []byte {
	var out []byte
	for _, p := range []cryptoops.Point{bp.A, bp.A1, bp.B} {
		enc := p.Compress()
		out = append(out, enc[:]...)
	}
	for _, s := range []cryptoops.Scalar{bp.R1, bp.S1, bp.D1, bp.TauX, bp.THat} {
		enc := s.Bytes()
		out = append(out, enc[:]...)
	}
	out = append(out, EncodeVarint(uint64(len(bp.L)))...)
	for _, p := range bp.L {
		enc := p.Compress()
		out = append(out, enc[:]...)
	}
	for _, p := range bp.R {
		enc := p.Compress()
		out = append(out, enc[:]...)
	}
	return out
}

// DecodeBulletproofPlus is the inverse of EncodeBulletproofPlus.
func DecodeBulletproofPlus(b []byte) (BulletproofPlus, int, error) {
	if len(b) < 96+160 {
		return BulletproofPlus{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproof_plus: truncated header"}
	}
	var bp BulletproofPlus
	pos := 0
	pts := make([]cryptoops.Point, 3)
	for i := range pts {
		p, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return BulletproofPlus{}, 0, err
		}
		pts[i] = p
		pos += 32
	}
	bp.A, bp.A1, bp.B = pts[0], pts[1], pts[2]

	scalars := make([]cryptoops.Scalar, 5)
	for i := range scalars {
		s, err := cryptoops.NewScalarCanonical(b[pos : pos+32])
		if err != nil {
			return BulletproofPlus{}, 0, err
		}
		scalars[i] = s
		pos += 32
	}
	bp.R1, bp.S1, bp.D1, bp.TauX, bp.THat = scalars[0], scalars[1], scalars[2], scalars[3], scalars[4]

	count, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return BulletproofPlus{}, 0, err
	}
	pos += n
	bp.L = make([]cryptoops.Point, count)
	for i := range bp.L {
		if len(b)-pos < 32 {
			return BulletproofPlus{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproof_plus: truncated L"}
		}
		p, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return BulletproofPlus{}, 0, err
		}
		bp.L[i] = p
		pos += 32
	}
	bp.R = make([]cryptoops.Point, count)
	for i := range bp.R {
		if len(b)-pos < 32 {
			return BulletproofPlus{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "bulletproof_plus: truncated R"}
		}
		p, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return BulletproofPlus{}, 0, err
		}
		bp.R[i] = p
		pos += 32
	}
	return bp, pos, nil
}

// EncodeCLSAG serializes a CLSAG signature for a ring of the given size.
func EncodeCLSAG(sig CLSAGSignature) []byte {
	var out []byte
	out = append(out, encodeScalars(sig.S)...)
	c1 := sig.C1.Bytes()
	out = append(out, c1[:]...)
	d := sig.D.Compress()
	out = append(out, d[:]...)
	return out
}

// EncodeTCLSAG serializes a TCLSAG signature.
func EncodeTCLSAG(sig TCLSAGSignature) []byte {
	var out []byte
	out = append(out, encodeScalars(sig.SX)...)
	out = append(out, encodeScalars(sig.SY)...)
	c1 := sig.C1.Bytes()
	out = append(out, c1[:]...)
	d := sig.D.Compress()
	out = append(out, d[:]...)
	return out
}
