package cryptoops

import "math/big"

// Point is an Ed25519 curve point in affine coordinates. The zero value
// is NOT a valid point — always obtain one via decompression, scalar
// multiplication, or one of the fixed generators.
type Point struct {
	x, y fieldElement
}

func pointIdentity() Point { return Point{x: feZero(), y: feOne()} }

// Identity returns the curve's neutral element, exposed for subgroup
// membership checks on untrusted points (e.g. l*P == Identity()).
func Identity() Point { return pointIdentity() }

var (
	gx = feFromBig(mustBigDec("15112221349535400772501151409588531511454012693041857206046113283949847762202"))
	gy = feFromBig(mustBigDec("46316835694926478169428394003475163141307993866256225615783033603165251855960"))
)

func mustBigDec(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("cryptoops: bad constant")
	}
	return v
}

// basePoint returns G, the Ed25519 base point.
func basePoint() Point { return Point{x: gx, y: gy} }

// add implements the complete twisted-Edwards addition law (a = -1);
// no special-casing is needed for the identity or doublings.
func (p Point) add(q Point) Point {
	x1y2 := p.x.mul(q.y)
	y1x2 := p.y.mul(q.x)
	y1y2 := p.y.mul(q.y)
	x1x2 := p.x.mul(q.x)
	dxxyy := feD.mul(x1x2).mul(y1y2)

	x3 := x1y2.add(y1x2).mul(feOne().add(dxxyy).invert())
	y3 := y1y2.add(x1x2).mul(feOne().sub(dxxyy).invert())
	return Point{x: x3, y: y3}
}

func (p Point) negate() Point { return Point{x: p.x.neg(), y: p.y} }
func (p Point) sub(q Point) Point { return p.add(q.negate()) }

func (p Point) equal(q Point) bool { return p.x.equal(q.x) && p.y.equal(q.y) }

// Equal reports whether two points are the same curve element.
func (p Point) Equal(q Point) bool { return p.equal(q) }

// scalarMultPoint computes s*P by double-and-add over the 256-bit scalar.
func scalarMultPoint(s Scalar, p Point) Point {
	result := pointIdentity()
	addend := p
	v := s.v
	for i := 0; i < v.BitLen(); i++ {
		if v.Bit(i) == 1 {
			result = result.add(addend)
		}
		addend = addend.add(addend)
	}
	return result
}

// ScalarMultBase computes s*G.
func ScalarMultBase(s Scalar) Point { return scalarMultPoint(s, basePoint()) }

// ScalarMult computes s*P for an arbitrary (already-validated) point P.
func ScalarMult(s Scalar, p Point) Point { return scalarMultPoint(s, p) }

// PointAdd / PointSub / PointNegate are the public point-arithmetic API.
func PointAdd(p, q Point) Point    { return p.add(q) }
func PointSub(p, q Point) Point    { return p.sub(q) }
func PointNegate(p Point) Point    { return p.negate() }

// DoubleScalarMul computes a*A + b*B.
func DoubleScalarMul(a Scalar, A Point, b Scalar, B Point) Point {
	return scalarMultPoint(a, A).add(scalarMultPoint(b, B))
}

// Compress encodes a point canonically: the 255-bit y-coordinate
// little-endian, with the top bit of the last byte holding the sign
// (parity) of x.
func (p Point) Compress() [32]byte {
	out := p.y.bytes()
	if p.x.isNegative() {
		out[31] |= 0x80
	} else {
		out[31] &^= 0x80
	}
	return out
}

// DecompressPoint decodes a 32-byte compressed point, verifying it lies
// on the curve. Returns InvalidEncoding for a non-canonical y or a y with
// no corresponding x.
func DecompressPoint(b []byte) (Point, error) {
	if len(b) != 32 {
		return Point{}, &Error{Kind: InvalidEncoding, Msg: "point: must be 32 bytes"}
	}
	signBit := b[31]&0x80 != 0
	yb := make([]byte, 32)
	copy(yb, b)
	yb[31] &^= 0x80

	yVal := leBytesToBig(yb)
	if yVal.Cmp(fieldPrime) >= 0 {
		return Point{}, &Error{Kind: InvalidEncoding, Msg: "point: y not canonical"}
	}
	y := feFromBig(yVal)

	// x^2 = (y^2 - 1) / (d*y^2 + 1)
	y2 := y.sq()
	num := y2.sub(feOne())
	den := feD.mul(y2).add(feOne())
	if den.isZero() {
		return Point{}, &Error{Kind: InvalidEncoding, Msg: "point: invalid denominator"}
	}
	x2 := num.mul(den.invert())
	x, ok := x2.sqrt()
	if !ok {
		return Point{}, &Error{Kind: InvalidEncoding, Msg: "point: not on curve"}
	}
	if x.isNegative() != signBit {
		x = x.neg()
	}
	return Point{x: x, y: y}, nil
}

// G, H, T are the package's three fixed generators.
func G() Point { return basePoint() }

var (
	hGenerator Point
	tGenerator Point
)

func init() {
	hGenerator = hashToPoint(G().Compress()[:])
	tGenerator = hashToPoint([]byte("carrot_generator_T"))
}

// H is the alternate Pedersen generator, hash_to_point(G)'s encoding.
func H() Point { return hGenerator }

// T is the CARROT spend-path generator, derived once from a published
// domain separator.
func T() Point { return tGenerator }
