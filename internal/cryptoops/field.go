package cryptoops

import "math/big"

// fieldPrime is 2^255 - 19, the base field Ed25519 and curve25519 share.
var fieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	p.Sub(p, big.NewInt(19))
	return p
}()

// fieldElement is an element of GF(p), reduced canonically on every
// construction. It is an internal helper for point arithmetic; it never
// appears at an API boundary (those always use 32-byte encodings).
type fieldElement struct {
	v *big.Int
}

func feFromBig(b *big.Int) fieldElement {
	r := new(big.Int).Mod(b, fieldPrime)
	return fieldElement{v: r}
}

func feZero() fieldElement { return fieldElement{v: new(big.Int)} }
func feOne() fieldElement  { return fieldElement{v: big.NewInt(1)} }

func feFromLEBytes(b []byte) fieldElement {
	return feFromBig(leBytesToBig(b))
}

func (a fieldElement) bytes() [32]byte {
	var out [32]byte
	bigToLEBytes(a.v, out[:])
	return out
}

func (a fieldElement) add(b fieldElement) fieldElement { return feFromBig(new(big.Int).Add(a.v, b.v)) }
func (a fieldElement) sub(b fieldElement) fieldElement { return feFromBig(new(big.Int).Sub(a.v, b.v)) }
func (a fieldElement) mul(b fieldElement) fieldElement { return feFromBig(new(big.Int).Mul(a.v, b.v)) }
func (a fieldElement) neg() fieldElement               { return feFromBig(new(big.Int).Neg(a.v)) }
func (a fieldElement) sq() fieldElement                { return a.mul(a) }

func (a fieldElement) isZero() bool { return a.v.Sign() == 0 }

func (a fieldElement) equal(b fieldElement) bool { return a.v.Cmp(b.v) == 0 }

// invert computes the multiplicative inverse; fieldPrime is prime so
// Fermat's little theorem / ModInverse always succeeds for a != 0.
func (a fieldElement) invert() fieldElement {
	if a.isZero() {
		return feZero()
	}
	inv := new(big.Int).ModInverse(a.v, fieldPrime)
	return fieldElement{v: inv}
}

// pow raises a to exponent e.
func (a fieldElement) pow(e *big.Int) fieldElement {
	return fieldElement{v: new(big.Int).Exp(a.v, e, fieldPrime)}
}

// isNegative mirrors the RFC 8032 convention: a field element's "sign" is
// the low bit of its canonical (least non-negative) representative.
func (a fieldElement) isNegative() bool {
	return a.v.Bit(0) == 1
}

// expSqrt and sqrtM1 drive sqrt below, which computes a candidate square
// root (of the ratio u/v when decompressing a point) by the standard curve25519 sqrt
// algorithm: p ≡ 5 (mod 8), so a square root of x is
// x^((p+3)/8), adjusted by sqrt(-1) = 2^((p-1)/4) when the first
// candidate's square is -x rather than x.
var (
	expSqrt  = new(big.Int).Div(new(big.Int).Add(fieldPrime, big.NewInt(3)), big.NewInt(8))
	sqrtM1   = computeSqrtM1()
	feD      = computeEdwardsD()
)

func computeSqrtM1() fieldElement {
	// sqrt(-1) mod p = 2^((p-1)/4) mod p
	exp := new(big.Int).Div(new(big.Int).Sub(fieldPrime, big.NewInt(1)), big.NewInt(4))
	two := fieldElement{v: big.NewInt(2)}
	return two.pow(exp)
}

func computeEdwardsD() fieldElement {
	// d = -121665/121666 mod p
	num := feFromBig(big.NewInt(-121665))
	den := feFromBig(big.NewInt(121666))
	return num.mul(den.invert())
}

// sqrt returns (root, true) if a is a quadratic residue, else (_, false).
func (a fieldElement) sqrt() (fieldElement, bool) {
	if a.isZero() {
		return feZero(), true
	}
	cand := a.pow(expSqrt)
	if cand.sq().equal(a) {
		return cand, true
	}
	cand2 := cand.mul(sqrtM1)
	if cand2.sq().equal(a) {
		return cand2, true
	}
	return fieldElement{}, false
}
