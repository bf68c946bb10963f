package cryptoops

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256EmptyVector(t *testing.T) {
	got := Keccak256()
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("keccak256(\"\") = %x, want %s", got, want)
	}
}

func TestScalarFieldAxioms(t *testing.T) {
	a := ScReduce([]byte("scalar a seed for axiom test......."))
	b := ScReduce([]byte("scalar b seed for axiom test......."))

	if !a.Add(b).Equal(b.Add(a)) {
		t.Error("addition is not commutative")
	}
	if !a.Mul(b).Equal(b.Mul(a)) {
		t.Error("multiplication is not commutative")
	}
	if !a.Sub(a).IsZero() {
		t.Error("a - a != 0")
	}
	if !a.IsZero() {
		inv, err := a.Invert()
		if err != nil {
			t.Fatalf("invert: %v", err)
		}
		if !a.Mul(inv).Equal(ScalarOne()) {
			t.Error("a * a^-1 != 1")
		}
	}
}

func TestScalarMultBaseHomomorphism(t *testing.T) {
	s := ScReduce([]byte("base homomorphism test scalar......."))
	tt := ScReduce([]byte("second scalar for homomorphism test.."))

	p := ScalarMultBase(s)
	lhs := ScalarMult(tt, p)
	rhs := ScalarMultBase(s.Mul(tt))
	if !lhs.equal(rhs) {
		t.Error("scalar_mult(t, s*G) != scalar_mult_base(s*t)")
	}
}

func TestBasePointEncoding(t *testing.T) {
	got := ScalarMultBase(ScalarOne()).Compress()
	want := "5866666666666666666666666666666666666666666666666666666666666666"[:64]
	gotHex := hex.EncodeToString(got[:])
	if gotHex != want {
		t.Errorf("1*G = %s, want %s", gotHex, want)
	}
}

func TestPointCompressDecompressRoundTrip(t *testing.T) {
	s := ScReduce([]byte("round trip point test scalar........."))
	p := ScalarMultBase(s)
	enc := p.Compress()
	dec, err := DecompressPoint(enc[:])
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !dec.equal(p) {
		t.Error("decompress(compress(p)) != p")
	}
}

func TestPedersenHomomorphism(t *testing.T) {
	a1 := ScalarFromUint64(100)
	a2 := ScalarFromUint64(250)
	m1 := ScReduce([]byte("mask one for pedersen homomorphism...."))
	m2 := ScReduce([]byte("mask two for pedersen homomorphism...."))

	lhs := PointAdd(Commit(a1, m1), Commit(a2, m2))
	rhs := Commit(a1.Add(a2), m1.Add(m2))
	if !lhs.equal(rhs) {
		t.Error("commit(a1,m1)+commit(a2,m2) != commit(a1+a2,m1+m2)")
	}
}

func TestHashToPointDeterministic(t *testing.T) {
	p1 := hashToPoint([]byte("determinism check"))
	p2 := hashToPoint([]byte("determinism check"))
	if !p1.equal(p2) {
		t.Error("hashToPoint is not deterministic")
	}
	if p1.equal(hashToPoint([]byte("different input"))) {
		t.Error("hashToPoint collided on different inputs")
	}
}
