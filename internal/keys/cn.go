// Package keys implements the CN (legacy CryptoNote) and CARROT key
// hierarchies: deriving view/spend keys, subaddress tables, and
// one-time output keys from a wallet's master secret.
package keys

import (
	"github.com/salvium/wallet-core/internal/cryptoops"
)

// CNKeys is a legacy CryptoNote wallet's view/spend key pair.
type CNKeys struct {
	ViewSecret  cryptoops.Scalar
	SpendSecret cryptoops.Scalar
	ViewPublic  cryptoops.Point
	SpendPublic cryptoops.Point
}

// NewCNKeys derives (k_v, k_s) from a 32-byte seed the way the legacy
// wallet does: the spend key is the seed itself reduced mod l, the view
// key is keccak256(spend_secret) reduced mod l.
func NewCNKeys(seed [32]byte) CNKeys {
	ks := cryptoops.ScReduce(seed[:])
	h := cryptoops.Keccak256(ks.Bytes()[:])
	kv := cryptoops.ScReduce(h[:])
	return CNKeys{
		ViewSecret:  kv,
		SpendSecret: ks,
		ViewPublic:  cryptoops.ScalarMultBase(kv),
		SpendPublic: cryptoops.ScalarMultBase(ks),
	}
}

// CNSubaddress is a derived (major, minor)-indexed subaddress. Index
// (0, 0) is the primary address and is not itself a "subaddress" in
// CryptoNote terminology, but CNSubaddressKeys(0,0) still returns the
// correct primary spend/view pair for uniform handling.
type CNSubaddress struct {
	SpendPublic cryptoops.Point
	ViewPublic  cryptoops.Point
	Major       uint32
	Minor       uint32
}

// CNSubaddressOffset computes m = Hs("SubAddr"||k_v||major||minor).
func CNSubaddressOffset(viewSecret cryptoops.Scalar, major, minor uint32) cryptoops.Scalar {
	if major == 0 && minor == 0 {
		return cryptoops.ScalarZero()
	}
	vs := viewSecret.Bytes()
	h := cryptoops.Keccak256([]byte("SubAddr\x00"), vs[:], leU32(major), leU32(minor))
	return cryptoops.ScReduce(h[:])
}

// DeriveCNSubaddress computes (K_s + m*G, k_v*(K_s + m*G)) for index
// (major, minor).
func DeriveCNSubaddress(k CNKeys, major, minor uint32) CNSubaddress {
	if major == 0 && minor == 0 {
		return CNSubaddress{SpendPublic: k.SpendPublic, ViewPublic: k.ViewPublic, Major: 0, Minor: 0}
	}
	m := CNSubaddressOffset(k.ViewSecret, major, minor)
	spend := cryptoops.PointAdd(k.SpendPublic, cryptoops.ScalarMultBase(m))
	view := cryptoops.ScalarMult(k.ViewSecret, spend)
	return CNSubaddress{SpendPublic: spend, ViewPublic: view, Major: major, Minor: minor}
}

// CNOneTimeOutputKey derives K_o = Hs(derivation||output_index)*G + K_j^s
// for a legacy output, where derivation = k_v * D_e (the ECDH shared
// secret between the wallet's view key and the transaction's ephemeral
// public key).
func CNOneTimeOutputKey(derivation cryptoops.Point, outputIndex uint64, subSpend cryptoops.Point) cryptoops.Point {
	h := cnDerivationScalar(derivation, outputIndex)
	return cryptoops.PointAdd(cryptoops.ScalarMultBase(h), subSpend)
}

func cnDerivationScalar(derivation cryptoops.Point, outputIndex uint64) cryptoops.Scalar {
	enc := derivation.Compress()
	h := cryptoops.Keccak256(enc[:], varintEncode(outputIndex))
	return cryptoops.ScReduce(h[:])
}

// CNDerivationScalar is the exported form of cnDerivationScalar, used
// by the scanner to recover a candidate subaddress spend key without
// re-deriving every known subaddress.
func CNDerivationScalar(derivation cryptoops.Point, outputIndex uint64) cryptoops.Scalar {
	return cnDerivationScalar(derivation, outputIndex)
}

// CNOneTimeSecret recovers the one-time output secret for a full wallet:
// k_o = Hs(derivation||output_index) + k_s_sub.
func CNOneTimeSecret(derivation cryptoops.Point, outputIndex uint64, subSpendSecret cryptoops.Scalar) cryptoops.Scalar {
	h := cnDerivationScalar(derivation, outputIndex)
	return h.Add(subSpendSecret)
}

// KeyImage computes k*Hp(K), the unique double-spend-prevention tag for
// a one-time output key K with secret k.
func KeyImage(oneTimeSecret cryptoops.Scalar, oneTimeKey cryptoops.Point) cryptoops.Point {
	enc := oneTimeKey.Compress()
	hp := cryptoops.HashToPoint(enc[:])
	return cryptoops.ScalarMult(oneTimeSecret, hp)
}

// BuildCNSubaddressTable materializes every (major, minor) pair in the
// given ranges, the lookup structure the legacy scanner needs to match
// a candidate spend key in constant time.
func BuildCNSubaddressTable(k CNKeys, maxMajor, maxMinor uint32) map[[32]byte]CNSubaddressIndexFor {
	table := make(map[[32]byte]CNSubaddressIndexFor)
	for major := uint32(0); major <= maxMajor; major++ {
		for minor := uint32(0); minor <= maxMinor; minor++ {
			sub := DeriveCNSubaddress(k, major, minor)
			table[sub.SpendPublic.Compress()] = CNSubaddressIndexFor{Major: major, Minor: minor}
		}
	}
	return table
}

// CNSubaddressIndexFor identifies a legacy subaddress position. Kept
// distinct from keys.SubaddressIndex (CARROT) even though the shape is
// identical, since the two hierarchies' tables are never interchanged.
type CNSubaddressIndexFor struct {
	Major uint32
	Minor uint32
}

func leU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// varintEncode is a small local LEB128 encoder so this package doesn't
// need to import txcodec (which in turn depends on keys' output types);
// the canonical varint implementation lives in txcodec.
func varintEncode(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}
