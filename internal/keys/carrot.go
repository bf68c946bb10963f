package keys

import "github.com/salvium/wallet-core/internal/cryptoops"

// CarrotKeys is the five-secret tree below a CARROT master secret:
// prove-spend, view-balance, generate-image, view-incoming, and
// generate-address.
type CarrotKeys struct {
	ProveSpend      cryptoops.Scalar // k_ps
	ViewBalance     [32]byte         // s_vb
	GenerateImage   cryptoops.Scalar // k_gi
	ViewIncoming    cryptoops.Scalar // k_vi
	GenerateAddress [32]byte         // s_ga

	AccountSpendPublic cryptoops.Point // K_s
	AccountViewPublic  cryptoops.Point // K_v
	PrimaryViewPublic  cryptoops.Point // K_v^0
}

// NewCarrotKeys derives the full tree from a master secret s_m.
func NewCarrotKeys(masterSecret [32]byte) CarrotKeys {
	kps := hsDomain("carrot_prove_spend", masterSecret[:])

	svb := blake2bDomain("carrot_view_balance", masterSecret[:])

	kgi := hsDomain("carrot_generate_image", svb)
	kvi := hsDomain("carrot_view_incoming", svb)
	sga := blake2bDomain("carrot_generate_address", svb)

	ks := cryptoops.PointAdd(cryptoops.ScalarMultBase(kgi), cryptoops.ScalarMult(kps, cryptoops.T()))
	kv := cryptoops.ScalarMult(kvi, ks)
	kv0 := cryptoops.ScalarMultBase(kvi)

	var svbArr, sgaArr [32]byte
	copy(svbArr[:], svb)
	copy(sgaArr[:], sga)

	return CarrotKeys{
		ProveSpend:         kps,
		ViewBalance:        svbArr,
		GenerateImage:      kgi,
		ViewIncoming:       kvi,
		GenerateAddress:    sgaArr,
		AccountSpendPublic: ks,
		AccountViewPublic:  kv,
		PrimaryViewPublic:  kv0,
	}
}

// hsDomain computes Hs(domain || data), i.e. sc_reduce(keccak256(...)).
// The CARROT key schedule is specified with Hs which, per the CN
// tradition this scheme extends, is a Keccak-256-based scalar hash.
func hsDomain(domain string, data []byte) cryptoops.Scalar {
	h := cryptoops.Keccak256([]byte(domain), data)
	return cryptoops.ScReduce(h[:])
}

// blake2bDomain computes BLAKE2b(domain, 32, data), used for the secrets
// this hierarchy treats as raw 32-byte values rather than scalars
// (s_vb, s_ga).
func blake2bDomain(domain string, data []byte) []byte {
	return cryptoops.MustBlake2b(32, nil, []byte(domain), data)
}

// CarrotSubaddress is a derived (j_major, j_minor) CARROT subaddress.
type CarrotSubaddress struct {
	SpendPublic cryptoops.Point
	ViewPublic  cryptoops.Point
	Major       uint32
	Minor       uint32
}

// CarrotSubaddressOffset computes
// m = Hs("carrot_subaddress"||s_ga||j_major||j_minor).
func CarrotSubaddressOffset(generateAddress [32]byte, major, minor uint32) cryptoops.Scalar {
	h := cryptoops.Keccak256([]byte("carrot_subaddress"), generateAddress[:], leU32(major), leU32(minor))
	return cryptoops.ScReduce(h[:])
}

// DeriveCarrotSubaddress computes subaddress spend = K_s + m*G, view =
// k_vi*(K_s + m*G).
func DeriveCarrotSubaddress(k CarrotKeys, major, minor uint32) CarrotSubaddress {
	if major == 0 && minor == 0 {
		return CarrotSubaddress{SpendPublic: k.AccountSpendPublic, ViewPublic: k.AccountViewPublic}
	}
	m := CarrotSubaddressOffset(k.GenerateAddress, major, minor)
	spend := cryptoops.PointAdd(k.AccountSpendPublic, cryptoops.ScalarMultBase(m))
	view := cryptoops.ScalarMult(k.ViewIncoming, spend)
	return CarrotSubaddress{SpendPublic: spend, ViewPublic: view, Major: major, Minor: minor}
}

// SubaddressTable indexes a wallet's known subaddress spend keys by
// their compressed encoding, the lookup structure the scanner consults
// when recovering which subaddress an enote belongs to.
type SubaddressTable map[[32]byte]SubaddressIndex

// SubaddressIndex identifies a subaddress position.
type SubaddressIndex struct {
	Major uint32
	Minor uint32
}

// BuildCarrotSubaddressTable materializes every (major, minor) pair in
// the given ranges. Real wallets grow this table lazily/incrementally;
// this helper is for bootstrapping a fresh wallet or tests.
func BuildCarrotSubaddressTable(k CarrotKeys, maxMajor, maxMinor uint32) SubaddressTable {
	table := make(SubaddressTable)
	for major := uint32(0); major <= maxMajor; major++ {
		for minor := uint32(0); minor <= maxMinor; minor++ {
			sub := DeriveCarrotSubaddress(k, major, minor)
			table[sub.SpendPublic.Compress()] = SubaddressIndex{Major: major, Minor: minor}
		}
	}
	return table
}
