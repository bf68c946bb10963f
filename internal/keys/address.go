package keys

import (
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

// NetworkParams are the per-network address bytes a deployment picks,
// analogous to chaincfg.Params in the Bitcoin stack this package
// borrows its base58 alphabet from.
type NetworkParams struct {
	Name             string
	PublicAddressTag []byte // network_byte(s) prefix, 1 or 2 bytes
}

var (
	MainNet = NetworkParams{Name: "mainnet", PublicAddressTag: []byte{0x60}}
	TestNet = NetworkParams{Name: "testnet", PublicAddressTag: []byte{0x35}}
)

// blockSizes is the CryptoNote base58 block table: full 8-byte blocks
// encode to 11 characters; the alphabet has log2(58) ~= 5.858 bits per
// symbol, so a final partial block of n bytes encodes to
// blockSizes[n] characters.
var blockSizes = [9]int{0, 2, 3, 5, 6, 7, 9, 10, 11}

// EncodeAddress builds a Salvium/CryptoNote-style address: base58,
// block-encoded 8 raw bytes at a time into 11-character groups, of
// network_tag || spend_pubkey || view_pubkey || keccak256(...)[:4].
func EncodeAddress(net NetworkParams, spend, view cryptoops.Point) string {
	spendBytes := spend.Compress()
	viewBytes := view.Compress()

	payload := make([]byte, 0, len(net.PublicAddressTag)+64+4)
	payload = append(payload, net.PublicAddressTag...)
	payload = append(payload, spendBytes[:]...)
	payload = append(payload, viewBytes[:]...)

	checksum := cryptoops.Keccak256(payload)
	payload = append(payload, checksum[:4]...)

	return blockEncode(payload)
}

// DecodeAddress reverses EncodeAddress, validating the trailing
// keccak256 checksum and the network tag.
func DecodeAddress(net NetworkParams, addr string) (spend, view cryptoops.Point, err error) {
	raw, err := blockDecode(addr)
	if err != nil {
		return cryptoops.Point{}, cryptoops.Point{}, err
	}
	tagLen := len(net.PublicAddressTag)
	minLen := tagLen + 64 + 4
	if len(raw) != minLen {
		return cryptoops.Point{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "address: wrong decoded length"}
	}
	for i, b := range net.PublicAddressTag {
		if raw[i] != b {
			return cryptoops.Point{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "address: network tag mismatch"}
		}
	}

	body := raw[:tagLen+64]
	sum := raw[tagLen+64:]
	checksum := cryptoops.Keccak256(body)
	for i := 0; i < 4; i++ {
		if sum[i] != checksum[i] {
			return cryptoops.Point{}, cryptoops.Point{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "address: checksum mismatch"}
		}
	}

	spendBytes := raw[tagLen : tagLen+32]
	viewBytes := raw[tagLen+32 : tagLen+64]
	spend, err = cryptoops.DecompressPoint(spendBytes)
	if err != nil {
		return cryptoops.Point{}, cryptoops.Point{}, err
	}
	view, err = cryptoops.DecompressPoint(viewBytes)
	if err != nil {
		return cryptoops.Point{}, cryptoops.Point{}, err
	}
	return spend, view, nil
}

// blockEncode applies the CryptoNote 8-bytes-in/11-chars-out grouping
// on top of btcutil/base58's raw digit alphabet, left-padding each
// block's encoding with the alphabet's zero symbol to its fixed width
// (plain base58.Encode drops leading zero digits, which this format's
// fixed block widths cannot tolerate).
func blockEncode(data []byte) string {
	var out []byte
	for len(data) > 0 {
		n := 8
		if len(data) < n {
			n = len(data)
		}
		block := data[:n]
		data = data[n:]

		enc := base58.Encode(block)
		width := blockSizes[n]
		if pad := width - len(enc); pad > 0 {
			padding := make([]byte, pad)
			for i := range padding {
				padding[i] = base58Alphabet[0]
			}
			enc = string(padding) + enc
		}
		out = append(out, enc...)
	}
	return string(out)
}

// base58Alphabet mirrors the alphabet base58.Encode uses internally
// (the same Bitcoin/IPFS alphabet CryptoNote addresses reuse), needed
// here only to know its zero-symbol for block padding.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func blockDecode(s string) ([]byte, error) {
	var out []byte
	widthToFull := map[int]int{0: 0, 2: 1, 3: 2, 5: 3, 6: 4, 7: 5, 9: 6, 10: 7, 11: 8}

	for len(s) > 0 {
		w := 11
		if len(s) < w {
			w = len(s)
		}
		chunk := s[:w]
		s = s[w:]

		full, ok := widthToFull[len(chunk)]
		if !ok {
			return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "address: invalid block width"}
		}
		decoded := base58.Decode(chunk)
		if len(decoded) == 0 && chunk != "" {
			allZero := true
			for _, c := range chunk {
				if byte(c) != base58Alphabet[0] {
					allZero = false
					break
				}
			}
			if !allZero {
				return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "address: invalid base58 block"}
			}
		}
		if pad := full - len(decoded); pad > 0 {
			padded := make([]byte, full)
			copy(padded[pad:], decoded)
			decoded = padded
		} else if len(decoded) > full {
			decoded = decoded[len(decoded)-full:]
		}
		out = append(out, decoded...)
	}
	return out, nil
}
