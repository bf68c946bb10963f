// Package txcodec implements the wire format: varints, outputs, inputs,
// the transaction prefix (including the Salvium-specific trailer
// fields), the extra TLV blob, and the RCT base/prunable sections.
package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// maxVarintBytes bounds LEB128 decoding: 10 bytes covers a full 64-bit
// value (ceil(64/7) = 10; the tenth byte carries only bit 63), so anything longer is
// either malformed or an attempt to waste a verifier's time.
const maxVarintBytes = 10

// EncodeVarint writes v as unsigned LEB128.
func EncodeVarint(v uint64) []byte {
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

// DecodeVarint reads an unsigned LEB128 value from the front of b,
// returning the value and the number of bytes consumed. Encodings
// longer than maxVarintBytes are rejected with InvalidEncoding.
func DecodeVarint(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		if i >= maxVarintBytes {
			return 0, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "varint: encoding too long"}
		}
		chunk := b[i]
		result |= uint64(chunk&0x7f) << shift
		if chunk&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "varint: truncated"}
}

// encodeLengthPrefixedString encodes a string as varint(len) || bytes, the
// shape asset_type and similar short strings use throughout this codec.
func encodeLengthPrefixedString(s string) []byte {
	out := EncodeVarint(uint64(len(s)))
	return append(out, s...)
}

func decodeLengthPrefixedString(b []byte) (string, int, error) {
	n, consumed, err := DecodeVarint(b)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(b)-consumed) < n {
		return "", 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "string: truncated"}
	}
	return string(b[consumed : consumed+int(n)]), consumed + int(n), nil
}
