package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// ExtraTag identifies a TLV entry in the extra blob.
type ExtraTag byte

const (
	ExtraTxPubkey         ExtraTag = 0x01
	ExtraNonce            ExtraTag = 0x02
	ExtraAdditionalPubkeys ExtraTag = 0x04
)

// ExtraField is one decoded entry of the extra TLV stream. Unrecognized
// tags are preserved verbatim in Raw so re-serialization round-trips
// byte for byte even for fields this codec doesn't interpret.
type ExtraField struct {
	Tag              ExtraTag
	TxPubkey         cryptoops.Point   // ExtraTxPubkey
	Nonce            []byte            // ExtraNonce (may include an encrypted-payment-id sub-tag)
	AdditionalPubkeys []cryptoops.Point // ExtraAdditionalPubkeys
	Raw              []byte            // unrecognized tag: tag byte + body, verbatim
}

// EncodeExtra serializes a sequence of extra fields into one blob.
func EncodeExtra(fields []ExtraField) []byte {
	var out []byte
	for _, f := range fields {
		switch f.Tag {
		case ExtraTxPubkey:
			out = append(out, byte(ExtraTxPubkey))
			enc := f.TxPubkey.Compress()
			out = append(out, enc[:]...)
		case ExtraNonce:
			out = append(out, byte(ExtraNonce))
			out = append(out, EncodeVarint(uint64(len(f.Nonce)))...)
			out = append(out, f.Nonce...)
		case ExtraAdditionalPubkeys:
			out = append(out, byte(ExtraAdditionalPubkeys))
			out = append(out, EncodeVarint(uint64(len(f.AdditionalPubkeys)))...)
			for _, p := range f.AdditionalPubkeys {
				enc := p.Compress()
				out = append(out, enc[:]...)
			}
		default:
			out = append(out, f.Raw...)
		}
	}
	return out
}

// DecodeExtra parses the extra blob into its constituent fields.
// Unknown tags are captured whole in Raw and are not interpreted.
func DecodeExtra(b []byte) ([]ExtraField, error) {
	var fields []ExtraField
	pos := 0
	for pos < len(b) {
		tag := ExtraTag(b[pos])
		switch tag {
		case ExtraTxPubkey:
			if len(b)-pos-1 < 32 {
				return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "extra: truncated tx pubkey"}
			}
			p, err := cryptoops.DecompressPoint(b[pos+1 : pos+33])
			if err != nil {
				return nil, err
			}
			fields = append(fields, ExtraField{Tag: tag, TxPubkey: p})
			pos += 33

		case ExtraNonce:
			n, consumed, err := DecodeVarint(b[pos+1:])
			if err != nil {
				return nil, err
			}
			start := pos + 1 + consumed
			if uint64(len(b)-start) < n {
				return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "extra: truncated nonce"}
			}
			fields = append(fields, ExtraField{Tag: tag, Nonce: append([]byte(nil), b[start:start+int(n)]...)})
			pos = start + int(n)

		case ExtraAdditionalPubkeys:
			count, consumed, err := DecodeVarint(b[pos+1:])
			if err != nil {
				return nil, err
			}
			start := pos + 1 + consumed
			pubkeys := make([]cryptoops.Point, count)
			for i := range pubkeys {
				if uint64(len(b)-start) < 32 {
					return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "extra: truncated additional pubkey"}
				}
				p, err := cryptoops.DecompressPoint(b[start : start+32])
				if err != nil {
					return nil, err
				}
				pubkeys[i] = p
				start += 32
			}
			fields = append(fields, ExtraField{Tag: tag, AdditionalPubkeys: pubkeys})
			pos = start

		default:
			// Unknown tag: stop here and keep the rest verbatim.
			// A real unknown TLV would need its own length prefix to
			// skip correctly; since this codec doesn't know the shape of
			// tags it has never seen, it stops structured parsing at the
			// first unknown byte and returns everything from here as Raw.
			fields = append(fields, ExtraField{Raw: append([]byte(nil), b[pos:]...)})
			return fields, nil
		}
	}
	return fields, nil
}
