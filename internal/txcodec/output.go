package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// OutputTargetTag distinguishes the three output wire shapes.
type OutputTargetTag byte

const (
	TargetToKey       OutputTargetTag = 2
	TargetToTaggedKey OutputTargetTag = 3
	TargetToCarrotV1  OutputTargetTag = 4
)

// Output is a decoded transaction output in its target-agnostic form.
// Exactly one of the CN or Carrot-only fields is meaningful, selected
// by Tag.
type Output struct {
	Amount     uint64
	Tag        OutputTargetTag
	Key        cryptoops.Point // ToKey, ToTaggedKey, ToCarrotV1 one-time address
	ViewTag1   byte            // ToTaggedKey only
	ViewTag3   [3]byte         // ToCarrotV1 only
	AssetType  string
	UnlockTime uint64 // legacy only; absent (zero) for Carrot outputs
	JanusAnchorEnc [16]byte // ToCarrotV1 only: encrypted janus anchor
	AuditTag   cryptoops.Point // ToCarrotV1 only: T-generator audit-tag key consumed by TCLSAG's second track
}

// EncodeOutput serializes an output per its target tag.
func EncodeOutput(o Output) ([]byte, error) {
	switch o.Tag {
	case TargetToKey, TargetToTaggedKey:
		var out []byte
		out = append(out, EncodeVarint(o.Amount)...)
		out = append(out, byte(o.Tag))
		keyEnc := o.Key.Compress()
		out = append(out, keyEnc[:]...)
		if o.Tag == TargetToTaggedKey {
			out = append(out, o.ViewTag1)
		}
		out = append(out, encodeLengthPrefixedString(o.AssetType)...)
		out = append(out, EncodeVarint(o.UnlockTime)...)
		return out, nil
	case TargetToCarrotV1:
		var out []byte
		out = append(out, byte(o.Tag))
		keyEnc := o.Key.Compress()
		out = append(out, keyEnc[:]...)
		out = append(out, encodeLengthPrefixedString(o.AssetType)...)
		out = append(out, o.ViewTag3[:]...)
		out = append(out, o.JanusAnchorEnc[:]...)
		auditEnc := o.AuditTag.Compress()
		out = append(out, auditEnc[:]...)
		return out, nil
	default:
		return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: unknown target tag"}
	}
}

// DecodeOutput reads one output from the front of b, returning the
// decoded value and the number of bytes consumed. The leading
// amount_varint is only present for legacy targets (Carrot outputs
// always carry amount 0 at the prefix level; real amounts live behind
// the encrypted-amount/commitment pair in the RCT sections), so the
// caller must tell us whether to expect it.
func DecodeOutput(b []byte, hasLegacyAmount bool) (Output, int, error) {
	pos := 0
	var amount uint64
	if hasLegacyAmount {
		a, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Output{}, 0, err
		}
		amount = a
		pos += n
	}
	if pos >= len(b) {
		return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated tag"}
	}
	tag := OutputTargetTag(b[pos])
	pos++

	switch tag {
	case TargetToKey, TargetToTaggedKey:
		if len(b)-pos < 32 {
			return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated key"}
		}
		key, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Output{}, 0, err
		}
		pos += 32

		var viewTag1 byte
		if tag == TargetToTaggedKey {
			if pos >= len(b) {
				return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated view tag"}
			}
			viewTag1 = b[pos]
			pos++
		}

		assetType, n, err := decodeLengthPrefixedString(b[pos:])
		if err != nil {
			return Output{}, 0, err
		}
		pos += n

		unlockTime, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Output{}, 0, err
		}
		pos += n

		return Output{
			Amount:     amount,
			Tag:        tag,
			Key:        key,
			ViewTag1:   viewTag1,
			AssetType:  assetType,
			UnlockTime: unlockTime,
		}, pos, nil

	case TargetToCarrotV1:
		if len(b)-pos < 32 {
			return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated key"}
		}
		key, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Output{}, 0, err
		}
		pos += 32

		assetType, n, err := decodeLengthPrefixedString(b[pos:])
		if err != nil {
			return Output{}, 0, err
		}
		pos += n

		if len(b)-pos < 3+16 {
			return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated carrot trailer"}
		}
		var viewTag3 [3]byte
		copy(viewTag3[:], b[pos:pos+3])
		pos += 3
		var anchor [16]byte
		copy(anchor[:], b[pos:pos+16])
		pos += 16

		if len(b)-pos < 32 {
			return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: truncated audit tag"}
		}
		auditTag, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Output{}, 0, err
		}
		pos += 32

		return Output{
			Tag:            tag,
			Key:            key,
			AssetType:      assetType,
			ViewTag3:       viewTag3,
			JanusAnchorEnc: anchor,
			AuditTag:       auditTag,
		}, pos, nil

	default:
		return Output{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "output: unknown target tag"}
	}
}
