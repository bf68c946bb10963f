package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// InputTag distinguishes a coinbase (generation) input from a
// ring-signed key input.
type InputTag byte

const (
	InputGen InputTag = 0xff
	InputKey InputTag = 2
)

// Input is a decoded transaction input. For InputGen only Height is
// meaningful; for InputKey, the rest.
type Input struct {
	Tag         InputTag
	Height      uint64 // InputGen
	Amount      uint64 // InputKey, always 0 in the RCT era
	AssetType   string // InputKey
	KeyOffsets  []uint64 // InputKey, relative offsets (prefix-summed externally)
	KeyImage    cryptoops.Point // InputKey
}

// EncodeInput serializes an input.
func EncodeInput(in Input) ([]byte, error) {
	switch in.Tag {
	case InputGen:
		out := []byte{byte(InputGen)}
		out = append(out, EncodeVarint(in.Height)...)
		return out, nil
	case InputKey:
		var out []byte
		out = append(out, byte(InputKey))
		out = append(out, EncodeVarint(in.Amount)...)
		out = append(out, encodeLengthPrefixedString(in.AssetType)...)
		out = append(out, EncodeVarint(uint64(len(in.KeyOffsets)))...)
		for _, off := range in.KeyOffsets {
			out = append(out, EncodeVarint(off)...)
		}
		kiEnc := in.KeyImage.Compress()
		out = append(out, kiEnc[:]...)
		return out, nil
	default:
		return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "input: unknown type tag"}
	}
}

// DecodeInput reads one input from the front of b.
func DecodeInput(b []byte) (Input, int, error) {
	if len(b) == 0 {
		return Input{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "input: empty"}
	}
	tag := InputTag(b[0])
	pos := 1

	switch tag {
	case InputGen:
		height, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Input{}, 0, err
		}
		pos += n
		return Input{Tag: InputGen, Height: height}, pos, nil

	case InputKey:
		amount, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Input{}, 0, err
		}
		pos += n

		assetType, n, err := decodeLengthPrefixedString(b[pos:])
		if err != nil {
			return Input{}, 0, err
		}
		pos += n

		count, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Input{}, 0, err
		}
		pos += n

		offsets := make([]uint64, count)
		for i := range offsets {
			off, n, err := DecodeVarint(b[pos:])
			if err != nil {
				return Input{}, 0, err
			}
			offsets[i] = off
			pos += n
		}

		if len(b)-pos < 32 {
			return Input{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "input: truncated key image"}
		}
		ki, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Input{}, 0, err
		}
		pos += 32

		return Input{
			Tag:        InputKey,
			Amount:     amount,
			AssetType:  assetType,
			KeyOffsets: offsets,
			KeyImage:   ki,
		}, pos, nil

	default:
		return Input{}, 0, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "input: unknown type tag"}
	}
}

// AbsoluteOffsets converts the relative offsets a key input carries on
// the wire into absolute global-output indices by running a prefix sum.
func AbsoluteOffsets(relative []uint64) []uint64 {
	abs := make([]uint64, len(relative))
	var running uint64
	for i, r := range relative {
		running += r
		abs[i] = running
	}
	return abs
}
