package txcodec

import "github.com/salvium/wallet-core/internal/cryptoops"

// TxType enumerates the Salvium-specific transaction purposes carried
// in the prefix trailer.
type TxType byte

const (
	TxUnset TxType = iota
	TxMiner
	TxProtocol
	TxTransfer
	TxConvert
	TxStake
	TxBurn
)

// ProtocolTxData is the STAKE-era (version >= 4, CARROT) return-address
// struct.
type ProtocolTxData struct {
	Version        byte
	ReturnAddress  cryptoops.Point
	ReturnPubkey   cryptoops.Point
	ReturnViewTag  [3]byte
	ReturnAnchorEnc [16]byte
}

// Prefix is the transaction prefix: the consensus-visible header every
// signature ultimately binds to.
type Prefix struct {
	Version     uint64
	UnlockTime  uint64
	Inputs      []Input
	Outputs     []Output
	Extra       []byte

	TxType              TxType
	AmountBurnt         uint64 // present except UNSET/PROTOCOL
	ReturnAddressList   []cryptoops.Point // TRANSFER, version >= 3
	ReturnAddressChangeMask cryptoops.Scalar
	ProtocolData        *ProtocolTxData // STAKE, version >= 4
	ReturnAddress       cryptoops.Point // all other non-MINER types
	ReturnPubkey        cryptoops.Point
	SourceAssetType     string
	DestinationAssetType string
	AmountSlippageLimit uint64
}

// EncodeHashable serializes the prefix in the canonical order the tx
// prefix hash is computed over: version, unlock time, inputs, outputs,
// extra (length-prefixed), then the Salvium trailer gated on
// (version, tx_type).
func EncodeHashable(p Prefix) ([]byte, error) {
	var out []byte
	out = append(out, EncodeVarint(p.Version)...)
	out = append(out, EncodeVarint(p.UnlockTime)...)

	out = append(out, EncodeVarint(uint64(len(p.Inputs)))...)
	for _, in := range p.Inputs {
		enc, err := EncodeInput(in)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}

	out = append(out, EncodeVarint(uint64(len(p.Outputs)))...)
	for _, o := range p.Outputs {
		enc, err := EncodeOutput(o)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}

	out = append(out, EncodeVarint(uint64(len(p.Extra)))...)
	out = append(out, p.Extra...)

	trailer, err := encodeTrailer(p)
	if err != nil {
		return nil, err
	}
	out = append(out, trailer...)
	return out, nil
}

func encodeTrailer(p Prefix) ([]byte, error) {
	var out []byte
	out = append(out, byte(p.TxType))

	if p.TxType != TxUnset && p.TxType != TxProtocol {
		out = append(out, EncodeVarint(p.AmountBurnt)...)
	}

	switch {
	case p.TxType == TxTransfer && p.Version >= 3:
		out = append(out, EncodeVarint(uint64(len(p.ReturnAddressList)))...)
		for _, addr := range p.ReturnAddressList {
			enc := addr.Compress()
			out = append(out, enc[:]...)
		}
		maskBytes := p.ReturnAddressChangeMask.Bytes()
		out = append(out, maskBytes[:]...)

	case p.TxType == TxStake && p.Version >= 4:
		if p.ProtocolData == nil {
			return nil, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: STAKE v4+ requires protocol_tx_data"}
		}
		d := p.ProtocolData
		out = append(out, d.Version)
		ra := d.ReturnAddress.Compress()
		out = append(out, ra[:]...)
		rp := d.ReturnPubkey.Compress()
		out = append(out, rp[:]...)
		out = append(out, d.ReturnViewTag[:]...)
		out = append(out, d.ReturnAnchorEnc[:]...)

	case p.TxType != TxMiner:
		ra := p.ReturnAddress.Compress()
		out = append(out, ra[:]...)
		rp := p.ReturnPubkey.Compress()
		out = append(out, rp[:]...)
	}

	out = append(out, encodeLengthPrefixedString(p.SourceAssetType)...)
	out = append(out, encodeLengthPrefixedString(p.DestinationAssetType)...)
	out = append(out, EncodeVarint(p.AmountSlippageLimit)...)
	return out, nil
}

// PrefixHash computes the tx prefix hash: Keccak-256 of the canonical
// serialization.
func PrefixHash(p Prefix) ([32]byte, error) {
	enc, err := EncodeHashable(p)
	if err != nil {
		return [32]byte{}, err
	}
	return cryptoops.Keccak256(enc), nil
}

// DecodePrefix is the inverse of EncodeHashable.
func DecodePrefix(b []byte) (Prefix, error) {
	var p Prefix
	pos := 0

	version, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	p.Version = version
	pos += n

	unlockTime, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	p.UnlockTime = unlockTime
	pos += n

	inCount, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	pos += n
	p.Inputs = make([]Input, inCount)
	for i := range p.Inputs {
		in, n, err := DecodeInput(b[pos:])
		if err != nil {
			return Prefix{}, err
		}
		p.Inputs[i] = in
		pos += n
	}

	outCount, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	pos += n
	p.Outputs = make([]Output, outCount)
	for i := range p.Outputs {
		// The legacy/carrot distinction is made by the leading target
		// tag once amount is out of the picture; Carrot transactions
		// are expected to be internally consistent (all outputs one
		// era), so the caller is responsible for telling DecodeOutput
		// whether to expect a leading amount. Key inputs carry amount 0
		// in the RCT era and outputs follow the same era, so try legacy
		// first and fall back to Carrot on failure.
		out, n, err := DecodeOutput(b[pos:], true)
		if err != nil {
			out, n, err = DecodeOutput(b[pos:], false)
			if err != nil {
				return Prefix{}, err
			}
		}
		p.Outputs[i] = out
		pos += n
	}

	extraLen, n, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	pos += n
	if uint64(len(b)-pos) < extraLen {
		return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated extra"}
	}
	p.Extra = append([]byte(nil), b[pos:pos+int(extraLen)]...)
	pos += int(extraLen)

	if pos >= len(b) {
		return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated trailer"}
	}
	p.TxType = TxType(b[pos])
	pos++

	if p.TxType != TxUnset && p.TxType != TxProtocol {
		amt, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Prefix{}, err
		}
		p.AmountBurnt = amt
		pos += n
	}

	switch {
	case p.TxType == TxTransfer && p.Version >= 3:
		count, n, err := DecodeVarint(b[pos:])
		if err != nil {
			return Prefix{}, err
		}
		pos += n
		p.ReturnAddressList = make([]cryptoops.Point, count)
		for i := range p.ReturnAddressList {
			if len(b)-pos < 32 {
				return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated return address list"}
			}
			addr, err := cryptoops.DecompressPoint(b[pos : pos+32])
			if err != nil {
				return Prefix{}, err
			}
			p.ReturnAddressList[i] = addr
			pos += 32
		}
		if len(b)-pos < 32 {
			return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated change mask"}
		}
		mask, err := cryptoops.NewScalarCanonical(b[pos : pos+32])
		if err != nil {
			return Prefix{}, err
		}
		p.ReturnAddressChangeMask = mask
		pos += 32

	case p.TxType == TxStake && p.Version >= 4:
		if len(b)-pos < 1+32+32+3+16 {
			return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated protocol_tx_data"}
		}
		var d ProtocolTxData
		d.Version = b[pos]
		pos++
		ra, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Prefix{}, err
		}
		d.ReturnAddress = ra
		pos += 32
		rp, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Prefix{}, err
		}
		d.ReturnPubkey = rp
		pos += 32
		copy(d.ReturnViewTag[:], b[pos:pos+3])
		pos += 3
		copy(d.ReturnAnchorEnc[:], b[pos:pos+16])
		pos += 16
		p.ProtocolData = &d

	case p.TxType != TxMiner:
		if len(b)-pos < 64 {
			return Prefix{}, &cryptoops.Error{Kind: cryptoops.InvalidEncoding, Msg: "prefix: truncated return address/pubkey"}
		}
		ra, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Prefix{}, err
		}
		p.ReturnAddress = ra
		pos += 32
		rp, err := cryptoops.DecompressPoint(b[pos : pos+32])
		if err != nil {
			return Prefix{}, err
		}
		p.ReturnPubkey = rp
		pos += 32
	}

	srcAsset, n, err := decodeLengthPrefixedString(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	p.SourceAssetType = srcAsset
	pos += n

	dstAsset, n, err := decodeLengthPrefixedString(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	p.DestinationAssetType = dstAsset
	pos += n

	slippage, _, err := DecodeVarint(b[pos:])
	if err != nil {
		return Prefix{}, err
	}
	p.AmountSlippageLimit = slippage

	return p, nil
}
