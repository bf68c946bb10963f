package daemon

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/txbuilder"
)

type outWire struct {
	GlobalIndex    uint64 `json:"global_index"`
	OneTimeAddress string `json:"one_time_address"`
	Commitment     string `json:"commitment"`
	AuditTag       string `json:"audit_tag"` // empty for CN-era outputs
}

type getOutsResult struct {
	Outs []outWire `json:"outs"`
}

type getOutsParams struct {
	Amount      uint64 `json:"amount"`
	AssetType   string `json:"asset_type"`
	Count       int    `json:"count"`
	ExcludeIdx  uint64 `json:"exclude_global_index"`
}

// ResolveDecoys implements txbuilder.DecoyResolver, asking the daemon's
// get_outs oracle for count ring members drawn from the same (amount,
// asset_type) output set as the real spend, excluding it by index.
func (c *Client) ResolveDecoys(amount uint64, assetType string, count int, exclude uint64) ([]txbuilder.DecoyMember, error) {
	var res getOutsResult
	params := getOutsParams{Amount: amount, AssetType: assetType, Count: count, ExcludeIdx: exclude}
	if err := c.call(context.Background(), "get_outs", params, &res); err != nil {
		return nil, fmt.Errorf("daemon: resolve_decoys: %w", err)
	}
	if len(res.Outs) != count {
		return nil, fmt.Errorf("daemon: resolve_decoys: daemon returned %d outs, wanted %d", len(res.Outs), count)
	}

	members := make([]txbuilder.DecoyMember, len(res.Outs))
	for i, o := range res.Outs {
		addr, err := decodeHexPoint(o.OneTimeAddress)
		if err != nil {
			return nil, fmt.Errorf("daemon: resolve_decoys: out %d: one_time_address: %w", i, err)
		}
		commitment, err := decodeHexPoint(o.Commitment)
		if err != nil {
			return nil, fmt.Errorf("daemon: resolve_decoys: out %d: commitment: %w", i, err)
		}
		auditTag := cryptoops.Identity()
		if o.AuditTag != "" {
			auditTag, err = decodeHexPoint(o.AuditTag)
			if err != nil {
				return nil, fmt.Errorf("daemon: resolve_decoys: out %d: audit_tag: %w", i, err)
			}
		}
		members[i] = txbuilder.DecoyMember{
			GlobalIndex:    o.GlobalIndex,
			OneTimeAddress: addr,
			Commitment:     commitment,
			AuditTag:       auditTag,
		}
	}
	return members, nil
}

func decodeHexPoint(s string) (cryptoops.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return cryptoops.Point{}, err
	}
	return cryptoops.DecompressPoint(b)
}
