package daemon

import "context"

// infoResult is get_info's response shape.
type infoResult struct {
	Height       uint64 `json:"height"`
	TopBlockHash string `json:"top_block_hash"`
	Synchronized bool   `json:"synchronized"`
}

// GetInfo reports the daemon's current chain tip.
func (c *Client) GetInfo(ctx context.Context) (infoResult, error) {
	var res infoResult
	err := c.call(ctx, "get_info", nil, &res)
	return res, err
}

// TipHeight implements scanner.Daemon.
func (c *Client) TipHeight(ctx context.Context) (uint64, error) {
	info, err := c.GetInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.Height, nil
}
