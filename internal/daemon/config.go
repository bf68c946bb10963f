package daemon

import "time"

// Config holds the connection parameters for a Salvium daemon's RPC
// surface. Unlike a Bitcoin Core node, there is no separate wallet RPC
// endpoint here: wallet state lives entirely in this module's own
// store package, never in the daemon itself.
type Config struct {
	Host    string
	User    string
	Pass    string
	Timeout time.Duration
}

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
