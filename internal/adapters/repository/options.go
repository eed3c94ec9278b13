package repository

import "time"

// Option applies a configuration option to the TreapBoard.
type Option func(*TreapBoard)

// WithMetricsRefreshInterval sets how often the board size gauge is
// refreshed in the background.
func WithMetricsRefreshInterval(interval time.Duration) Option {
	return func(b *TreapBoard) {
		if interval > 0 {
			b.refreshInterval = interval
		}
	}
}
