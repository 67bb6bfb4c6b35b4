// Package extraction runs fingerprint extraction over a batch of
// tracks using a bounded worker pool.
package extraction

import (
	"github.com/okian/gatekeeper/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent extractions.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMinViable sets the smallest number of successful sources that
// keeps a batch worth finishing.
func WithMinViable(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.minViable = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
