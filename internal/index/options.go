package index

import (
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/bulk"
)

type settings struct {
	name            string
	batch           *bulk.Batcher
	retryOnConflict int
	now             func() time.Time
	logger          *zap.Logger
}

// Option configures a Core.
type Option func(*settings)

// WithName overrides the declared index name, e.g. for per-environment prefixes.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithBatcher sets the batcher used for bulk writes. Default: bulk.New with PolicyCount.
func WithBatcher(b *bulk.Batcher) Option {
	return func(s *settings) {
		if b != nil {
			s.batch = b
		}
	}
}

// WithRetryOnConflict sets the retry hint sent with single-document updates.
func WithRetryOnConflict(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.retryOnConflict = n
		}
	}
}

// WithClock overrides the time source for written timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
