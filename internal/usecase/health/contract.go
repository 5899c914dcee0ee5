package health

import "context"

// Pinger checks availability of a backend (search engine, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// TranslatorChecker checks translation provider availability.
type TranslatorChecker interface {
	HealthCheck(ctx context.Context) error
}
