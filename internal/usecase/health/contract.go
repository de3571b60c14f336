package health

import "context"

// StorePinger probes the chunk store.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker probes a model provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
