package cache

import (
	"context"
	"log/slog"

	"counsel/internal/integrity/models"
	"counsel/pkg/platform/circuit"
)

// Backend is any cache implementation.
type Backend interface {
	Get(ctx context.Context, key Key) ([]models.Issue, bool, error)
	Set(ctx context.Context, key Key, issues []models.Issue) error
	Clear(ctx context.Context) error
}

// Fallback serves from a remote primary and switches to a local fallback
// while the breaker is open. Writes go to both so the fallback is warm when
// the breaker trips. Only primary errors reach the breaker.
type Fallback struct {
	primary  Backend
	fallback Backend
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallback wraps primary with fallback behind breaker.
func NewFallback(primary, fallback Backend, breaker *circuit.Breaker, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fallback{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (f *Fallback) Get(ctx context.Context, key Key) ([]models.Issue, bool, error) {
	issues, ok, err := f.primary.Get(ctx, key)
	if err != nil {
		if !f.failed(ctx, err) {
			return nil, false, err
		}
		return f.fallback.Get(ctx, key)
	}
	if !f.succeeded(ctx) {
		return f.fallback.Get(ctx, key)
	}
	return issues, ok, nil
}

func (f *Fallback) Set(ctx context.Context, key Key, issues []models.Issue) error {
	fbErr := f.fallback.Set(ctx, key, issues)
	if err := f.primary.Set(ctx, key, issues); err != nil {
		if !f.failed(ctx, err) {
			return err
		}
		return fbErr
	}
	f.succeeded(ctx)
	return fbErr
}

// Clear clears both caches. A primary failure is returned so callers know
// other replicas may still hold stale results.
func (f *Fallback) Clear(ctx context.Context) error {
	fbErr := f.fallback.Clear(ctx)
	if err := f.primary.Clear(ctx); err != nil {
		f.failed(ctx, err)
		return err
	}
	f.succeeded(ctx)
	return fbErr
}

func (f *Fallback) failed(ctx context.Context, err error) (useFallback bool) {
	useFallback, change := f.breaker.RecordFailure()
	if change.Opened {
		f.logger.WarnContext(ctx, "integrity cache circuit opened; serving from local fallback",
			"breaker", f.breaker.Name(),
			"error", err,
		)
	}
	return useFallback
}

func (f *Fallback) succeeded(ctx context.Context) (usePrimary bool) {
	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		// entries written while the primary was unreachable may be stale
		_ = f.fallback.Clear(ctx)
		f.logger.InfoContext(ctx, "integrity cache circuit closed", "breaker", f.breaker.Name())
	}
	return usePrimary
}
