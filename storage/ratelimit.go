package storage

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Ensure rateLimited implements the Store interface.
var _ Store = (*rateLimited)(nil)

// RateLimited wraps store so that every call first waits on limiter.
//
// This is useful when the store fronts a remote service with a request quota.
// Each batched call counts as a single request.
//
// # Example
//
//	// At most 50 calls per second, with bursts of up to 10.
//	limited := storage.RateLimited(store, rate.NewLimiter(50, 10))
func RateLimited(store Store, limiter *rate.Limiter) Store {
	return &rateLimited{store: store, limiter: limiter}
}

type rateLimited struct {
	store   Store
	limiter *rate.Limiter
}

func (r *rateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	return nil
}

func (r *rateLimited) Get(ctx context.Context, key string) (string, bool, error) {
	if err := r.wait(ctx); err != nil {
		return "", false, err
	}
	return r.store.Get(ctx, key)
}

func (r *rateLimited) Set(ctx context.Context, key, value string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.Set(ctx, key, value)
}

func (r *rateLimited) Remove(ctx context.Context, key string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.Remove(ctx, key)
}

func (r *rateLimited) Merge(ctx context.Context, key, value string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.Merge(ctx, key, value)
}

func (r *rateLimited) MultiGet(ctx context.Context, keys []string) ([]Lookup, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.store.MultiGet(ctx, keys)
}

func (r *rateLimited) MultiSet(ctx context.Context, entries []Entry) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.MultiSet(ctx, entries)
}

func (r *rateLimited) MultiRemove(ctx context.Context, keys []string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.MultiRemove(ctx, keys)
}

func (r *rateLimited) AllKeys(ctx context.Context) ([]string, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.store.AllKeys(ctx)
}

func (r *rateLimited) Clear(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.store.Clear(ctx)
}
