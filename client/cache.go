package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// NeverStale keeps a query result until it is invalidated.
const NeverStale time.Duration = -1

type queryEntry struct {
	data      json.RawMessage
	fetchedAt time.Time
	staleTime time.Duration
}

func (e queryEntry) fresh(now time.Time) bool {
	return e.staleTime < 0 || now.Sub(e.fetchedAt) < e.staleTime
}

// QueryCache memoizes GET results by request path. Concurrent queries for
// the same path share one request.
type QueryCache struct {
	client *Client
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]queryEntry
	// gens counts invalidations per key. A fetch started before an
	// invalidation must not store its result.
	gens  map[string]uint64
	group singleflight.Group
}

func NewQueryCache(c *Client) *QueryCache {
	return &QueryCache{
		client:  c,
		now:     time.Now,
		entries: make(map[string]queryEntry),
		gens:    make(map[string]uint64),
	}
}

type queryOptions struct {
	staleTime time.Duration
}

type QueryOption func(*queryOptions)

// WithStaleTime makes a result refetch once it is older than d.
func WithStaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.staleTime = d
	}
}

// Query returns the result of GET path decoded into T, from the cache while
// it is fresh.
func Query[T any](ctx context.Context, qc *QueryCache, path string, opts ...QueryOption) (T, error) {
	var out T

	o := queryOptions{staleTime: NeverStale}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := qc.fetch(ctx, path, o.staleTime)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func (qc *QueryCache) fetch(ctx context.Context, key string, staleTime time.Duration) (json.RawMessage, error) {
	qc.mu.Lock()
	entry, ok := qc.entries[key]
	qc.mu.Unlock()
	if ok && entry.fresh(qc.now()) {
		return entry.data, nil
	}

	v, err, _ := qc.group.Do(key, func() (any, error) {
		qc.mu.Lock()
		gen := qc.gens[key]
		qc.mu.Unlock()

		var data json.RawMessage
		if err := qc.client.Request(ctx, http.MethodGet, key, nil, &data); err != nil {
			return nil, err
		}

		qc.mu.Lock()
		if qc.gens[key] == gen {
			qc.entries[key] = queryEntry{data: data, fetchedAt: qc.now(), staleTime: staleTime}
		}
		qc.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Invalidate drops the cached results of keys so the next query refetches.
// Fetches already in flight for those keys still answer their callers but
// leave the cache empty.
func (qc *QueryCache) Invalidate(keys ...string) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	for _, key := range keys {
		delete(qc.entries, key)
		qc.gens[key]++
	}
	for _, key := range keys {
		qc.group.Forget(key)
	}
}

// Mutate sends a write request and, only if it succeeds, invalidates the
// given query keys.
func (qc *QueryCache) Mutate(ctx context.Context, method, path string, body, out any, invalidate ...string) error {
	if err := qc.client.Request(ctx, method, path, body, out); err != nil {
		return err
	}
	qc.Invalidate(invalidate...)
	return nil
}
