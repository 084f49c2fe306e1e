package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

var ErrMiss = errors.New("cache: miss")

// Store keeps cached response bodies. Keys are namespaced by group so a
// whole resource can be dropped at once.
//
// Every group also has a generation counter. It is part of the key, so
// bumping it makes all earlier entries of the group unreachable, including
// ones written late by requests that started before the bump. Clear leaves
// the counters alone.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Generation(ctx context.Context, group string) (uint64, error)
	BumpGeneration(ctx context.Context, group string) error
}

// Key returns the cache key of a request URI within a generation of group.
func Key(group string, gen uint64, uri string) string {
	return groupPrefix(group) + strconv.FormatUint(gen, 10) + ":" + generateHash(uri)
}

func groupPrefix(group string) string {
	return group + ":"
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
