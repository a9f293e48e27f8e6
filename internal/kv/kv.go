// Package kv provides the narrow key-value store contract backing the
// embedding cache, with a rueidis client for Redis and Valkey.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound reports a missing key.
var ErrKeyNotFound = errors.New("kv: key not found")

// Op constants map to command names for error context.
const (
	OpGet  = "GET"
	OpSet  = "SET"
	OpPing = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Store is the key-value facade. Consumers depend on narrow slices of it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
