// Package localstore persists small blobs (the saved GitHub credentials)
// across runs.
package localstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store for small blobs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Nop stores nothing. Get always reports ErrNotFound. Used when persistence
// is disabled and in tests.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (Nop) Put(context.Context, string, []byte) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
