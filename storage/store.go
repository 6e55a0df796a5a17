// Package storage provides the key-value adapters the task list persists through.
//
// Every backend stores opaque string values under string keys. The task list
// writes one key ("tasks") holding the whole list as JSON, so backends only need
// whole-value reads and writes.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned when a key cannot be stored by a backend.
var ErrInvalidKey = errors.New("invalid storage key")

// Store is a string-keyed value store.
type Store interface {
	// Get returns the value for key. ok is false if the key has never been set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set replaces the value for key.
	Set(ctx context.Context, key, value string) error
	// Close releases any resources held by the store.
	Close() error
}
