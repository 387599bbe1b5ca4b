// Package kv provides the durable key-value layer behind the catalog and
// admin directory. A Store holds whole JSON documents under a few fixed keys
// and writes any number of them in one atomic Apply.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been written
var ErrKeyNotFound = errors.New("kv: key not found")

// Op is a single write inside an atomic batch
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Put returns an op that stores value under key
func Put(key string, value []byte) Op {
	return Op{Key: key, Value: value}
}

// Del returns an op that removes key
func Del(key string) Op {
	return Op{Key: key, Delete: true}
}

// Store is a durable key-value store with atomic multi-key writes
type Store interface {
	// Get returns the value for key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Apply performs all ops or none of them
	Apply(ctx context.Context, ops ...Op) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}
