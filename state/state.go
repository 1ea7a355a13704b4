// Package state provides the durable key-value storage ftrack keeps between
// runs: the saved session and the client sort preference. Values are opaque
// JSON documents; absence is reported with ok=false, never as an error.
package state

import (
	"context"
	"encoding/json"
)

// Store is a durable key-value backend.
type Store interface {
	// Get returns the raw value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pather is implemented by backends that live in a single local file.
type Pather interface {
	Path() string
}

// GetJSON decodes the value under key into v. ok is false when the key is
// absent; a decode failure is returned as an error so callers can decide to
// treat it as absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}
