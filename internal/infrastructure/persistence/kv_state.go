package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warrantyhub/backend/internal/infrastructure/persistence/kv"
)

// Keys of the persisted state layout
const (
	KeyProducts              = "products"
	KeyProductInstances      = "productInstances"
	KeyWarrantyRegistrations = "warrantyRegistrations"
	KeyAdmins                = "admins"
	KeyAdminSession          = "adminSession"
)

// loadJSON decodes the document under key into dst. A missing key leaves dst untouched.
func loadJSON(ctx context.Context, store kv.Store, key string, dst any) error {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// putJSON encodes v into a put op for key
func putJSON(key string, v any) (kv.Op, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return kv.Op{}, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Put(key, raw), nil
}

// nonNil keeps empty collections encoded as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
