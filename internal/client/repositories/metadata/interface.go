// Package metadata is the local key/value table the client keeps its
// session credentials in.
package metadata

import (
	"context"
)

// Repository stores opaque values under string keys.
//
// Get returns (nil, nil) for a missing key and a non-nil empty slice for a
// key stored with an empty value. Delete removes every listed key in one
// statement; missing keys are not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
