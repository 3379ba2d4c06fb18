package profile

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

// Store is the durable profile record store, keyed by identity id.
// Merge performs a field-level shallow merge: only the given fields
// change, concurrent non-overlapping writes both survive.
type Store interface {
	Get(ctx context.Context, id string) (UserProfile, error)
	Put(ctx context.Context, p UserProfile) error
	Merge(ctx context.Context, id string, fields map[string]any) error
	List(ctx context.Context) ([]UserProfile, error)
}
