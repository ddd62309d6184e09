package storage

import "context"

// SlotStore persists opaque credential strings under fixed slot keys. The session
// store is its only caller; implementations hold no knowledge of what a
// credential means.
//
// Get returns sentinel.ErrNotFound when the slot is empty. Delete of an empty slot
// is not an error.
type SlotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
