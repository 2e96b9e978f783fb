package domain

import "context"

// KVStore is the durable string-keyed store used for local persistence.
// Get reports (value, found, error); a missing key is not an error.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
