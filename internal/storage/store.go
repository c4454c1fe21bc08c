package storage

import "context"

// Keys under which the core persists its state.
const (
	CartKey   = "vr-store-cart"
	OrdersKey = "vr-store-orders"
)

// Store is a small string key-value contract. Any call may fail (quota,
// availability, I/O); callers catch the error at the boundary and keep their
// in-memory state authoritative.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// StorageError wraps an underlying adapter failure with the operation and
// key it happened on.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
