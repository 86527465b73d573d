package ports

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by FixedStore.Load when no record exists for a key.
var ErrRecordNotFound = errors.New("fixed value not found")

// Record is a persisted fixed value.
type Record struct {
	// Key is the label of the node, for example "pricing/book.Spot".
	Key       string    `json:"key"`
	Node      string    `json:"node"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FixedStore persists the fixed values of stored nodes so they survive restarts.
type FixedStore interface {
	// Save creates or replaces the record under rec.Key.
	Save(ctx context.Context, rec Record) error

	// Load returns the record for key, or ErrRecordNotFound.
	Load(ctx context.Context, key string) (Record, error)

	// Delete removes the record for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of every stored record.
	List(ctx context.Context) ([]string, error)
}
