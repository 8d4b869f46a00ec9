package scenario

import "context"

// Store is the persistent collection of scenario records. Implementations
// assign id and created_at on Insert and list newest first. Callers make
// exactly one call per user action and never retry a failed call.
type Store interface {
	// Insert persists rec and returns the id assigned to it.
	Insert(ctx context.Context, rec Record) (string, error)

	// List returns every record ordered by created_at descending.
	List(ctx context.Context) ([]Record, error)

	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Delete removes the record with the given id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
