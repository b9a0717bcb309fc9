// Package snapshot persists diagnostic JSON dumps of the in-memory caches.
// Snapshots exist for external inspection only; nothing reads them back at
// startup and they are not part of the reconciliation contract.
package snapshot

import "context"

// Store writes and reads named snapshots.
type Store interface {
	// Save serializes v as pretty-printed JSON under the given name,
	// replacing any previous snapshot with that name.
	Save(ctx context.Context, name string, v any) error

	// Load returns the raw JSON of a named snapshot.
	// Returns an error satisfying IsNotFound if no such snapshot exists.
	Load(ctx context.Context, name string) ([]byte, error)

	// Names lists the snapshots currently stored, sorted.
	Names(ctx context.Context) ([]string, error)
}

// Discard is a Store that drops every write. Used when no snapshot backend
// is configured.
type Discard struct{}

func (Discard) Save(context.Context, string, any) error { return nil }

func (Discard) Load(context.Context, string) ([]byte, error) { return nil, errNotFound }

func (Discard) Names(context.Context) ([]string, error) { return nil, nil }
