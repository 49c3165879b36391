// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// ReadOnlyManager runs fn in a read-only transaction. Every query issued with the
// context passed to fn observes the same database snapshot.
type ReadOnlyManager interface {
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough runs fn directly, without a transaction.
type Passthrough struct{}

// ReadOnly implements ReadOnlyManager.
func (Passthrough) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
