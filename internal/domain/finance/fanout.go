package finance

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tourdesk/internal/core/apperror"
)

type step func(ctx context.Context) error

// read runs fn inside a read-only snapshot when one is configured, so every
// query of a report observes the same database state.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.snapshot == nil {
		return fn(ctx)
	}
	// Begin and commit failures come back unclassified.
	return apperror.FromQuery("read snapshot", s.snapshot.ReadOnly(ctx, fn))
}

// fanout runs independent reads. They run concurrently unless a snapshot is
// configured: a single transaction cannot serve parallel queries.
// The first failure cancels the rest.
func (s *Service) fanout(ctx context.Context, steps ...step) error {
	if s.snapshot != nil {
		for _, fn := range steps {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range steps {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
