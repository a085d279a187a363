// Package service implements the catalog, review, cart and account engines
// on top of the document store.
package service

import (
	"context"
	"errors"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/store"
)

// casAttempts bounds retries of a read-modify-write cycle when the document
// was concurrently updated between the load and the compare-and-set.
const casAttempts = 3

// mutateDocument loads a document, applies fn to it and persists it back with
// the store's revision check, retrying on revision conflicts. fn must be safe
// to call more than once. notFound is returned when the id does not resolve.
func mutateDocument[T store.Document](
	ctx context.Context,
	c store.Collection[T],
	id string,
	notFound error,
	fn func(T) error,
) (T, error) {
	var zero T
	for attempt := 0; attempt < casAttempts; attempt++ {
		doc, err := c.FindByID(ctx, id)
		if errors.Is(err, store.ErrNoDocument) {
			return zero, notFound
		}
		if err != nil {
			return zero, domain.Internal(err, "store.load", "failed to load document")
		}

		if err := fn(doc); err != nil {
			return zero, err
		}

		updated, err := c.UpdateByID(ctx, doc)
		if errors.Is(err, store.ErrRevMismatch) {
			continue
		}
		if errors.Is(err, store.ErrNoDocument) {
			return zero, notFound
		}
		if err != nil {
			return zero, domain.Internal(err, "store.update", "failed to update document")
		}
		return updated, nil
	}
	return zero, domain.Internal(store.ErrRevMismatch, "store.update", "document update contention")
}
