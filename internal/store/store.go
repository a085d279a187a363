// Package store defines the document-store contract the engines are written
// against, plus the query descriptor shared by its implementations. Two
// implementations exist: a PostgreSQL-backed store (jsonb documents) and an
// in-memory store used by tests and the seed tooling.
package store

import (
	"context"
	"errors"
)

// Collection names. These are the only tables the postgres store will touch.
const (
	CollectionProducts = "products"
	CollectionUsers    = "users"
)

var (
	// ErrNoDocument is returned when an id does not resolve to a document.
	ErrNoDocument = errors.New("store: no document")

	// ErrRevMismatch is returned by UpdateByID when the document was modified
	// since it was loaded. Callers reload and retry.
	ErrRevMismatch = errors.New("store: revision mismatch")

	// ErrDuplicate is returned by Insert when a uniqueness constraint on the
	// collection is violated.
	ErrDuplicate = errors.New("store: duplicate document")
)

// Meta holds store-managed identity and revision for a stored document.
// Domain types embed it; the revision never leaves the process.
type Meta struct {
	ID  string `json:"id"`
	Rev int64  `json:"-"`
}

// DocumentMeta returns the store-managed metadata of the document.
func (m *Meta) DocumentMeta() *Meta { return m }

// Document is anything that embeds Meta.
type Document interface {
	DocumentMeta() *Meta
}

// Collection is a single named collection of documents of one type.
//
// UpdateByID is a compare-and-set: it replaces the document only if the
// stored revision still matches doc's revision, so read-modify-write cycles
// over the same document cannot silently lose each other's writes.
type Collection[T Document] interface {
	// Find returns documents matching the query, ordered, skipped and limited
	// as the query describes. A Limit <= 0 means no limit.
	Find(ctx context.Context, q Query) ([]T, error)

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, f Filter) (int64, error)

	// FindByID returns the document with the given id, or ErrNoDocument.
	FindByID(ctx context.Context, id string) (T, error)

	// Insert stores a new document, assigning its id and initial revision.
	Insert(ctx context.Context, doc T) (T, error)

	// UpdateByID replaces the document identified by doc's id if the stored
	// revision matches doc's revision. Returns the document with its new
	// revision, ErrNoDocument if absent, or ErrRevMismatch on a stale read.
	UpdateByID(ctx context.Context, doc T) (T, error)

	// DeleteByID removes the document, reporting whether anything was deleted.
	DeleteByID(ctx context.Context, id string) (bool, error)
}
