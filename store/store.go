// Package store persists storage-tree nodes and per-user quota accounts.
// Two backends exist: Mongo for production and an in-memory map store
// used by tests and the memory storage backend.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
)

var (
	// ErrNotFound is returned when a node or account does not exist or
	// is not owned by the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded is returned by Reserve when the requested bytes
	// would push used_bytes past the account limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// NodeStore holds the raw node records. It knows nothing about tree
// invariants; those are enforced by the services that own the commit
// path.
type NodeStore interface {
	Insert(ctx context.Context, n *models.Node) error
	Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error)
	Update(ctx context.Context, n *models.Node) error
	Remove(ctx context.Context, owner, id primitive.ObjectID) error

	// Children returns all non-purged direct children of parent
	// (nil parent means root), trashed included.
	Children(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID) ([]models.Node, error)

	// OwnedBy returns every non-purged node of the owner.
	OwnedBy(ctx context.Context, owner primitive.ObjectID) ([]models.Node, error)

	// TrashedBefore returns nodes across all owners whose trash marker
	// is at or before cutoff, for retention-driven cleanup.
	TrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Node, error)

	// Search returns the owner's non-trashed nodes whose name contains
	// query, case-insensitively. It does not resolve trashed ancestors;
	// the search service filters those out.
	Search(ctx context.Context, owner primitive.ObjectID, query string) ([]models.Node, error)
}

// AccountStore holds quota accounts. Reserve must be atomic: a
// concurrent pair of reservations that together exceed the limit must
// not both succeed.
type AccountStore interface {
	Account(ctx context.Context, owner primitive.ObjectID) (*models.StorageAccount, error)

	// Ensure creates the account with the given limit if it does not
	// exist yet and returns it.
	Ensure(ctx context.Context, owner primitive.ObjectID, limitBytes int64) (*models.StorageAccount, error)

	Reserve(ctx context.Context, owner primitive.ObjectID, bytes int64) error
	Release(ctx context.Context, owner primitive.ObjectID, bytes int64) error

	// SetUsed overwrites used_bytes, used when recomputing the cache
	// from the tree.
	SetUsed(ctx context.Context, owner primitive.ObjectID, used int64) error
}
