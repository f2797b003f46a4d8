package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

// QuotaService is the accountant for per-user storage. Reservations are
// issued inside the tree commit path so no node exists without counted
// quota and no quota is counted without a node.
type QuotaService struct {
	accounts     store.AccountStore
	nodes        store.NodeStore
	defaultLimit int64
}

func NewQuotaService(accounts store.AccountStore, nodes store.NodeStore, defaultLimitBytes int64) (*QuotaService, error) {
	if defaultLimitBytes <= 0 {
		return nil, fmt.Errorf("storage limit must be positive, got %d", defaultLimitBytes)
	}
	return &QuotaService{
		accounts:     accounts,
		nodes:        nodes,
		defaultLimit: defaultLimitBytes,
	}, nil
}

// Ensure returns the owner's account, creating it with the default
// limit on first contact.
func (s *QuotaService) Ensure(ctx context.Context, owner primitive.ObjectID) (*models.StorageAccount, error) {
	acct, err := s.accounts.Ensure(ctx, owner, s.defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure storage account: %w", err)
	}
	return acct, nil
}

// Reserve charges bytes against the owner's quota. Returns
// ErrQuotaExceeded without changing anything when the limit would be
// passed.
func (s *QuotaService) Reserve(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("cannot reserve negative bytes: %d", bytes)
	}
	if bytes == 0 {
		return nil
	}
	if _, err := s.Ensure(ctx, owner); err != nil {
		return err
	}
	return s.accounts.Reserve(ctx, owner, bytes)
}

// Release returns bytes to the owner's quota. Never fails on
// underflow; the store floors used_bytes at zero.
func (s *QuotaService) Release(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	if _, err := s.Ensure(ctx, owner); err != nil {
		return err
	}
	return s.accounts.Release(ctx, owner, bytes)
}

// HasHeadroom reports whether bytes would fit right now. It is an
// optimistic pre-check only; the authoritative check is the Reserve
// inside the commit.
func (s *QuotaService) HasHeadroom(ctx context.Context, owner primitive.ObjectID, bytes int64) (bool, error) {
	acct, err := s.Ensure(ctx, owner)
	if err != nil {
		return false, err
	}
	return acct.UsedBytes+bytes <= acct.LimitBytes, nil
}

// Summary returns the storage_info block shown with listings.
func (s *QuotaService) Summary(ctx context.Context, owner primitive.ObjectID) (*models.StorageSummary, error) {
	acct, err := s.Ensure(ctx, owner)
	if err != nil {
		return nil, err
	}
	summary := acct.Summary()
	return &summary, nil
}

// Recompute rebuilds used_bytes from the actual tree: the sum of sizes
// of every file node still in the store. Trashed files keep occupying
// quota until purged, so only purging changes what this sum covers.
func (s *QuotaService) Recompute(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	nodes, err := s.nodes.OwnedBy(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to load nodes: %w", err)
	}

	var used int64
	for i := range nodes {
		if !nodes[i].IsFolder {
			used += nodes[i].Size
		}
	}

	if _, err := s.Ensure(ctx, owner); err != nil {
		return 0, err
	}
	if err := s.accounts.SetUsed(ctx, owner, used); err != nil {
		return 0, fmt.Errorf("failed to store recomputed usage: %w", err)
	}
	return used, nil
}
