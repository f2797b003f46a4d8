package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
	"stratusdrive/utils"
)

// TrashService runs the soft-delete lifecycle: trashing marks a single
// node and hides its whole subtree, restore clears the marker, purge
// removes a subtree for good and gives the bytes back to the quota.
type TrashService struct {
	nodes     store.NodeStore
	quota     *QuotaService
	content   ContentStore
	validator *Validator
	locks     *OwnerLocks
	retention time.Duration
}

func NewTrashService(nodes store.NodeStore, quota *QuotaService, content ContentStore, validator *Validator, locks *OwnerLocks, retention time.Duration) *TrashService {
	return &TrashService{
		nodes:     nodes,
		quota:     quota,
		content:   content,
		validator: validator,
		locks:     locks,
		retention: retention,
	}
}

// Trash marks a node as trashed. Descendants are not touched; they are
// hidden because their ancestor carries the marker.
func (s *TrashService) Trash(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	unlock := s.locks.Acquire(owner)
	defer unlock()

	node, err := s.nodes.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if node.TrashedAt != nil {
		return nil, ErrInvalidState
	}
	hidden, err := ancestorTrashed(ctx, s.nodes, node)
	if err != nil {
		return nil, err
	}
	if hidden {
		return nil, ErrNotFound
	}

	now := time.Now()
	node.TrashedAt = &now
	node.UpdatedAt = now
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to trash node: %w", err)
	}
	return node, nil
}

// Restore clears a node's trash marker and puts it back at its old
// parent. The old name must still be free among the parent's active
// children. A node restored under a still-trashed ancestor stays
// hidden until that ancestor is restored too.
func (s *TrashService) Restore(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	unlock := s.locks.Acquire(owner)
	defer unlock()

	node, err := s.nodes.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if node.TrashedAt == nil {
		return nil, ErrInvalidState
	}
	if err := s.validator.CheckSiblingName(ctx, owner, node.ParentID, node.Name, node.ID); err != nil {
		return nil, err
	}

	node.TrashedAt = nil
	node.UpdatedAt = time.Now()
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to restore node: %w", err)
	}
	return node, nil
}

// Purge permanently removes a node and everything below it, releasing
// quota for every file and deleting its content. Purging an id that no
// longer exists succeeds, so retries of an interrupted purge are safe.
func (s *TrashService) Purge(ctx context.Context, owner, id primitive.ObjectID) error {
	unlock := s.locks.Acquire(owner)
	defer unlock()

	node, err := s.nodes.Get(ctx, owner, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.purgeSubtree(ctx, node)
	return err
}

// ListTrash returns the owner's trash roots: trashed nodes whose parent
// is not itself inside a trashed subtree. Descendants of a trashed
// folder are covered by their root and not listed separately. Entries
// are ordered most recently trashed first.
func (s *TrashService) ListTrash(ctx context.Context, owner primitive.ObjectID) ([]models.TrashEntry, error) {
	nodes, err := s.nodes.OwnedBy(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	seen := make(map[primitive.ObjectID]bool, len(nodes))
	var entries []models.TrashEntry
	for i := range nodes {
		n := &nodes[i]
		if n.TrashedAt == nil {
			continue
		}
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok && effectivelyTrashed(parent, byID, seen) {
				continue
			}
		}
		entries = append(entries, models.TrashEntry{
			NodeID:      n.ID,
			Name:        n.Name,
			IsFolder:    n.IsFolder,
			Size:        n.Size,
			TrashedAt:   *n.TrashedAt,
			AutoPurgeAt: n.TrashedAt.Add(s.retention),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TrashedAt.After(entries[j].TrashedAt)
	})
	return entries, nil
}

// EmptyTrash purges every trash root of the owner and returns the
// number of nodes removed, descendants included.
func (s *TrashService) EmptyTrash(ctx context.Context, owner primitive.ObjectID) (int, error) {
	roots, err := s.ListTrash(ctx, owner)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Acquire(owner)
	defer unlock()

	removed := 0
	for _, entry := range roots {
		node, err := s.nodes.Get(ctx, owner, entry.NodeID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		count, err := s.purgeSubtree(ctx, node)
		removed += count
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// PurgeExpired removes every trashed node older than the retention
// window, across all owners. The trash cleanup job calls this on a
// timer.
func (s *TrashService) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.retention)
	expired, err := s.nodes.TrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired trash: %w", err)
	}

	removed := 0
	for i := range expired {
		n := &expired[i]
		unlock := s.locks.Acquire(n.OwnerID)
		node, err := s.nodes.Get(ctx, n.OwnerID, n.ID)
		if errors.Is(err, ErrNotFound) {
			unlock()
			continue
		}
		if err != nil {
			unlock()
			return removed, err
		}
		count, err := s.purgeSubtree(ctx, node)
		unlock()
		removed += count
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// purgeSubtree removes node and all its descendants, children before
// parents, and returns how many nodes were removed. Quota is released
// per file as it goes, so an interrupted purge leaves the counter
// consistent with what actually remains.
func (s *TrashService) purgeSubtree(ctx context.Context, node *models.Node) (int, error) {
	removed := 0
	if node.IsFolder {
		children, err := s.nodes.Children(ctx, node.OwnerID, &node.ID)
		if err != nil {
			return removed, fmt.Errorf("failed to list children for purge: %w", err)
		}
		for i := range children {
			count, err := s.purgeSubtree(ctx, &children[i])
			removed += count
			if err != nil {
				return removed, err
			}
		}
	}

	if !node.IsFolder {
		if node.ContentRef != "" {
			if err := s.content.Delete(ctx, node.ContentRef); err != nil {
				utils.LogWarning(fmt.Sprintf("failed to delete content %s: %v", node.ContentRef, err))
			}
		}
		if err := s.quota.Release(ctx, node.OwnerID, node.Size); err != nil {
			return removed, fmt.Errorf("failed to release quota: %w", err)
		}
	}

	if err := s.nodes.Remove(ctx, node.OwnerID, node.ID); err != nil {
		return removed, fmt.Errorf("failed to remove node: %w", err)
	}
	return removed + 1, nil
}
