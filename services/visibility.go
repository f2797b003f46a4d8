package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

// effectivelyTrashed reports whether n or any of its ancestors carries a
// trash marker, resolving parents through byID and memoizing results in
// seen. Used when the caller already holds the owner's full node set.
func effectivelyTrashed(n *models.Node, byID map[primitive.ObjectID]*models.Node, seen map[primitive.ObjectID]bool) bool {
	if v, ok := seen[n.ID]; ok {
		return v
	}
	result := false
	if n.TrashedAt != nil {
		result = true
	} else if !n.IsRoot() {
		if parent, ok := byID[*n.ParentID]; ok {
			result = effectivelyTrashed(parent, byID, seen)
		}
	}
	seen[n.ID] = result
	return result
}

// ancestorTrashed walks n's parent chain through the store and reports
// whether any ancestor is trashed. n's own marker is not consulted.
func ancestorTrashed(ctx context.Context, nodes store.NodeStore, n *models.Node) (bool, error) {
	current := n.ParentID
	for current != nil {
		parent, err := nodes.Get(ctx, n.OwnerID, *current)
		if err != nil {
			return false, fmt.Errorf("failed to resolve ancestor: %w", err)
		}
		if parent.TrashedAt != nil {
			return true, nil
		}
		current = parent.ParentID
	}
	return false, nil
}
