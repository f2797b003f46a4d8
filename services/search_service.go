package services

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

const DefaultRecentLimit = 20

// SearchService answers name search and recency queries over the
// owner's active nodes. Both read committed tree state, so a rename or
// trash is reflected as soon as its request returns.
type SearchService struct {
	nodes store.NodeStore
}

func NewSearchService(nodes store.NodeStore) *SearchService {
	return &SearchService{nodes: nodes}
}

// Search returns active nodes whose name contains query, matched
// case-insensitively. An empty query matches everything. Nodes inside
// trashed subtrees never appear, even though their own trash marker is
// unset.
func (s *SearchService) Search(ctx context.Context, owner primitive.ObjectID, query string) ([]models.Node, error) {
	matches, err := s.nodes.Search(ctx, owner, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}
	return s.dropHidden(ctx, owner, matches)
}

// Recent returns the owner's active files ordered by most recent
// update. limit caps the result; zero or negative means the default.
func (s *SearchService) Recent(ctx context.Context, owner primitive.ObjectID, limit int) ([]models.Node, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	nodes, err := s.nodes.OwnedBy(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	seen := make(map[primitive.ObjectID]bool, len(nodes))
	files := make([]models.Node, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if n.IsFolder || effectivelyTrashed(n, byID, seen) {
			continue
		}
		files = append(files, *n)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UpdatedAt.After(files[j].UpdatedAt)
	})
	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// dropHidden removes nodes that sit under a trashed ancestor. The
// store already excluded nodes trashed in their own right.
func (s *SearchService) dropHidden(ctx context.Context, owner primitive.ObjectID, matches []models.Node) ([]models.Node, error) {
	if len(matches) == 0 {
		return matches, nil
	}

	all, err := s.nodes.OwnedBy(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Node, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	seen := make(map[primitive.ObjectID]bool, len(all))
	visible := make([]models.Node, 0, len(matches))
	for i := range matches {
		n, ok := byID[matches[i].ID]
		if !ok || effectivelyTrashed(n, byID, seen) {
			continue
		}
		visible = append(visible, matches[i])
	}
	return visible, nil
}
