package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

// TreeService owns the hierarchy: folder creation, listing, rename,
// move and the delete entry point. Every mutation validates and writes
// under the owner's lock so sibling uniqueness and the cycle rule hold
// even under concurrent requests.
type TreeService struct {
	nodes     store.NodeStore
	quota     *QuotaService
	validator *Validator
	trash     *TrashService
	locks     *OwnerLocks
}

func NewTreeService(nodes store.NodeStore, quota *QuotaService, validator *Validator, trash *TrashService, locks *OwnerLocks) *TreeService {
	return &TreeService{
		nodes:     nodes,
		quota:     quota,
		validator: validator,
		trash:     trash,
		locks:     locks,
	}
}

// CreateFolder creates an empty folder under parent (nil for the root
// level). The name must be unused among the parent's active children.
func (s *TreeService) CreateFolder(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, name string) (*models.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	unlock := s.locks.Acquire(owner)
	defer unlock()

	if err := s.validator.CheckTargetFolder(ctx, owner, parent); err != nil {
		return nil, err
	}
	if err := s.validator.CheckSiblingName(ctx, owner, parent, name, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	node := &models.Node{
		OwnerID:   owner,
		ParentID:  parent,
		Name:      name,
		IsFolder:  true,
		FileType:  "folder",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.Insert(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return node, nil
}

// RegisterFile commits an uploaded file into the tree: it validates the
// target and name, reserves quota for the declared size and inserts the
// node. The content must already be stored under contentRef; on any
// failure the reservation is rolled back and the caller keeps ownership
// of the orphaned content.
func (s *TreeService) RegisterFile(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, name string, size int64, contentRef string) (*models.Node, error) {
	unlock := s.locks.Acquire(owner)
	defer unlock()

	if err := s.validator.CheckTargetFolder(ctx, owner, parent); err != nil {
		return nil, err
	}
	if err := s.validator.CheckSiblingName(ctx, owner, parent, name, primitive.NilObjectID); err != nil {
		return nil, err
	}
	if err := s.quota.Reserve(ctx, owner, size); err != nil {
		return nil, err
	}

	now := time.Now()
	node := &models.Node{
		OwnerID:    owner,
		ParentID:   parent,
		Name:       name,
		Size:       size,
		ContentRef: contentRef,
		FileType:   models.DeriveFileType(name),
		MimeType:   models.DeriveMimeType(name),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.nodes.Insert(ctx, node); err != nil {
		if relErr := s.quota.Release(ctx, owner, size); relErr != nil {
			return nil, fmt.Errorf("failed to register file: %v (quota rollback also failed: %w)", err, relErr)
		}
		return nil, fmt.Errorf("failed to register file: %w", err)
	}
	return node, nil
}

// List returns the active children of parent, folders grouped before
// files and each group sorted by name. fileType narrows the result:
// empty keeps everything, "folder" keeps folders only, any other value
// keeps files of that derived type.
func (s *TreeService) List(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, fileType string) ([]models.Node, error) {
	if err := s.validator.CheckTargetFolder(ctx, owner, parent); err != nil {
		return nil, err
	}
	if parent != nil {
		target, err := s.nodes.Get(ctx, owner, *parent)
		if err != nil {
			return nil, err
		}
		hidden, err := ancestorTrashed(ctx, s.nodes, target)
		if err != nil {
			return nil, err
		}
		if hidden {
			return nil, ErrNotFound
		}
	}

	children, err := s.nodes.Children(ctx, owner, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	result := make([]models.Node, 0, len(children))
	for _, child := range children {
		if child.TrashedAt != nil {
			continue
		}
		switch {
		case fileType == "":
		case fileType == "folder":
			if !child.IsFolder {
				continue
			}
		default:
			if child.IsFolder || child.FileType != fileType {
				continue
			}
		}
		result = append(result, child)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].IsFolder && !result[j].IsFolder
	})
	return result, nil
}

// Rename changes a node's name in place. The new name must be unused
// among the node's active siblings; a trashed sibling holding the same
// name does not block the rename.
func (s *TreeService) Rename(ctx context.Context, owner, id primitive.ObjectID, newName string) (*models.Node, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("name is required")
	}

	unlock := s.locks.Acquire(owner)
	defer unlock()

	node, err := s.activeNode(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.CheckSiblingName(ctx, owner, node.ParentID, newName, node.ID); err != nil {
		return nil, err
	}

	node.Name = newName
	node.UpdatedAt = time.Now()
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to rename node: %w", err)
	}
	return node, nil
}

// Move reparents a node. The target must be an active folder (or nil
// for the root level), must not sit inside the moved node's own subtree
// and must not already hold an active child with the same name.
func (s *TreeService) Move(ctx context.Context, owner, id primitive.ObjectID, newParent *primitive.ObjectID) (*models.Node, error) {
	unlock := s.locks.Acquire(owner)
	defer unlock()

	node, err := s.activeNode(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.CheckMove(ctx, owner, node, newParent); err != nil {
		return nil, err
	}
	if err := s.validator.CheckSiblingName(ctx, owner, newParent, node.Name, node.ID); err != nil {
		return nil, err
	}

	node.ParentID = newParent
	node.UpdatedAt = time.Now()
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to move node: %w", err)
	}
	return node, nil
}

// Get returns a single active node.
func (s *TreeService) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	return s.activeNode(ctx, owner, id)
}

// Delete removes a node: permanent purges it and its subtree outright,
// otherwise it goes to the trash.
func (s *TreeService) Delete(ctx context.Context, owner, id primitive.ObjectID, permanent bool) error {
	if permanent {
		return s.trash.Purge(ctx, owner, id)
	}
	_, err := s.trash.Trash(ctx, owner, id)
	return err
}

// activeNode loads a node and rejects it when it is trashed itself or
// hidden under a trashed ancestor.
func (s *TreeService) activeNode(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	node, err := s.nodes.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if node.TrashedAt != nil {
		return nil, ErrNotFound
	}
	hidden, err := ancestorTrashed(ctx, s.nodes, node)
	if err != nil {
		return nil, err
	}
	if hidden {
		return nil, ErrNotFound
	}
	return node, nil
}
