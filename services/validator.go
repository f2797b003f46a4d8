package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

// Validator holds the structural checks every create, rename, move and
// restore must pass before the tree commits. It mutates nothing; callers
// run it while holding the owner's commit lock so every read sees one
// consistent snapshot of the tree.
type Validator struct {
	nodes           store.NodeStore
	caseInsensitive bool
}

func NewValidator(nodes store.NodeStore, caseInsensitive bool) *Validator {
	return &Validator{
		nodes:           nodes,
		caseInsensitive: caseInsensitive,
	}
}

func (v *Validator) namesEqual(a, b string) bool {
	if v.caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// CheckSiblingName fails with ErrNameConflict when an active sibling
// other than self already holds name under parent. Trashed siblings do
// not occupy the namespace.
func (v *Validator) CheckSiblingName(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, name string, self primitive.ObjectID) error {
	siblings, err := v.nodes.Children(ctx, owner, parent)
	if err != nil {
		return fmt.Errorf("failed to load siblings: %w", err)
	}

	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == self || sibling.TrashedAt != nil {
			continue
		}
		if v.namesEqual(sibling.Name, name) {
			return ErrNameConflict
		}
	}
	return nil
}

// CheckTargetFolder verifies the proposed parent exists, is a folder,
// is owned by owner and is not trashed. A nil parent is the root and is
// always valid.
func (v *Validator) CheckTargetFolder(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID) error {
	if parent == nil {
		return nil
	}

	target, err := v.nodes.Get(ctx, owner, *parent)
	if err != nil {
		return err
	}
	if !target.IsFolder || target.TrashedAt != nil {
		return ErrNotFound
	}
	return nil
}

// CheckMove rejects with ErrCyclicMove when newParent is the node
// itself or any of its descendants. The walk runs over the current tree
// state, before anything has been touched.
func (v *Validator) CheckMove(ctx context.Context, owner primitive.ObjectID, node *models.Node, newParent *primitive.ObjectID) error {
	if err := v.CheckTargetFolder(ctx, owner, newParent); err != nil {
		return err
	}
	if newParent == nil {
		return nil
	}
	if *newParent == node.ID {
		return ErrCyclicMove
	}

	// Walk from the proposed parent up to the root. Hitting the moved
	// node means the target sits inside its own subtree.
	current := newParent
	for current != nil {
		if *current == node.ID {
			return ErrCyclicMove
		}
		ancestor, err := v.nodes.Get(ctx, owner, *current)
		if err != nil {
			return fmt.Errorf("failed to walk ancestors: %w", err)
		}
		current = ancestor.ParentID
	}
	return nil
}
