package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
)

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	folder, err := env.tree.CreateFolder(ctx, env.owner, nil, "Documents")
	require.NoError(t, err)
	assert.True(t, folder.IsFolder)
	assert.Nil(t, folder.ParentID)
	assert.False(t, folder.ID.IsZero())

	nested, err := env.tree.CreateFolder(ctx, env.owner, &folder.ID, "Documents")
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *nested.ParentID)

	_, err = env.tree.CreateFolder(ctx, env.owner, nil, "Documents")
	assert.ErrorIs(t, err, ErrNameConflict)

	_, err = env.tree.CreateFolder(ctx, env.owner, nil, "   ")
	assert.Error(t, err)

	missing := primitive.NewObjectID()
	_, err = env.tree.CreateFolder(ctx, env.owner, &missing, "Orphan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFolderConcurrentSameName(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.tree.CreateFolder(ctx, env.owner, nil, "Shared")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNameConflict)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestListFoldersFirst(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	env.mkFile(t, nil, "alpha.txt", 1)
	env.mkFolder(t, nil, "zeta")
	env.mkFile(t, nil, "beta.txt", 1)
	env.mkFolder(t, nil, "acme")

	nodes, err := env.tree.List(ctx, env.owner, nil, "")
	require.NoError(t, err)
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"acme", "zeta", "alpha.txt", "beta.txt"}, names(nodes))
}

func TestListHidesTrashed(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	folder := env.mkFolder(t, nil, "Photos")
	env.mkFile(t, &folder.ID, "cat.jpg", 1)
	keep := env.mkFile(t, nil, "keep.txt", 1)

	_, err := env.trash.Trash(ctx, env.owner, folder.ID)
	require.NoError(t, err)

	nodes, err := env.tree.List(ctx, env.owner, nil, "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, keep.ID, nodes[0].ID)

	// Listing inside a trashed folder fails even though the child
	// itself carries no trash marker.
	_, err = env.tree.List(ctx, env.owner, &folder.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTypeFilter(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	env.mkFolder(t, nil, "dir")
	env.mkFile(t, nil, "pic.png", 1)
	env.mkFile(t, nil, "doc.pdf", 1)

	images, err := env.tree.List(ctx, env.owner, nil, "image")
	require.NoError(t, err)
	assert.Equal(t, []string{"pic.png"}, names(images))

	folders, err := env.tree.List(ctx, env.owner, nil, "folder")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir"}, names(folders))
}

func TestRename(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	file := env.mkFile(t, nil, "draft.txt", 1)
	env.mkFile(t, nil, "final.txt", 1)

	_, err := env.tree.Rename(ctx, env.owner, file.ID, "final.txt")
	assert.ErrorIs(t, err, ErrNameConflict)

	renamed, err := env.tree.Rename(ctx, env.owner, file.ID, "draft2.txt")
	require.NoError(t, err)
	assert.Equal(t, "draft2.txt", renamed.Name)
	assert.True(t, renamed.UpdatedAt.After(file.CreatedAt) || renamed.UpdatedAt.Equal(file.CreatedAt))
}

func TestRenameCanReuseTrashedName(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	report := env.mkFile(t, nil, "report.pdf", 1)
	other := env.mkFile(t, nil, "other.pdf", 1)

	_, err := env.trash.Trash(ctx, env.owner, report.ID)
	require.NoError(t, err)

	renamed, err := env.tree.Rename(ctx, env.owner, other.ID, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", renamed.Name)

	// The trashed original now collides, so restore must fail until
	// one of them changes name.
	_, err = env.trash.Restore(ctx, env.owner, report.ID)
	assert.ErrorIs(t, err, ErrNameConflict)
}

func TestMove(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	a := env.mkFolder(t, nil, "A")
	b := env.mkFolder(t, &a.ID, "B")
	file := env.mkFile(t, nil, "f.txt", 1)

	moved, err := env.tree.Move(ctx, env.owner, file.ID, &b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, *moved.ParentID)

	_, err = env.tree.Move(ctx, env.owner, a.ID, &b.ID)
	assert.ErrorIs(t, err, ErrCyclicMove)

	env.mkFile(t, nil, "f.txt", 1)
	_, err = env.tree.Move(ctx, env.owner, file.ID, nil)
	assert.ErrorIs(t, err, ErrNameConflict)
}

func TestDeleteRouting(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	trashMe := env.mkFile(t, nil, "a.txt", 1)
	purgeMe := env.mkFile(t, nil, "b.txt", 1)

	require.NoError(t, env.tree.Delete(ctx, env.owner, trashMe.ID, false))
	node, err := env.store.Get(ctx, env.owner, trashMe.ID)
	require.NoError(t, err)
	assert.NotNil(t, node.TrashedAt)

	require.NoError(t, env.tree.Delete(ctx, env.owner, purgeMe.ID, true))
	_, err = env.store.Get(ctx, env.owner, purgeMe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerIsolation(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	file := env.mkFile(t, nil, "secret.txt", 1)

	stranger := primitive.NewObjectID()
	_, err := env.tree.Get(ctx, stranger, file.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.tree.Rename(ctx, stranger, file.ID, "mine.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func names(nodes []models.Node) []string {
	out := make([]string, 0, len(nodes))
	for i := range nodes {
		out = append(out, nodes[i].Name)
	}
	return out
}
