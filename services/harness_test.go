package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/store"
)

const testRetention = 720 * time.Hour

// testEnv wires the full service graph over the in-memory stores.
type testEnv struct {
	store   *store.MemoryStore
	content *MemoryContentStore
	quota   *QuotaService
	tree    *TreeService
	trash   *TrashService
	search  *SearchService
	upload  *UploadService
	owner   primitive.ObjectID
}

func newTestEnv(t *testing.T, limitBytes int64) *testEnv {
	t.Helper()

	memory := store.NewMemoryStore()
	content := NewMemoryContentStore()
	validator := NewValidator(memory, false)
	locks := NewOwnerLocks()

	quota, err := NewQuotaService(memory, memory, limitBytes)
	require.NoError(t, err)

	trash := NewTrashService(memory, quota, content, validator, locks, testRetention)
	tree := NewTreeService(memory, quota, validator, trash, locks)

	return &testEnv{
		store:   memory,
		content: content,
		quota:   quota,
		tree:    tree,
		trash:   trash,
		search:  NewSearchService(memory),
		upload:  NewUploadService(tree, quota, content, 0),
		owner:   primitive.NewObjectID(),
	}
}

func (e *testEnv) mkFolder(t *testing.T, parent *primitive.ObjectID, name string) *models.Node {
	t.Helper()
	folder, err := e.tree.CreateFolder(context.Background(), e.owner, parent, name)
	require.NoError(t, err)
	return folder
}

func (e *testEnv) mkFile(t *testing.T, parent *primitive.ObjectID, name string, size int64) *models.Node {
	t.Helper()
	file, err := e.upload.Upload(context.Background(), e.owner, parent, name, strings.NewReader(strings.Repeat("x", int(size))), size)
	require.NoError(t, err)
	return file
}

func (e *testEnv) usedBytes(t *testing.T) int64 {
	t.Helper()
	summary, err := e.quota.Summary(context.Background(), e.owner)
	require.NoError(t, err)
	return summary.UsedBytes
}

func bytesReader(n int) io.Reader {
	return strings.NewReader(strings.Repeat("x", n))
}

// failingContentStore rejects every write, for upload failure paths.
type failingContentStore struct{}

func (failingContentStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	return 0, fmt.Errorf("backend unavailable")
}

func (failingContentStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func (failingContentStore) Delete(ctx context.Context, key string) error {
	return nil
}
