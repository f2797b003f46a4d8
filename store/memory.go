package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
)

// MemoryStore keeps nodes and accounts in maps guarded by a single
// RWMutex. It backs the memory storage backend and the test suite.
type MemoryStore struct {
	mu       sync.RWMutex
	nodes    map[primitive.ObjectID]models.Node
	accounts map[primitive.ObjectID]models.StorageAccount
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:    make(map[primitive.ObjectID]models.Node),
		accounts: make(map[primitive.ObjectID]models.StorageAccount),
	}
}

func (m *MemoryStore) Insert(ctx context.Context, n *models.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	m.nodes[n.ID] = *n
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok || n.OwnerID != owner {
		return nil, ErrNotFound
	}
	node := n
	return &node, nil
}

func (m *MemoryStore) Update(ctx context.Context, n *models.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nodes[n.ID]
	if !ok || existing.OwnerID != n.OwnerID {
		return ErrNotFound
	}
	m.nodes[n.ID] = *n
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok || n.OwnerID != owner {
		return ErrNotFound
	}
	delete(m.nodes, id)
	return nil
}

func (m *MemoryStore) Children(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Node
	for _, n := range m.nodes {
		if n.OwnerID != owner {
			continue
		}
		if sameParent(n.ParentID, parent) {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryStore) OwnedBy(ctx context.Context, owner primitive.ObjectID) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Node
	for _, n := range m.nodes {
		if n.OwnerID == owner {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryStore) TrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Node
	for _, n := range m.nodes {
		if n.TrashedAt != nil && !n.TrashedAt.After(cutoff) {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryStore) Search(ctx context.Context, owner primitive.ObjectID, query string) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	query = strings.ToLower(query)
	var out []models.Node
	for _, n := range m.nodes {
		if n.OwnerID != owner || n.TrashedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(n.Name), query) {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryStore) Ensure(ctx context.Context, owner primitive.ObjectID, limitBytes int64) (*models.StorageAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[owner]
	if !ok {
		acct = models.StorageAccount{
			OwnerID:    owner,
			UsedBytes:  0,
			LimitBytes: limitBytes,
			UpdatedAt:  time.Now(),
		}
		m.accounts[owner] = acct
	}
	out := acct
	return &out, nil
}

func (m *MemoryStore) Account(ctx context.Context, owner primitive.ObjectID) (*models.StorageAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[owner]
	if !ok {
		return nil, ErrNotFound
	}
	out := acct
	return &out, nil
}

func (m *MemoryStore) Reserve(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[owner]
	if !ok {
		return ErrNotFound
	}
	if acct.UsedBytes+bytes > acct.LimitBytes {
		return ErrQuotaExceeded
	}
	acct.UsedBytes += bytes
	acct.UpdatedAt = time.Now()
	m.accounts[owner] = acct
	return nil
}

func (m *MemoryStore) Release(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[owner]
	if !ok {
		return ErrNotFound
	}
	acct.UsedBytes -= bytes
	if acct.UsedBytes < 0 {
		acct.UsedBytes = 0
	}
	acct.UpdatedAt = time.Now()
	m.accounts[owner] = acct
	return nil
}

func (m *MemoryStore) SetUsed(ctx context.Context, owner primitive.ObjectID, used int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[owner]
	if !ok {
		return ErrNotFound
	}
	acct.UsedBytes = used
	acct.UpdatedAt = time.Now()
	m.accounts[owner] = acct
	return nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortByName(nodes []models.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID.Hex() < nodes[j].ID.Hex()
	})
}
