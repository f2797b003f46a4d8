package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratusdrive/store"
)

func TestQuotaEnforcement(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	env.mkFile(t, nil, "big.bin", 600)
	assert.Equal(t, int64(600), env.usedBytes(t))

	_, err := env.upload.Upload(ctx, env.owner, nil, "too-big.bin", bytesReader(500), 500)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The failed upload changed nothing.
	assert.Equal(t, int64(600), env.usedBytes(t))
	assert.Equal(t, 1, env.content.Len())

	env.mkFile(t, nil, "fits.bin", 400)
	assert.Equal(t, int64(1000), env.usedBytes(t))
}

func TestReserveNegative(t *testing.T) {
	env := newTestEnv(t, 1000)
	assert.Error(t, env.quota.Reserve(context.Background(), env.owner, -1))
	assert.NoError(t, env.quota.Reserve(context.Background(), env.owner, 0))
}

func TestReleaseFloorsAtZero(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	require.NoError(t, env.quota.Reserve(ctx, env.owner, 100))
	require.NoError(t, env.quota.Release(ctx, env.owner, 500))

	assert.Equal(t, int64(0), env.usedBytes(t))
}

func TestConcurrentReservations(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.quota.Reserve(ctx, env.owner, 300)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, store.ErrQuotaExceeded)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, int64(900), env.usedBytes(t))
}

func TestRecompute(t *testing.T) {
	env := newTestEnv(t, 1<<30)
	ctx := context.Background()

	folder := env.mkFolder(t, nil, "docs")
	env.mkFile(t, &folder.ID, "a.txt", 100)
	trashMe := env.mkFile(t, nil, "b.txt", 200)

	_, err := env.trash.Trash(ctx, env.owner, trashMe.ID)
	require.NoError(t, err)

	// Skew the cache, then rebuild it from the tree. Trashed files
	// still count; only purged ones do not.
	require.NoError(t, env.store.SetUsed(ctx, env.owner, 9999))

	used, err := env.quota.Recompute(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(300), used)
	assert.Equal(t, int64(300), env.usedBytes(t))
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	env.mkFile(t, nil, "a.bin", 250)

	summary, err := env.quota.Summary(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(250), summary.UsedBytes)
	assert.Equal(t, int64(1000), summary.LimitBytes)
	assert.Equal(t, int64(750), summary.RemainingBytes)
	assert.InDelta(t, 25.0, summary.UsedPercentage, 0.001)
	assert.NotEmpty(t, summary.UsedReadable)
}

func TestNewQuotaServiceRejectsBadLimit(t *testing.T) {
	memory := store.NewMemoryStore()
	_, err := NewQuotaService(memory, memory, 0)
	assert.Error(t, err)
	_, err = NewQuotaService(memory, memory, -5)
	assert.Error(t, err)
}
