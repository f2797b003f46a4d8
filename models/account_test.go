package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageSummary(t *testing.T) {
	acct := StorageAccount{UsedBytes: 250, LimitBytes: 1000}
	s := acct.Summary()

	assert.Equal(t, int64(250), s.UsedBytes)
	assert.Equal(t, int64(750), s.RemainingBytes)
	assert.InDelta(t, 25.0, s.UsedPercentage, 0.001)
	assert.NotEmpty(t, s.UsedReadable)
	assert.NotEmpty(t, s.LimitReadable)
}

func TestStorageSummaryClamping(t *testing.T) {
	over := StorageAccount{UsedBytes: 1500, LimitBytes: 1000}
	s := over.Summary()
	assert.Equal(t, int64(0), s.RemainingBytes)
	assert.Equal(t, 100.0, s.UsedPercentage)

	zero := StorageAccount{UsedBytes: 0, LimitBytes: 0}
	assert.Equal(t, 100.0, zero.Summary().UsedPercentage)
}
