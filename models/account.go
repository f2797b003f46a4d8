package models

import (
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StorageAccount tracks one user's quota. UsedBytes caches the sum of
// all stored file sizes, trashed included, and must stay recomputable
// from the tree. Only purging shrinks it.
type StorageAccount struct {
	OwnerID    primitive.ObjectID `bson:"_id" json:"owner_id"`
	UsedBytes  int64              `bson:"used_bytes" json:"used_bytes"`
	LimitBytes int64              `bson:"limit_bytes" json:"limit_bytes"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// StorageSummary is the storage_info block returned alongside listings.
type StorageSummary struct {
	UsedBytes         int64   `json:"used_bytes"`
	LimitBytes        int64   `json:"limit_bytes"`
	RemainingBytes    int64   `json:"remaining_bytes"`
	UsedPercentage    float64 `json:"used_percentage"`
	UsedReadable      string  `json:"used_readable"`
	LimitReadable     string  `json:"limit_readable"`
	RemainingReadable string  `json:"remaining_readable"`
}

// Summary builds the display summary. The percentage is clamped to
// [0,100]; a zero limit is a configuration error the caller must reject
// before ever building a summary, so it is reported as fully used here
// rather than dividing by zero.
func (a *StorageAccount) Summary() StorageSummary {
	remaining := a.LimitBytes - a.UsedBytes
	if remaining < 0 {
		remaining = 0
	}

	var pct float64
	if a.LimitBytes > 0 {
		pct = float64(a.UsedBytes) / float64(a.LimitBytes) * 100
	} else {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return StorageSummary{
		UsedBytes:         a.UsedBytes,
		LimitBytes:        a.LimitBytes,
		RemainingBytes:    remaining,
		UsedPercentage:    pct,
		UsedReadable:      humanize.Bytes(uint64(a.UsedBytes)),
		LimitReadable:     humanize.Bytes(uint64(a.LimitBytes)),
		RemainingReadable: humanize.Bytes(uint64(remaining)),
	}
}
