package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrashEntry is the trash-listing view of a trash root: a trashed node
// whose ancestors are all active. Descendants of a trashed folder are
// implicitly trashed and not listed separately.
type TrashEntry struct {
	NodeID      primitive.ObjectID `json:"node_id"`
	Name        string             `json:"name"`
	IsFolder    bool               `json:"is_folder"`
	Size        int64              `json:"size"`
	TrashedAt   time.Time          `json:"trashed_at"`
	AutoPurgeAt time.Time          `json:"auto_purge_at"`
}
