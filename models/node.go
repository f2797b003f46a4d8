package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NodeState is the derived lifecycle state of a node. Purged nodes are
// removed from storage entirely, so only Active and Trashed are ever
// observable on a stored node.
type NodeState string

const (
	StateActive  NodeState = "active"
	StateTrashed NodeState = "trashed"
)

// Node is a single entry in a user's storage tree: a file or a folder.
// Files and folders share the sibling namespace under their parent.
type Node struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // nil means root
	Name       string              `bson:"name" json:"name"`
	IsFolder   bool                `bson:"is_folder" json:"is_folder"`
	Size       int64               `bson:"size" json:"size"` // 0 for folders
	ContentRef string              `bson:"content_ref,omitempty" json:"-"`
	FileType   string              `bson:"file_type,omitempty" json:"file_type,omitempty"`
	MimeType   string              `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	TrashedAt  *time.Time          `bson:"trashed_at,omitempty" json:"trashed_at,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updated_at"`
}

func (n *Node) State() NodeState {
	if n.TrashedAt != nil {
		return StateTrashed
	}
	return StateActive
}

// IsRoot reports whether the node sits directly under the owner's root.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// NodeView is the API representation of a node, matching what listing,
// search and recent endpoints return.
type NodeView struct {
	ID           primitive.ObjectID  `json:"id"`
	Name         string              `json:"name"`
	ParentID     *primitive.ObjectID `json:"parent_id,omitempty"`
	IsFolder     bool                `json:"is_folder"`
	Size         int64               `json:"size"`
	SizeReadable string              `json:"size_readable"`
	FileType     string              `json:"file_type,omitempty"`
	MimeType     string              `json:"mime_type,omitempty"`
	Icon         string              `json:"icon"`
	State        NodeState           `json:"state"`
	TrashedAt    *time.Time          `json:"trashed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	DownloadURL  string              `json:"download_url,omitempty"`
}

// View converts a node to its API shape.
func (n *Node) View() NodeView {
	v := NodeView{
		ID:           n.ID,
		Name:         n.Name,
		ParentID:     n.ParentID,
		IsFolder:     n.IsFolder,
		Size:         n.Size,
		SizeReadable: humanize.Bytes(uint64(n.Size)),
		FileType:     n.FileType,
		MimeType:     n.MimeType,
		Icon:         n.Icon(),
		State:        n.State(),
		TrashedAt:    n.TrashedAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
	if !n.IsFolder {
		v.DownloadURL = fmt.Sprintf("/api/files/%s/download", n.ID.Hex())
	}
	return v
}

// Views converts a node slice, preserving order.
func Views(nodes []Node) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for i := range nodes {
		views = append(views, nodes[i].View())
	}
	return views
}

var fileTypesByExt = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image",
	".bmp": "image", ".svg": "image", ".webp": "image",
	".pdf": "document", ".doc": "document", ".docx": "document",
	".txt": "document", ".rtf": "document",
	".xls": "spreadsheet", ".xlsx": "spreadsheet", ".csv": "spreadsheet",
	".ppt": "presentation", ".pptx": "presentation",
	".mp4": "video", ".avi": "video", ".mov": "video", ".wmv": "video", ".flv": "video",
	".mp3": "audio", ".wav": "audio", ".aac": "audio", ".flac": "audio",
}

// DeriveFileType classifies a filename by extension for display and
// filtering. Folders do not carry a file type.
func DeriveFileType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := fileTypesByExt[ext]; ok {
		return t
	}
	return "other"
}

// DeriveMimeType maps an extension to a MIME type, falling back to
// application/octet-stream.
func DeriveMimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

var iconsByType = map[string]string{
	"image":        "image",
	"document":     "description",
	"spreadsheet":  "grid_on",
	"presentation": "slideshow",
	"video":        "videocam",
	"audio":        "audiotrack",
	"other":        "insert_drive_file",
}

// Icon returns the display icon name for the node.
func (n *Node) Icon() string {
	if n.IsFolder {
		return "folder"
	}
	if icon, ok := iconsByType[n.FileType]; ok {
		return icon
	}
	return "insert_drive_file"
}
