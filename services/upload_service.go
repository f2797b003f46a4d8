package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/models"
	"stratusdrive/utils"
)

// UploadService coordinates uploads across the content store, the
// quota and the tree. Content is streamed first, outside any lock;
// only the final commit of the node happens under the owner's lock.
// Any failure after the stream deletes the orphaned content again.
type UploadService struct {
	tree        *TreeService
	quota       *QuotaService
	content     ContentStore
	maxFileSize int64
}

func NewUploadService(tree *TreeService, quota *QuotaService, content ContentStore, maxFileSize int64) *UploadService {
	return &UploadService{
		tree:        tree,
		quota:       quota,
		content:     content,
		maxFileSize: maxFileSize,
	}
}

// Upload stores r's content and commits a file node for it under
// parent. declaredSize is the client's size claim and is used only for
// the cheap up-front checks; the committed size is what was actually
// streamed. Pass a negative declaredSize when the client did not send
// one.
func (s *UploadService) Upload(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, name string, r io.Reader, declaredSize int64) (*models.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if s.maxFileSize > 0 && declaredSize > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	// Fail fast before streaming anything. The binding reservation
	// happens at commit, so this can pass and the commit still fail
	// under concurrency.
	if declaredSize > 0 {
		ok, err := s.quota.HasHeadroom(ctx, owner, declaredSize)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrQuotaExceeded
		}
	}

	key := fmt.Sprintf("users/%s/%s", owner.Hex(), uuid.NewString())

	reader := r
	if s.maxFileSize > 0 {
		reader = io.LimitReader(r, s.maxFileSize+1)
	}
	written, err := s.content.Put(ctx, key, reader)
	if err != nil {
		s.discard(key)
		return nil, fmt.Errorf("%w: %v", ErrContentWriteFailed, err)
	}
	if err := ctx.Err(); err != nil {
		s.discard(key)
		return nil, err
	}
	if s.maxFileSize > 0 && written > s.maxFileSize {
		s.discard(key)
		return nil, ErrFileTooLarge
	}

	node, err := s.tree.RegisterFile(ctx, owner, parent, name, written, key)
	if err != nil {
		s.discard(key)
		return nil, err
	}
	return node, nil
}

// Download returns the node and a reader over its content. Folders
// have no content to download.
func (s *UploadService) Download(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, io.ReadCloser, error) {
	node, err := s.tree.Get(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder {
		return nil, nil, ErrInvalidState
	}

	rc, err := s.content.Open(ctx, node.ContentRef)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open content: %w", err)
	}
	return node, rc, nil
}

// discard removes content that never made it into the tree. It runs on
// failure paths where the request context may already be cancelled, so
// it uses a fresh one.
func (s *UploadService) discard(key string) {
	if err := s.content.Delete(context.Background(), key); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to clean up orphaned content %s: %v", key, err))
	}
}
