package services

import (
	"errors"

	"stratusdrive/store"
)

// Domain outcomes. Controllers match these with errors.Is to map each
// failure to a distinct HTTP status; nothing collapses into a generic
// error.
var (
	// ErrNotFound: the referenced node is absent or not owned by the
	// caller.
	ErrNotFound = store.ErrNotFound

	// ErrNameConflict: an active sibling already holds the requested
	// name.
	ErrNameConflict = errors.New("name already exists in this location")

	// ErrCyclicMove: the move would place a folder inside itself or one
	// of its descendants.
	ErrCyclicMove = errors.New("cannot move a folder into itself or its descendants")

	// ErrQuotaExceeded: the write would exceed the storage limit.
	ErrQuotaExceeded = store.ErrQuotaExceeded

	// ErrInvalidState: the operation is illegal in the node's current
	// lifecycle state, e.g. restoring a node that is not trashed.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrContentWriteFailed: the blob store rejected or aborted the
	// content write.
	ErrContentWriteFailed = errors.New("content write failed")

	// ErrFileTooLarge: the upload exceeds the per-file size cap.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)
