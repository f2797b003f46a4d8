package services

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OwnerLocks serializes tree mutations per owner. Every commit that
// pairs a validation with a write takes the owner's lock first, so two
// requests for the same user can never both pass validation and then
// both write. The tree and trash services share one instance.
type OwnerLocks struct {
	locks sync.Map
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{}
}

// Acquire locks the given owner's mutex and returns the release func.
func (l *OwnerLocks) Acquire(owner primitive.ObjectID) func() {
	v, _ := l.locks.LoadOrStore(owner, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
