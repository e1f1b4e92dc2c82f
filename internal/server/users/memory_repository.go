package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RileyParsons/plateful/internal/common"
)

// MemoryRepository is an in-process Repository used by tests and the "memory"
// storage driver. All operations are guarded by one mutex, which also makes
// check-then-insert atomic here.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	byReset map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		byReset: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return nil, common.ErrEmailTaken
	}

	clone := *user
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = clone.ID
	return user, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) GetByResetTokenHash(_ context.Context, tokenHash string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byReset[tokenHash]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.lookup(id)
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return common.ErrNotFound
	}
	user.HashedPassword = newHash
	return nil
}

func (r *MemoryRepository) SetResetToken(_ context.Context, userID, tokenHash string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return common.ErrNotFound
	}

	if user.ResetTokenHash != "" {
		delete(r.byReset, user.ResetTokenHash)
	}
	user.ResetTokenHash = tokenHash
	user.ResetTokenExpiry = expiry
	r.byReset[tokenHash] = userID
	return nil
}

func (r *MemoryRepository) ClearResetToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return common.ErrNotFound
	}

	if user.ResetTokenHash != "" {
		delete(r.byReset, user.ResetTokenHash)
	}
	user.ResetTokenHash = ""
	user.ResetTokenExpiry = time.Time{}
	return nil
}

func (r *MemoryRepository) List(_ context.Context, offset, limit int) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		clone := *u
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	return paginate(all, offset, limit), nil
}

// lookup returns a copy so callers never mutate the stored record directly.
func (r *MemoryRepository) lookup(id string) (*User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
