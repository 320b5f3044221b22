package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
)

// MemoryRepository keeps users in process memory. It enforces the same
// uniqueness rules as the database backends.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.User
	byEmail    map[string]string
	byUserName map[string]string
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.User),
		byEmail:    make(map[string]string),
		byUserName: make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u := prepareNew(user, r.now())

	if _, ok := r.byID[u.ID]; ok {
		return nil, common.ErrorDuplicateKey
	}
	if err := r.checkUniqueLocked(u); err != nil {
		return nil, err
	}

	r.putLocked(u)
	return u.Clone(), nil
}

func (r *MemoryRepository) GetUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.byEmail[email]; ok {
		return r.byID[id].Clone(), nil
	}
	if id, ok := r.byUserName[username]; ok {
		return r.byID[id].Clone(), nil
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := r.checkUniqueLocked(user); err != nil {
		return nil, err
	}

	u := user.Clone()
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = r.now()

	delete(r.byEmail, old.Email)
	delete(r.byUserName, old.UserName)
	r.putLocked(u)

	return u.Clone(), nil
}

// Count returns the number of stored users.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// checkUniqueLocked fails when email or username belongs to a different
// user than u.
func (r *MemoryRepository) checkUniqueLocked(u *models.User) error {
	if id, ok := r.byEmail[u.Email]; ok && id != u.ID {
		return common.ErrorDuplicateKey
	}
	if id, ok := r.byUserName[u.UserName]; ok && id != u.ID {
		return common.ErrorDuplicateKey
	}
	return nil
}

func (r *MemoryRepository) putLocked(u *models.User) {
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byUserName[u.UserName] = u.ID
}

var _ Repository = (*MemoryRepository)(nil)
