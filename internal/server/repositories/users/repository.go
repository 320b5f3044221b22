// Package users is the credential store: user records keyed by id with
// unique email and username.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/google/uuid"
)

// Repository is implemented by every store backend. Lookups are exact and
// case-sensitive. Missing records yield common.ErrorNotFound, uniqueness
// conflicts on email or username yield common.ErrorDuplicateKey.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// Update replaces the stored record with the same id.
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// prepareNew fills in id and timestamps on a record about to be inserted.
func prepareNew(u *models.User, now time.Time) *models.User {
	c := u.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt
	return c
}
