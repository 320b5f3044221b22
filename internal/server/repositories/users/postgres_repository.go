package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/dbx"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const selectUser = `SELECT id, username, email, password_hash, google_id, picture, created_at, updated_at FROM users`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := prepareNew(user, r.now())

	query :=
		`INSERT INTO users (id, username, email, password_hash, google_id, picture, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.UserName, u.Email,
		dbx.NullString(u.PasswordHash), dbx.NullString(u.GoogleID), dbx.NullString(u.Picture),
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return u, nil
}

func (r *PostgresRepository) GetUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	query := selectUser + `
		 WHERE email = $1 OR username = $2
		 LIMIT 1
		 `
	return r.getOne(ctx, query, email, username)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := selectUser + `
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := selectUser + `
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	u := user.Clone()
	u.UpdatedAt = r.now()

	query :=
		`UPDATE users
		 SET username = $2, email = $3, password_hash = $4, google_id = $5, picture = $6, updated_at = $7
		 WHERE id = $1
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.UserName, u.Email,
		dbx.NullString(u.PasswordHash), dbx.NullString(u.GoogleID), dbx.NullString(u.Picture),
		u.UpdatedAt).Scan(&u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}

	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		u                               models.User
		passwordHash, googleID, picture sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.UserName, &u.Email, &passwordHash, &googleID, &picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	u.Picture = picture.String

	return &u, nil
}

func mapWriteError(err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", common.ErrorDuplicateKey, err)
	}
	return fmt.Errorf("db error: %w", err)
}

var _ Repository = (*PostgresRepository)(nil)
