package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db  *DB
	now func() time.Time
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const userColumns = `id, username, email, password_hash, confirmed, confirm_token, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Confirmed, &u.ConfirmToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
INSERT INTO users (id, username, email, password_hash, confirmed, confirm_token, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := r.now()
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Confirmed, u.ConfirmToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateKey
		}
		return nil, err
	}

	return &u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// UpdateUser sets only the non-nil fields; COALESCE keeps the stored value otherwise.
func (r *UserRepo) UpdateUser(ctx context.Context, email string, params repository.UpdateUserParams) (*model.User, error) {
	if params.IsEmpty() {
		return nil, repository.ErrNoFieldsToUpdate
	}

	q := `
UPDATE users
SET password_hash = COALESCE($2, password_hash),
    confirmed = COALESCE($3, confirmed),
    updated_at = $4
WHERE email = $1
RETURNING ` + userColumns

	return scanUser(r.db.Pool.QueryRow(ctx, q, email, params.PasswordHash, params.Confirmed, r.now()))
}
