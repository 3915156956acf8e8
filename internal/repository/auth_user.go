package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"eclipse/internal/model"
)

type authUserRepository struct {
	db *sqlx.DB
}

func NewAuthUserRepository(db *sqlx.DB) AuthUserRepository {
	return &authUserRepository{db: db}
}

// Create inserts a credential record and fills its id and created_at.
func (r *authUserRepository) Create(ctx context.Context, u *model.AuthUser) error {
	query := `
		INSERT INTO auth_users (id, email, password_hashed, display_name, handle)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query, u.ID, u.Email, u.PasswordHashed, u.DisplayName, u.Handle).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert auth user: %w", err)
	}
	return nil
}

func (r *authUserRepository) GetByID(ctx context.Context, id string) (*model.AuthUser, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hashed, display_name, handle, created_at
		FROM auth_users
		WHERE id = $1
	`, id)
}

func (r *authUserRepository) GetByEmail(ctx context.Context, email string) (*model.AuthUser, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hashed, display_name, handle, created_at
		FROM auth_users
		WHERE lower(email) = lower($1)
	`, email)
}

func (r *authUserRepository) getOne(ctx context.Context, query string, arg string) (*model.AuthUser, error) {
	var u model.AuthUser
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth user: %w", err)
	}
	return &u, nil
}
