package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

var ErrEmailTaken = errors.New("email already registered")

type Repo struct {
	DB *database.DB
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, a models.NGOAccount) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ngo_accounts (id, org_name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.OrgName, a.Email, a.PasswordHash, a.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create ngo: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.NGOAccount, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, org_name, email, password_hash, created_at
		FROM ngo_accounts
		WHERE LOWER(email) = ?
	`, email)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("get ngo by email: %w", err)
	}
	return a, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.NGOAccount, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, org_name, email, password_hash, created_at
		FROM ngo_accounts
		WHERE id = ?
	`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("get ngo by id: %w", err)
	}
	return a, nil
}

func (r *Repo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE ngo_accounts
		SET password_hash = ?
		WHERE id = ?
	`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: ngo not found")
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.NGOAccount, error) {
	var a models.NGOAccount
	if err := row.Scan(&a.ID, &a.OrgName, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
