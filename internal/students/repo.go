package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

type Repo struct {
	DB *database.DB
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, p models.StudentProfile) (*models.StudentProfile, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO student_profiles (id, name, age_group, avatar, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.AgeGroup, p.Avatar, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, age_group, avatar, created_at
		FROM student_profiles
		WHERE id = ?
	`, id)

	var p models.StudentProfile
	var avatar sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.AgeGroup, &avatar, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	if avatar.Valid {
		p.Avatar = &avatar.String
	}
	return &p, nil
}
