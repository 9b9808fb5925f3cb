package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

// ActiveWindow bounds how long an unfinished session counts as active.
const ActiveWindow = 24 * time.Hour

var ErrAlreadyCompleted = errors.New("session already completed")

type Repo struct {
	DB *database.DB
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

// Start records a new session and refreshes the story's reach.
func (r *Repo) Start(ctx context.Context, s models.StorySession) (*models.StorySession, error) {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin start session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO story_sessions (id, story_id, student_id, started_at, correct_choices)
		VALUES (?, ?, ?, ?, 0)
	`), s.ID, s.StoryID, s.StudentID, s.StartedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if err := r.refreshStats(ctx, tx, s.StoryID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit start session: %w", err)
	}
	return &s, nil
}

// Complete closes a session. It returns (nil, nil) when the session does not
// exist and ErrAlreadyCompleted when it was closed before.
func (r *Repo) Complete(ctx context.Context, id string, correctChoices int, at time.Time) (*models.StorySession, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin complete session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	s, err := scanSession(tx.QueryRowContext(ctx, r.DB.Rebind(`
		SELECT id, story_id, student_id, started_at, completed_at, correct_choices
		FROM story_sessions
		WHERE id = ?
	`), id))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if s.CompletedAt != nil {
		return nil, ErrAlreadyCompleted
	}

	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`
		UPDATE story_sessions
		SET completed_at = ?, correct_choices = ?
		WHERE id = ?
	`), at, correctChoices, id); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if err := r.refreshStats(ctx, tx, s.StoryID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complete session: %w", err)
	}

	s.CompletedAt = &at
	s.CorrectChoices = correctChoices
	return s, nil
}

// refreshStats sets students_reached to the distinct students that started
// the story and completion_rate to the completed share of sessions, 0..100.
func (r *Repo) refreshStats(ctx context.Context, tx *sql.Tx, storyID string) error {
	var reached, started, completed int
	if err := tx.QueryRowContext(ctx, r.DB.Rebind(`
		SELECT COUNT(DISTINCT student_id), COUNT(*), COUNT(completed_at)
		FROM story_sessions
		WHERE story_id = ?
	`), storyID).Scan(&reached, &started, &completed); err != nil {
		return fmt.Errorf("session stats: %w", err)
	}

	rate := 0
	if started > 0 {
		rate = completed * 100 / started
	}
	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`
		UPDATE stories
		SET students_reached = ?, completion_rate = ?
		WHERE id = ?
	`), reached, rate, storyID); err != nil {
		return fmt.Errorf("update story stats: %w", err)
	}
	return nil
}

// CountActive counts unfinished sessions of ngoID's stories started after since.
func (r *Repo) CountActive(ctx context.Context, ngoID string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM story_sessions ss
		JOIN stories s ON s.id = ss.story_id
		WHERE s.ngo_id = ? AND ss.completed_at IS NULL AND ss.started_at >= ?
	`, ngoID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

func scanSession(row *sql.Row) (*models.StorySession, error) {
	var (
		s         models.StorySession
		completed sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.StoryID, &s.StudentID, &s.StartedAt, &completed, &s.CorrectChoices); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		s.CompletedAt = &t
	}
	return &s, nil
}
