package stories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

type Repo struct {
	DB *database.DB
}

// ListQuery filters are exact matches; empty means any.
type ListQuery struct {
	Status   string
	Topic    string
	AgeGroup string
}

// SearchQuery matches Q against title and description of one NGO's stories.
type SearchQuery struct {
	NGOID  string
	Q      string
	Limit  int
	Offset int
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

const storyColumns = `id, ngo_id, title, topic, age_group, language, region_context, description,
	moral_lesson, character_count, cover_image_url, status, students_reached, completion_rate, created_at`

func (r *Repo) NGOExists(ctx context.Context, ngoID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM ngo_accounts WHERE id = ?`, ngoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check ngo: %w", err)
	}
	return true, nil
}

func (r *Repo) Insert(ctx context.Context, s models.StoryRow) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = models.StatusDraft
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO stories (`+storyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.NGOID, s.Title, s.Topic, s.AgeGroup, s.Language, s.RegionContext, s.Description,
		s.MoralLesson, s.CharacterCount, s.CoverImageURL, s.Status, s.StudentsReached, s.CompletionRate, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.StoryRow, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)
	s, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.StoryRow, error) {
	var where []string
	var args []any
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, q.Topic)
	}
	if q.AgeGroup != "" {
		where = append(where, "age_group = ?")
		args = append(args, q.AgeGroup)
	}

	sqlStr := `SELECT ` + storyColumns + ` FROM stories`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY created_at DESC"

	return r.query(ctx, sqlStr, args...)
}

func (r *Repo) Count(ctx context.Context, q SearchQuery) (int, error) {
	sqlStr, args := buildSearchSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) Search(ctx context.Context, q SearchQuery) ([]models.StoryRow, error) {
	sqlStr, args := buildSearchSQL(q, false)
	return r.query(ctx, sqlStr, args...)
}

// buildSearchSQL builds either COUNT(*) or the paginated SELECT.
func buildSearchSQL(q SearchQuery, countOnly bool) (string, []any) {
	base := `SELECT ` + storyColumns + ` FROM stories`
	if countOnly {
		base = `SELECT COUNT(*) FROM stories`
	}

	kw := "%" + strings.ToLower(strings.TrimSpace(q.Q)) + "%"
	sqlStr := base + ` WHERE ngo_id = ? AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
	args := []any{q.NGOID, kw, kw}

	if countOnly {
		return sqlStr, args
	}
	sqlStr += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)
	return sqlStr, args
}

// Publish flips the story to published and returns the updated row.
func (r *Repo) Publish(ctx context.Context, id string) (*models.StoryRow, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE stories SET status = ? WHERE id = ?`, models.StatusPublished, id)
	if err != nil {
		return nil, fmt.Errorf("publish story: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("publish story rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// InsertSlides writes all slides of a story in one transaction and returns
// them with their generated ids.
func (r *Repo) InsertSlides(ctx context.Context, storyID string, rows []models.SlideRow) ([]models.SlideRow, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert slides: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	out := make([]models.SlideRow, 0, len(rows))
	for _, s := range rows {
		var choices any
		if s.Choices != nil {
			b, mErr := json.Marshal(s.Choices)
			if mErr != nil {
				err = fmt.Errorf("encode choices: %w", mErr)
				return nil, err
			}
			choices = string(b)
		}

		var id int64
		err = tx.QueryRowContext(ctx, r.DB.Rebind(`
			INSERT INTO story_slides (story_id, position, image_url, text, choices)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`), storyID, s.Position, s.ImageURL, s.Text, choices).Scan(&id)
		if err != nil {
			err = fmt.Errorf("insert slide %d: %w", s.Position, err)
			return nil, err
		}
		s.ID = id
		s.StoryID = storyID
		out = append(out, s)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert slides: %w", err)
	}
	return out, nil
}

func (r *Repo) ListSlides(ctx context.Context, storyID string) ([]models.SlideRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, story_id, position, image_url, text, choices
		FROM story_slides
		WHERE story_id = ?
		ORDER BY position ASC
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("list slides query: %w", err)
	}
	defer rows.Close()

	out := []models.SlideRow{}
	for rows.Next() {
		var (
			s        models.SlideRow
			imageURL sql.NullString
			choices  sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.StoryID, &s.Position, &imageURL, &s.Text, &choices); err != nil {
			return nil, fmt.Errorf("list slides scan: %w", err)
		}
		if imageURL.Valid {
			s.ImageURL = &imageURL.String
		}
		if choices.Valid && choices.String != "" && choices.String != "null" {
			if err := json.Unmarshal([]byte(choices.String), &s.Choices); err != nil {
				return nil, fmt.Errorf("decode choices of slide %d: %w", s.Position, err)
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) query(ctx context.Context, sqlStr string, args ...any) ([]models.StoryRow, error) {
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := []models.StoryRow{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(sc scanner) (*models.StoryRow, error) {
	var (
		s        models.StoryRow
		region   sql.NullString
		lesson   sql.NullString
		coverURL sql.NullString
	)
	if err := sc.Scan(
		&s.ID, &s.NGOID, &s.Title, &s.Topic, &s.AgeGroup, &s.Language, &region, &s.Description,
		&lesson, &s.CharacterCount, &coverURL, &s.Status, &s.StudentsReached, &s.CompletionRate, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if region.Valid {
		s.RegionContext = &region.String
	}
	if lesson.Valid {
		s.MoralLesson = &lesson.String
	}
	if coverURL.Valid {
		s.CoverImageURL = &coverURL.String
	}
	return &s, nil
}
