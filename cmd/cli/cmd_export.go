package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"safepath/internal/stories"
	"safepath/pkg/database"
	"safepath/pkg/utils"
)

func newExportCmd() *cobra.Command {
	var storiesOut, sessionsOut string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump stories and play sessions to CSV for reporting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			n, err := exportStories(ctx, stories.NewRepo(db), storiesOut)
			if err != nil {
				return fmt.Errorf("export stories: %w", err)
			}
			m, err := exportSessions(ctx, db, sessionsOut)
			if err != nil {
				return fmt.Errorf("export sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d stories to %s and %d sessions to %s\n", n, storiesOut, m, sessionsOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&storiesOut, "stories", "data/stories.csv", "output CSV path for stories")
	cmd.Flags().StringVar(&sessionsOut, "sessions", "data/story_sessions.csv", "output CSV path for sessions")
	return cmd
}

func createCSV(outPath string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func exportStories(ctx context.Context, repo *stories.Repo, outPath string) (int, error) {
	rows, err := repo.List(ctx, stories.ListQuery{})
	if err != nil {
		return 0, err
	}

	f, w, err := createCSV(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "ngo_id", "title", "topic", "age_group", "language", "status", "students_reached", "completion_rate", "created_at"}); err != nil {
		return 0, err
	}
	for _, s := range rows {
		if err := w.Write([]string{
			s.ID,
			s.NGOID,
			s.Title,
			s.Topic,
			s.AgeGroup,
			s.Language,
			s.Status,
			strconv.Itoa(s.StudentsReached),
			strconv.Itoa(s.CompletionRate),
			s.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return 0, err
		}
	}

	w.Flush()
	return len(rows), w.Error()
}

func exportSessions(ctx context.Context, db *database.DB, outPath string) (int, error) {
	f, w, err := createCSV(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "story_id", "student_id", "started_at", "completed_at", "correct_choices"}); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, story_id, student_id, started_at, completed_at, correct_choices
        FROM story_sessions
        ORDER BY started_at DESC
    `)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			id, storyID, studentID string
			startedAt              time.Time
			completedAt            sql.NullTime
			correct                int
		)
		if err := rows.Scan(&id, &storyID, &studentID, &startedAt, &completedAt, &correct); err != nil {
			return 0, err
		}

		completed := ""
		if completedAt.Valid {
			completed = completedAt.Time.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{
			id,
			storyID,
			studentID,
			startedAt.UTC().Format(time.RFC3339),
			completed,
			strconv.Itoa(correct),
		}); err != nil {
			return 0, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	w.Flush()
	return n, w.Error()
}
