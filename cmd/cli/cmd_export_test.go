package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/internal/auth"
	"safepath/internal/sessions"
	"safepath/internal/stories"
	"safepath/internal/students"
	"safepath/pkg/database"
	"safepath/pkg/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "export.db")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SAFEPATH_DB_DRIVER", "sqlite3")
	t.Setenv("SAFEPATH_DB_DSN", dsn)

	ctx := context.Background()
	db, err := database.Open(database.Config{Driver: "sqlite3", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, auth.NewRepo(db).Create(ctx, models.NGOAccount{ID: "ngo-1", OrgName: "O", Email: "o@ngo.org", PasswordHash: "x"}))
	require.NoError(t, stories.NewRepo(db).Insert(ctx, models.StoryRow{
		ID: "story-1", NGOID: "ngo-1", Title: "Safe, Home", Topic: "t", AgeGroup: "6-8", Language: "en", CharacterCount: 1,
	}))
	_, err = students.NewRepo(db).Create(ctx, models.StudentProfile{ID: "kid-1", Name: "Kid", AgeGroup: "6-8"})
	require.NoError(t, err)
	_, err = sessions.NewRepo(db).Start(ctx, models.StorySession{ID: "sess-1", StoryID: "story-1", StudentID: "kid-1", StartedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	storiesOut := filepath.Join(dir, "out", "stories.csv")
	sessionsOut := filepath.Join(dir, "out", "sessions.csv")
	stdout, err := execute(t, "", "export", "--stories", storiesOut, "--sessions", sessionsOut)
	require.NoError(t, err)
	assert.Contains(t, stdout, "exported 1 stories")

	st := readCSV(t, storiesOut)
	require.Len(t, st, 2)
	assert.Equal(t, "id", st[0][0])
	assert.Equal(t, "Safe, Home", st[1][2])
	assert.Equal(t, "1", st[1][7], "students reached")

	se := readCSV(t, sessionsOut)
	require.Len(t, se, 2)
	assert.Equal(t, []string{"sess-1", "story-1", "kid-1"}, se[1][:3])
	assert.Empty(t, se[1][4], "not completed yet")
}
