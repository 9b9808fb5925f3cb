package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	lite := &DB{Dialect: SQLite}

	q := `SELECT * FROM stories WHERE ngo_id = ? AND title LIKE ? AND note = '?'`
	assert.Equal(t, `SELECT * FROM stories WHERE ngo_id = $1 AND title LIKE $2 AND note = '?'`, pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestMigrateAndUniqueViolation(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// schema is re-runnable
	require.NoError(t, Migrate(ctx, db))

	// every statement of the multi-statement schema ran
	for _, table := range []string{"ngo_accounts", "stories", "story_slides", "student_profiles", "story_sessions"} {
		var n int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}

	insert := `INSERT INTO ngo_accounts (id, org_name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`
	_, err = db.ExecContext(ctx, insert, uuid.NewString(), "Org", "a@b.org", "h")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, uuid.NewString(), "Org", "a@b.org", "h")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(nil))
}
