package migrate_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/migrate"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/testutil"
)

func TestRun_IsIdempotent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		require.NoError(t, migrate.Run(ctx, db))
		require.NoError(t, migrate.Run(ctx, db))

		status, err := migrate.Status(ctx, db)
		require.NoError(t, err)
		require.NotEmpty(t, status)
		assert.Equal(t, "001_console_tokens", status[0].Version)
		for _, m := range status {
			assert.True(t, m.Applied(), "migration %s should be applied", m.Version)
		}

		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM console_tokens`).Scan(&n))
	})
}
