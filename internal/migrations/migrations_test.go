package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/medishop?sslmode=disable",
		driverURL("postgres://u:p@localhost:5432/medishop?sslmode=disable"))
	assert.Equal(t, "pgx5://localhost/db", driverURL("postgresql://localhost/db"))
	assert.Equal(t, "pgx5://localhost/db", driverURL("pgx5://localhost/db"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(files, "sql/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(files, "sql/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
