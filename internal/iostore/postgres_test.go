package iostore_test

import (
	"context"
	"testing"

	"github.com/gnames/gnabcd/internal/iodb"
	"github.com/gnames/gnabcd/internal/ioschema"
	"github.com/gnames/gnabcd/internal/iostore"
	"github.com/gnames/gnabcd/internal/iotesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore needs PostgreSQL with PostGIS and the gnabcd_test
// database. Run 'go test -short' to skip it.
func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := iotesting.GetTestConfig()

	op := iodb.NewPgxOperator()
	require.NoError(t, op.Connect(ctx, &cfg.Database))
	require.NoError(t, op.DropAllTables(ctx))
	require.NoError(t, ioschema.NewManager(op).Create(ctx, cfg))

	st, err := iostore.NewPostgres(op, 2)
	require.NoError(t, err)
	defer st.Close()

	testStore(t, st)

	var geo bool
	q := `SELECT is_geo_referenced FROM dataset_listing WHERE id = 'ds1'`
	require.NoError(t, op.Pool().QueryRow(ctx, q).Scan(&geo))
	assert.True(t, geo)
}

func TestNewPostgresNotConnected(t *testing.T) {
	_, err := iostore.NewPostgres(iodb.NewPgxOperator(), 0)
	assert.Error(t, err)
}
