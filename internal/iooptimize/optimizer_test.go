package iooptimize

import (
	"context"
	"testing"
	"time"

	"github.com/gnames/gnabcd/internal/iodb"
	"github.com/gnames/gnabcd/internal/ioschema"
	"github.com/gnames/gnabcd/internal/iotesting"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnuuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeNotConnected(t *testing.T) {
	opt := NewOptimizer(iodb.NewPgxOperator())
	err := opt.Optimize(context.Background(), config.New())
	assert.Error(t, err)
}

// TestOptimize_Integration requires PostgreSQL with PostGIS.
// Skip with: go test -short
func TestOptimize_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := iotesting.GetTestConfig()
	cfg.Update([]config.Option{config.OptHomeDir(t.TempDir())})

	op := iodb.NewPgxOperator()
	err := op.Connect(ctx, &cfg.Database)
	require.NoError(t, err, "Should connect to database")
	defer op.Close()

	require.NoError(t, op.DropAllTables(ctx))
	require.NoError(t, ioschema.NewManager(op).Create(ctx, cfg))

	pool := op.Pool()
	now := time.Now()
	_, err = pool.Exec(ctx, `
		INSERT INTO datasets (dataset_id, version_marker, units_count, updated_at)
		VALUES ('ds1', 'v1', 5, $1)`, now)
	require.NoError(t, err)

	insertUnit := func(ds, key string) {
		_, err := pool.Exec(ctx, `
			INSERT INTO units (dataset_id, unit_key, id, attributes, updated_at)
			VALUES ($1, $2, $3, '{}', $4)`,
			ds, key, gnuuid.New(ds+"|"+key).String(), now)
		require.NoError(t, err)
	}
	insertUnit("ds1", "a")
	insertUnit("ds1", "b")
	insertUnit("gone", "x")

	err = NewOptimizer(op).Optimize(ctx, cfg)
	require.NoError(t, err)

	var units, count int
	err = pool.QueryRow(ctx, "SELECT count(*) FROM units").Scan(&units)
	require.NoError(t, err)
	assert.Equal(t, 2, units, "orphan unit removed")

	err = pool.QueryRow(ctx,
		"SELECT units_count FROM datasets WHERE dataset_id = 'ds1'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
