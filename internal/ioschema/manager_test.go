package ioschema_test

import (
	"context"
	"testing"

	"github.com/gnames/gnabcd/internal/iodb"
	"github.com/gnames/gnabcd/internal/ioschema"
	"github.com/gnames/gnabcd/internal/iotesting"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerContract(t *testing.T) {
	var _ lifecycle.SchemaManager = ioschema.NewManager(iodb.NewPgxOperator())
}

func TestNotConnected(t *testing.T) {
	mgr := ioschema.NewManager(iodb.NewPgxOperator())
	err := mgr.Create(context.Background(), config.New())
	require.Error(t, err)
}

func TestCreateMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := iotesting.GetTestConfig()

	op := iodb.NewPgxOperator()
	require.NoError(t, op.Connect(ctx, &cfg.Database))
	defer op.Close()
	require.NoError(t, op.DropAllTables(ctx))

	mgr := ioschema.NewManager(op)
	require.NoError(t, mgr.Create(ctx, cfg))
	for _, v := range []string{"units", "datasets", "fields", "crawl_runs"} {
		exists, err := op.TableExists(ctx, v)
		require.NoError(t, err)
		assert.True(t, exists, v)
	}

	// migration is idempotent
	require.NoError(t, mgr.Migrate(ctx, cfg))
	require.NoError(t, mgr.Migrate(ctx, cfg))

	var n int
	err := op.Pool().QueryRow(ctx,
		"SELECT count(*) FROM dataset_listing").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
