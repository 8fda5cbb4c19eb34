package ioschema

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotConnectedError(t *testing.T) {
	gnErr, ok := NotConnectedError().(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")
	assert.Equal(t, errcode.DBNotConnectedError, gnErr.Code)
	assert.NotEmpty(t, gnErr.Msg)
}

func TestErrors(t *testing.T) {
	cause := errors.New("root cause")

	tests := []struct {
		name string
		err  error
		code gn.ErrorCode
		vars []any
	}{
		{"gorm", GORMConnectionError(cause),
			errcode.SchemaGORMConnectionError, nil},
		{"create", CreateSchemaError(cause), errcode.SchemaCreateError, nil},
		{"migrate", MigrateSchemaError(cause), errcode.SchemaMigrateError, nil},
		{"extension", ExtensionError("postgis", cause),
			errcode.SchemaExtensionError, []any{"postgis"}},
		{"view", ViewError("dataset_listing", cause),
			errcode.SchemaViewError, []any{"dataset_listing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok)
			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			assert.Equal(t, tt.vars, gnErr.Vars)
			assert.ErrorIs(t, gnErr.Err, cause)
		})
	}
}
