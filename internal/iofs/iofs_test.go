package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()

	for range 2 {
		require.NoError(t, EnsureDirs(tmpDir))
	}

	dirs := []string{
		filepath.Join(tmpDir, ".config", "gnabcd"),
		filepath.Join(tmpDir, ".cache", "gnabcd", "archives"),
		filepath.Join(tmpDir, ".local", "share", "gnabcd", "logs"),
	}
	for _, v := range dirs {
		info, err := os.Stat(v)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	}
}

func TestTouchDir(t *testing.T) {
	tmpDir := t.TempDir()
	newDir := filepath.Join(tmpDir, "test", "subdir")
	require.NoError(t, touchDir(newDir))
	info, err := os.Stat(newDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	err = touchDir(filepath.Join(file, "sub"))
	require.Error(t, err)
}

func TestEnsureFiles(t *testing.T) {
	tests := []struct {
		name    string
		ensure  func(string) error
		path    func(string) string
		content string
	}{
		{"config", EnsureConfigFile, config.ConfigFilePath, ConfigYAML},
		{"fields", EnsureFieldsFile, config.FieldsFilePath, FieldsYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			require.NoError(t, EnsureDirs(tmpDir))
			require.NoError(t, tt.ensure(tmpDir))

			path := tt.path(tmpDir)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))

			custom := "# custom\n"
			require.NoError(t, os.WriteFile(path, []byte(custom), 0644))
			require.NoError(t, tt.ensure(tmpDir))
			content, err = os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, custom, string(content), "existing file is kept")
		})
	}
}

func TestConfigYAMLMatchesDefaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(ConfigYAML), &cfg))

	def := config.New()
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Pangaea, cfg.Pangaea)
	assert.Equal(t, def.Crawl.RemovalPolicy, cfg.Crawl.RemovalPolicy)
	assert.Equal(t, def.Crawl.GraceCycles, cfg.Crawl.GraceCycles)
	assert.Equal(t, def.Log, cfg.Log)
}

func TestLoadCatalog(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, EnsureDirs(tmpDir))
	require.NoError(t, EnsureFieldsFile(tmpDir))

	cat, err := LoadCatalog(config.FieldsFilePath(tmpDir))
	require.NoError(t, err)
	assert.Greater(t, cat.Len(), 20)

	roles := []catalog.Role{
		catalog.UnitID, catalog.Longitude, catalog.Latitude,
		catalog.ScientificName, catalog.DatasetTitle, catalog.LandingPage,
	}
	for _, r := range roles {
		_, ok := cat.ByRole(r)
		assert.True(t, ok, r)
	}

	_, err = LoadCatalog(filepath.Join(tmpDir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errcode.ReadFileError, gnCode(err))

	broken := filepath.Join(tmpDir, "broken.yaml")
	data := "- path: /DataSets/DataSet/Units/Unit/UnitID\n  type: blob\n"
	require.NoError(t, os.WriteFile(broken, []byte(data), 0644))
	_, err = LoadCatalog(broken)
	require.Error(t, err)
	assert.Equal(t, errcode.SchemaError, gnCode(err))

	typo := filepath.Join(tmpDir, "typo.yaml")
	data = "field:\n  - path: /DataSets/DataSet/Units/Unit/UnitID\n"
	require.NoError(t, os.WriteFile(typo, []byte(data), 0644))
	_, err = LoadCatalog(typo)
	require.Error(t, err)
	assert.Equal(t, errcode.SchemaError, gnCode(err))

	empty := filepath.Join(tmpDir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = LoadCatalog(empty)
	require.Error(t, err)
	assert.Equal(t, errcode.SchemaError, gnCode(err))
}
