package iofs

import (
	_ "embed"
	"os"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed abcd-fields.yaml
var FieldsYAML string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.ArchiveCacheDir(homeDir),
		config.DataDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

func EnsureConfigFile(homeDir string) error {
	return ensureFile(config.ConfigFilePath(homeDir), ConfigYAML)
}

// EnsureFieldsFile copies the default field catalog to the config
// directory if the user does not have one yet.
func EnsureFieldsFile(homeDir string) error {
	return ensureFile(config.FieldsFilePath(homeDir), FieldsYAML)
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return CopyFileError(path, err)
	}

	return nil
}

// LoadCatalog reads and validates a field catalog document.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadFileError(path, err)
	}

	defs, err := catalog.Decode(data)
	if err != nil {
		return nil, err
	}

	return catalog.Load(defs)
}
