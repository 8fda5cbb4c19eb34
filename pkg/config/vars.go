package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "gnabcd"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/gnabcd by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/gnabcd by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// ArchiveCacheDir returns the directory for downloaded archives.
func ArchiveCacheDir(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "archives")
}

// DataDir returns the directory for embedded store files.
// Returns ~/.local/share/gnabcd by default.
func DataDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/gnabcd/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(DataDir(homeDir), "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/gnabcd/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// FieldsFilePath returns the default location of the field catalog.
func FieldsFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "abcd-fields.yaml")
}

// FieldsFile returns the field catalog document used by the run.
func (c *Config) FieldsFile() string {
	if c.ABCD.FieldsFile != "" {
		return c.ABCD.FieldsFile
	}
	return FieldsFilePath(c.HomeDir)
}

// SQLitePath returns the database file used by the sqlite driver.
func (c *Config) SQLitePath() string {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath
	}
	return filepath.Join(DataDir(c.HomeDir), AppName+".sqlite")
}
