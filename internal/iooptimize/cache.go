package iooptimize

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// StaleAge is the age after which a download in the archive cache is
// considered abandoned.
const StaleAge = 24 * time.Hour

// CleanupArchives removes downloads older than age from the archive
// cache. They are left when a crawl is killed before archives are
// closed. It returns the number of removed files and their size.
func CleanupArchives(dir string, age time.Duration) (int, int64, error) {
	files, err := filepath.Glob(filepath.Join(dir, "archive-*.zip"))
	if err != nil {
		return 0, 0, CacheCleanupError(dir, err)
	}

	var count int
	var size int64
	cutoff := time.Now().Add(-age)
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err = os.Remove(f); err != nil {
			return count, size, CacheCleanupError(dir, err)
		}
		count++
		size += info.Size()
	}

	if count > 0 {
		slog.Info("Removed stale archives",
			"dir", dir, "files", count, "size", humanize.Bytes(uint64(size)))
	}
	return count, size, nil
}
