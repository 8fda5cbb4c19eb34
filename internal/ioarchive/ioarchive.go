// Package ioarchive implements archive.Fetcher. Remote archives are
// downloaded to a temporary file, local ones are opened in place.
package ioarchive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnabcd/pkg/archive"
	"github.com/gnames/gnabcd/pkg/bms"
	"golang.org/x/time/rate"
)

type fetcher struct {
	dir     string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Fetcher. Downloads are saved to dir (the system
// temporary directory if dir is empty). Non-positive rps disables
// pacing of requests.
func New(dir string, timeout time.Duration, rps float64) archive.Fetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &fetcher{
		dir:     dir,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch retrieves the archive of a descriptor.
func (f *fetcher) Fetch(
	ctx context.Context,
	a bms.Archive,
) (archive.Archive, error) {
	file, temp := "", ""
	if path, ok := localFile(a.SourceURL); ok {
		file = path
	} else {
		var err error
		if temp, err = f.download(ctx, a.SourceURL); err != nil {
			return nil, err
		}
		file = temp
	}

	res, err := openZip(a.SourceURL, file, temp)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *fetcher) download(ctx context.Context, src string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", RetrievalError(src, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", RetrievalError(src, err)
	}
	req.Header.Set("User-Agent", "gnabcd")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", RetrievalError(src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", RetrievalError(src, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	tmp, err := os.CreateTemp(f.dir, "archive-*.zip")
	if err != nil {
		return "", RetrievalError(src, err)
	}

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", RetrievalError(src, err)
	}

	slog.Debug("Downloaded archive",
		"url", src, "size", humanize.Bytes(uint64(n)))
	return tmp.Name(), nil
}

// localFile returns the file path of file:// URLs and of paths
// without a scheme.
func localFile(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil {
		return src, true
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return u.Opaque, true
		}
		return u.Path, true
	case "http", "https":
		return "", false
	}
	// a Windows drive letter is parsed as a scheme
	if len(u.Scheme) == 1 {
		return src, true
	}
	if u.Scheme == "" {
		return src, true
	}
	return "", false
}
