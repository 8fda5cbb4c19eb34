package iopangaea

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// SourceUnavailableError is returned when the PANGAEA search fails.
// A partial result is never returned.
func SourceUnavailableError(url string, err error) error {
	return &gn.Error{
		Code: errcode.SourceUnavailableError,
		Msg:  "Cannot get ABCD datasets from PANGAEA <em>%s</em>",
		Vars: []any{url},
		Err:  fmt.Errorf("pangaea search %s: %w", url, err),
	}
}

// NoURLError is returned when search or scroll URL is not configured.
func NoURLError() error {
	msg := `PANGAEA search needs both search and scroll URLs

<em>How to fix:</em>
  Set <em>pangaea.search_url</em> and <em>pangaea.scroll_url</em>
  in ~/.config/gnabcd/config.yaml or GNABCD_PANGAEA_* variables`
	return &gn.Error{
		Code: errcode.SourceUnavailableError,
		Msg:  msg,
		Err:  fmt.Errorf("empty pangaea search or scroll URL"),
	}
}
