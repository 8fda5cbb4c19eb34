package iobms

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// SourceUnavailableError is returned when the listing cannot be
// retrieved or decoded.
func SourceUnavailableError(url string, err error) error {
	msg := "Cannot get archives listing from <em>%s</em>"
	return &gn.Error{
		Code: errcode.SourceUnavailableError,
		Msg:  msg,
		Vars: []any{url},
		Err:  fmt.Errorf("listing %s: %w", url, err),
	}
}

// NoListingURLError is returned when bms.listing_url is not configured.
func NoListingURLError() error {
	msg := `BMS listing URL is not set

<em>How to fix:</em>
  Set <em>bms.listing_url</em> in ~/.config/gnabcd/config.yaml
  or use GNABCD_BMS_LISTING_URL environment variable`
	return &gn.Error{
		Code: errcode.SourceUnavailableError,
		Msg:  msg,
		Err:  fmt.Errorf("empty listing URL"),
	}
}

// StatusError describes a non-2xx HTTP response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
}
