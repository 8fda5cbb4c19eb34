package ioarchive

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// RetrievalError is returned when an archive cannot be downloaded.
func RetrievalError(url string, err error) error {
	return &gn.Error{
		Code: errcode.RetrievalError,
		Msg:  "Cannot retrieve archive <em>%s</em>",
		Vars: []any{url},
		Err:  fmt.Errorf("retrieve %s: %w", url, err),
	}
}

// ArchiveFormatError is returned when an archive is not a readable zip
// file.
func ArchiveFormatError(src string, err error) error {
	return &gn.Error{
		Code: errcode.ArchiveFormatError,
		Msg:  "Archive <em>%s</em> is not a valid zip file",
		Vars: []any{src},
		Err:  fmt.Errorf("open archive %s: %w", src, err),
	}
}

// ArchiveConsumedError is returned when documents of an archive are
// requested the second time.
func ArchiveConsumedError(src string) error {
	return &gn.Error{
		Code: errcode.ArchiveConsumedError,
		Msg:  "Documents of <em>%s</em> were already read",
		Vars: []any{src},
		Err:  fmt.Errorf("archive %s already consumed", src),
	}
}
