package ioexport

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// ExportError is returned when a row cannot be written.
func ExportError(err error) error {
	return &gn.Error{
		Code: errcode.ExportError,
		Msg:  "Cannot write units",
		Err:  fmt.Errorf("export: %w", err),
	}
}
