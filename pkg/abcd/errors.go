package abcd

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// MalformedXMLError is returned when a document is not well-formed XML.
func MalformedXMLError(document string, err error) error {
	return &gn.Error{
		Code: errcode.MalformedXMLError,
		Msg:  "Document <em>%s</em> is not a well-formed XML",
		Vars: []any{document},
		Err:  fmt.Errorf("malformed XML in %s: %w", document, err),
	}
}

// StreamConsumedError is returned when units of a document are
// requested twice.
func StreamConsumedError(document string) error {
	return &gn.Error{
		Code: errcode.ArchiveConsumedError,
		Msg:  "Document <em>%s</em> was already parsed",
		Vars: []any{document},
		Err:  fmt.Errorf("stream of %s is consumed", document),
	}
}
