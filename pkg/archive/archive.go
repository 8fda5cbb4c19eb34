// Package archive defines access to the documents of a retrieved
// archive.
package archive

import (
	"context"
	"io"
	"iter"

	"github.com/gnames/gnabcd/pkg/bms"
)

// Document is one ABCD document of an archive. Body is valid only until
// the next document is requested.
type Document struct {
	Name  string
	Index int
	Body  io.Reader
}

// Archive is a retrieved archive.
type Archive interface {
	// Documents yields the XML documents of the archive in stored order.
	// The sequence can be consumed only once.
	Documents() iter.Seq2[Document, error]

	// Close releases the archive and removes temporary files.
	Close() error
}

// Fetcher retrieves archives.
type Fetcher interface {
	Fetch(ctx context.Context, a bms.Archive) (Archive, error)
}
