package ioarchive

import (
	"archive/zip"
	"iter"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gnames/gnabcd/pkg/archive"
)

// zipArchive gives access to XML documents of a zip file.
type zipArchive struct {
	src  string
	zr   *zip.ReadCloser
	temp string

	mu       sync.Mutex
	consumed bool
}

// Open opens a local zip file as an archive.
func Open(file string) (archive.Archive, error) {
	a, err := openZip(file, file, "")
	if err != nil {
		return nil, err
	}
	return a, nil
}

// openZip opens the file. If temp is not empty, it is removed on Close
// or on failure.
func openZip(src, file, temp string) (*zipArchive, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		if temp != "" {
			_ = os.Remove(temp)
		}
		return nil, ArchiveFormatError(src, err)
	}
	return &zipArchive{src: src, zr: zr, temp: temp}, nil
}

// Documents yields .xml entries in the order they are stored. Other
// entries are ignored.
func (a *zipArchive) Documents() iter.Seq2[archive.Document, error] {
	return func(yield func(archive.Document, error) bool) {
		a.mu.Lock()
		consumed := a.consumed
		a.consumed = true
		a.mu.Unlock()
		if consumed {
			yield(archive.Document{}, ArchiveConsumedError(a.src))
			return
		}

		var idx int
		for _, f := range a.zr.File {
			if !isXML(f) {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				yield(archive.Document{Name: f.Name, Index: idx},
					ArchiveFormatError(a.src, err))
				return
			}
			doc := archive.Document{Name: f.Name, Index: idx, Body: rc}
			ok := yield(doc, nil)
			rc.Close()
			if !ok {
				return
			}
			idx++
		}
	}
}

// Close closes the zip file and removes the downloaded copy.
func (a *zipArchive) Close() error {
	err := a.zr.Close()
	if a.temp != "" {
		if rmErr := os.Remove(a.temp); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func isXML(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return false
	}
	return strings.EqualFold(path.Ext(f.Name), ".xml")
}
