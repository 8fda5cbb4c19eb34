// Package bms describes archives published by a biodiversity metadata
// service.
package bms

import "context"

// Archive describes one published archive of a dataset.
type Archive struct {
	// DatasetID is stable across versions of the dataset.
	DatasetID string `json:"datasetId"`

	// SourceURL is the location of the zipped ABCD documents.
	SourceURL string `json:"sourceUrl"`

	// VersionMarker changes every time a new version of the archive
	// is published.
	VersionMarker string `json:"versionMarker"`

	Provider    string `json:"provider,omitempty"`
	DatasetName string `json:"datasetName,omitempty"`
	LandingPage string `json:"landingPage,omitempty"`
}

// Lister enumerates currently published archives.
type Lister interface {
	// List returns one archive per dataset. The order is not defined, and
	// no filtering by version is done.
	List(ctx context.Context) ([]Archive, error)
}

type combined []Lister

// Combine merges listings of several sources into one. Every source has
// to succeed, a partial listing would look like removed datasets. The
// first error is returned.
func Combine(ls ...Lister) Lister {
	if len(ls) == 1 {
		return ls[0]
	}
	return combined(ls)
}

func (c combined) List(ctx context.Context) ([]Archive, error) {
	var res []Archive
	for _, l := range c {
		as, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		res = append(res, as...)
	}
	return res, nil
}
