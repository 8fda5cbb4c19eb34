// Package store defines the persistent side of dataset synchronization.
package store

import (
	"context"
	"time"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/reconcile"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/google/uuid"
)

// DatasetInfo is the dataset metadata saved together with its records.
type DatasetInfo struct {
	Title       string
	LandingPage string
	Provider    string
	SourceURL   string
	Attributes  record.Attributes
}

// Commit is a reconciliation ready to be applied.
type Commit struct {
	reconcile.Reconciliation

	// VersionMarker is saved for the dataset after a successful commit.
	VersionMarker string

	// ExpectedMarker is the marker of the snapshot the reconciliation was
	// computed against. A different stored marker means somebody else
	// wrote to the dataset, and the commit is rejected.
	ExpectedMarker string

	Dataset DatasetInfo
}

// CommitResult reports the number of changed rows.
type CommitResult struct {
	Inserted int
	Updated  int
	Deleted  int
}

// DatasetState is what the crawler needs to know about a stored dataset.
type DatasetState struct {
	DatasetID     string
	VersionMarker string
	// MissingCycles is the number of consecutive crawls that did not
	// find the dataset in the listing.
	MissingCycles int
}

// Failure describes an archive that could not be synchronized.
type Failure struct {
	DatasetID string
	Kind      string
	Err       error
}

// RunSummary describes one crawl.
type RunSummary struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time

	Done    int
	Failed  int
	Skipped int
	Removed int

	Inserted int
	Updated  int
	Deleted  int

	Failures []Failure
}

// Store keeps datasets and their records.
type Store interface {
	// Datasets returns the states of all stored datasets.
	Datasets(ctx context.Context) ([]DatasetState, error)

	// Snapshot returns the stored records of a dataset. An unknown dataset
	// gives an empty snapshot.
	Snapshot(ctx context.Context, datasetID string) (record.Snapshot, error)

	// Apply saves all changes of a commit atomically. On error nothing
	// is changed.
	Apply(ctx context.Context, c Commit) (CommitResult, error)

	// MarkMissing increments the missing counter of a dataset and returns
	// the new value.
	MarkMissing(ctx context.Context, datasetID string) (int, error)

	// ResetMissing sets the missing counter of a dataset back to zero.
	ResetMissing(ctx context.Context, datasetID string) error

	// RemoveDataset deletes the dataset with all its records.
	RemoveDataset(ctx context.Context, datasetID string) error

	// PublishCatalog saves field definitions used by the crawl.
	PublishCatalog(ctx context.Context, cat *catalog.Catalog) error

	// SaveRun saves the summary of a crawl.
	SaveRun(ctx context.Context, s RunSummary) error

	Close() error
}
