// Package reconcile computes the changes needed to bring a stored
// dataset in line with freshly mapped records.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/gnames/gnabcd/pkg/record"
)

// Reconciliation is the set of changes for one dataset. Inserted,
// updated and deleted keys never overlap.
type Reconciliation struct {
	DatasetID string
	ToInsert  []record.Record
	// ToUpdate contains new versions of records, keyed by their UnitKey.
	ToUpdate []record.Record
	ToDelete []string
}

// Empty is true when nothing has to change.
func (r Reconciliation) Empty() bool {
	return r.Len() == 0
}

// Len returns the total number of changes.
func (r Reconciliation) Len() int {
	return len(r.ToInsert) + len(r.ToUpdate) + len(r.ToDelete)
}

// Collision happens when two records of one archive have the same key.
// The later record wins.
type Collision struct {
	UnitKey string
	// Earlier and Later are the sources of the records.
	Earlier string
	Later   string
}

// Result is the outcome of reconciling one archive.
type Result struct {
	Reconciliation
	Collisions []Collision
	// Invalid are records excluded because of missing mandatory fields.
	Invalid []record.Record
	// Unchanged is the number of stored records that stay as they are.
	Unchanged int
}

// Reconcile compares new records of a dataset with its snapshot. Invalid
// records take no part. If a key repeats, the later record replaces the
// earlier one and a collision is reported. Buckets are sorted by key.
func Reconcile(
	datasetID string,
	records []record.Record,
	prev record.Snapshot,
) Result {
	res := Result{Reconciliation: Reconciliation{DatasetID: datasetID}}

	fresh := make(map[string]record.Record, len(records))
	for _, v := range records {
		if !v.Valid {
			res.Invalid = append(res.Invalid, v)
			continue
		}
		if old, ok := fresh[v.UnitKey]; ok {
			res.Collisions = append(res.Collisions, Collision{
				UnitKey: v.UnitKey,
				Earlier: old.Source,
				Later:   v.Source,
			})
		}
		fresh[v.UnitKey] = v
	}

	for k := range prev.Records {
		if _, ok := fresh[k]; !ok {
			res.ToDelete = append(res.ToDelete, k)
		}
	}

	for k, v := range fresh {
		old, ok := prev.Records[k]
		switch {
		case !ok:
			res.ToInsert = append(res.ToInsert, v)
		case !v.SameContent(old):
			res.ToUpdate = append(res.ToUpdate, v)
		default:
			res.Unchanged++
		}
	}

	byKey := func(a, b record.Record) int {
		return cmp.Compare(a.UnitKey, b.UnitKey)
	}
	slices.SortFunc(res.ToInsert, byKey)
	slices.SortFunc(res.ToUpdate, byKey)
	slices.Sort(res.ToDelete)
	return res
}

// Removal deletes every stored record of a dataset. It is used for
// datasets that disappeared from the listing.
func Removal(prev record.Snapshot) Reconciliation {
	return Reconciliation{
		DatasetID: prev.DatasetID,
		ToDelete:  prev.Keys(),
	}
}

// Apply returns the snapshot that results from applying the
// reconciliation. Stores use it for in-memory state and tests for
// checking idempotency. The given snapshot is not modified.
func Apply(prev record.Snapshot, r Reconciliation, marker string) record.Snapshot {
	res := record.Snapshot{
		DatasetID:     prev.DatasetID,
		VersionMarker: marker,
		Records:       make(map[string]record.Record, len(prev.Records)),
	}
	for k, v := range prev.Records {
		res.Records[k] = v
	}
	for _, k := range r.ToDelete {
		delete(res.Records, k)
	}
	for _, v := range r.ToUpdate {
		res.Records[v.UnitKey] = v
	}
	for _, v := range r.ToInsert {
		res.Records[v.UnitKey] = v
	}
	return res
}
