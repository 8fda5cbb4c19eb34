package crawl

import (
	"slices"
	"time"

	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/store"
)

// State is a stage of archive processing.
type State int

const (
	Pending State = iota
	Fetching
	Parsing
	Reconciling
	Committing
	Done
	Failed
)

var stateNames = []string{
	"pending", "fetching", "parsing", "reconciling", "committing", "done",
	"failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal is true for Done and Failed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// moves lists legal transitions. Any non-terminal state can also move
// to Failed.
var moves = map[State][]State{
	Pending:     {Fetching, Done},
	Fetching:    {Parsing},
	Parsing:     {Reconciling},
	Reconciling: {Committing},
	Committing:  {Done},
}

// Run tracks processing of one archive.
type Run struct {
	Archive bms.Archive
	State   State
	// History contains all states of the run, starting with Pending.
	History []State

	// Skipped is true when the stored version was current.
	Skipped bool
	// Attempts counts fetch and commit attempts.
	Attempts int

	Units      int
	Invalid    int
	Collisions int
	Result     store.CommitResult

	Err  error
	Kind string

	Started  time.Time
	Finished time.Time
}

// NewRun creates a pending run for an archive.
func NewRun(a bms.Archive) *Run {
	return &Run{
		Archive: a,
		State:   Pending,
		History: []State{Pending},
	}
}

// Transition moves the run to a new state. Illegal moves return an error
// and leave the run unchanged.
func (r *Run) Transition(to State) error {
	from := r.State
	legal := !from.Terminal() && (to == Failed || slices.Contains(moves[from], to))
	if !legal {
		return IllegalTransitionError(r.Archive.DatasetID, from, to)
	}
	r.State = to
	r.History = append(r.History, to)
	return nil
}
