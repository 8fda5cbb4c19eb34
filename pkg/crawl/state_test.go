package crawl_test

import (
	"testing"

	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		msg  string
		path []crawl.State
		ok   bool
	}{
		{"full path", []crawl.State{
			crawl.Fetching, crawl.Parsing, crawl.Reconciling,
			crawl.Committing, crawl.Done}, true},
		{"skip", []crawl.State{crawl.Done}, true},
		{"fail while parsing", []crawl.State{
			crawl.Fetching, crawl.Parsing, crawl.Failed}, true},
		{"fail pending", []crawl.State{crawl.Failed}, true},
		{"jump to commit", []crawl.State{crawl.Fetching, crawl.Committing}, false},
		{"back to fetching", []crawl.State{
			crawl.Fetching, crawl.Parsing, crawl.Fetching}, false},
		{"leave done", []crawl.State{crawl.Done, crawl.Fetching}, false},
		{"fail twice", []crawl.State{crawl.Failed, crawl.Failed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			r := crawl.NewRun(bms.Archive{DatasetID: "ds"})
			var err error
			for _, s := range tt.path {
				if err = r.Transition(s); err != nil {
					break
				}
			}
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, append([]crawl.State{crawl.Pending}, tt.path...), r.History)
				assert.True(t, r.State.Terminal())
				return
			}
			require.Error(t, err)
			assert.Equal(t, "UnknownError", crawl.Kind(err))
			assert.Equal(t, r.History[len(r.History)-1], r.State)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "reconciling", crawl.Reconciling.String())
	assert.Equal(t, "unknown", crawl.State(42).String())
}
