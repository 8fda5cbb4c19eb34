package bms_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source struct {
	archives []bms.Archive
	err      error
	calls    int
}

func (s *source) List(context.Context) ([]bms.Archive, error) {
	s.calls++
	return s.archives, s.err
}

func TestCombine(t *testing.T) {
	a := &source{archives: []bms.Archive{{DatasetID: "Herbar"}}}
	b := &source{archives: []bms.Archive{{DatasetID: "PANGAEA.1"}, {DatasetID: "PANGAEA.2"}}}

	res, err := bms.Combine(a, b).List(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, v := range res {
		ids = append(ids, v.DatasetID)
	}
	assert.Equal(t, []string{"Herbar", "PANGAEA.1", "PANGAEA.2"}, ids)

	assert.Same(t, a, bms.Combine(a))
}

func TestCombineFailure(t *testing.T) {
	cause := errors.New("search is down")
	a := &source{archives: []bms.Archive{{DatasetID: "Herbar"}}}
	b := &source{err: cause}

	res, err := bms.Combine(a, b).List(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, res, "partial listing is not returned")
	assert.Equal(t, 1, a.calls)
}
