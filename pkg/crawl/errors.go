package crawl

import (
	"errors"
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// CancelledError is returned for archives interrupted by cancellation.
func CancelledError(datasetID string, err error) error {
	return &gn.Error{
		Code: errcode.CancelledError,
		Msg:  "Processing of <em>%s</em> was cancelled",
		Vars: []any{datasetID},
		Err:  fmt.Errorf("dataset %s cancelled: %w", datasetID, err),
	}
}

// IllegalTransitionError is returned for impossible state changes.
func IllegalTransitionError(datasetID string, from, to State) error {
	return &gn.Error{
		Code: errcode.IllegalTransitionError,
		Msg:  "Dataset <em>%s</em> cannot move from %s to %s",
		Vars: []any{datasetID, from, to},
		Err: fmt.Errorf(
			"illegal transition of %s from %s to %s", datasetID, from, to,
		),
	}
}

// AllArchivesFailedError is returned when no archive of the cycle
// succeeded.
func AllArchivesFailedError(failed int) error {
	return &gn.Error{
		Code: errcode.AllArchivesFailedError,
		Msg:  "All %d archives failed",
		Vars: []any{failed},
		Err:  fmt.Errorf("all %d archives failed", failed),
	}
}

func errCode(err error) gn.ErrorCode {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) {
		return gnErr.Code
	}
	return errcode.UnknownError
}

// Kind returns the failure kind of an error for run summaries.
func Kind(err error) string {
	return errcode.Kind(errCode(err))
}

func retryable(err error) bool {
	return errcode.Retryable(errCode(err))
}
