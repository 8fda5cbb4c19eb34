package crawl

import (
	"context"
	"log/slog"
	"time"
)

// backoff returns the delay before retry number n (starting with 0).
func backoff(base, limit time.Duration, n int) time.Duration {
	res := base
	for range n {
		if res >= limit/2 {
			return limit
		}
		res *= 2
	}
	return min(res, limit)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry calls fn until it succeeds, fails with a permanent error or
// retries are exhausted. Calls are detached from cancellation, waits
// between them are not. It returns the number of attempts.
func (o *Orchestrator) retry(
	ctx context.Context,
	stage string,
	datasetID string,
	fn func(context.Context) error,
) (int, error) {
	var attempt int
	for {
		attempt++
		err := fn(context.WithoutCancel(ctx))
		if err == nil || !retryable(err) || attempt > o.cfg.Crawl.MaxRetries {
			return attempt, err
		}

		delay := backoff(
			o.cfg.Crawl.BackoffBase, o.cfg.Crawl.BackoffMax, attempt-1,
		)
		slog.Warn("Retrying",
			"stage", stage,
			"dataset", datasetID,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if serr := sleep(ctx, delay); serr != nil {
			return attempt, CancelledError(datasetID, serr)
		}
	}
}
