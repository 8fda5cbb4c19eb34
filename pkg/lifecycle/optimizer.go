package lifecycle

import (
	"context"

	"github.com/gnames/gnabcd/pkg/config"
)

// Optimizer defines maintenance of the store between crawls.
// Crawls delete and update units in place, so tables accumulate dead
// rows and statistics of the geometry index get stale.
type Optimizer interface {
	// Optimize removes inconsistent leftovers and refreshes statistics.
	// It is safe to run at any time when no crawl is running.
	Optimize(ctx context.Context, cfg *config.Config) error
}
