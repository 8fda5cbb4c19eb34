package iocrawl

import (
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/gnabcd/pkg/crawl"
)

// progress shows finished archives of a crawl.
type progress struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

// OnPlan starts the bar when the number of archives is known.
func (p *progress) OnPlan(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = pb.Full.Start(total)
	p.bar.Set("prefix", "Archives: ")
	p.bar.Set(pb.CleanOnFinish, true)
}

func (p *progress) OnTransition(_ *crawl.Run, _, to crawl.State) {
	if !to.Terminal() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
}
