// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls until ctx is done and emits each PollResult on out.
// The first cycle starts immediately. The next one is scheduled only after
// the previous cycle returned and its result was delivered, so cycles never
// overlap. A cycle in flight is not interrupted by cancellation.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res := p.PollOnce()

		select {
		case <-ctx.Done():
			return
		case out <- res:
		}

		timer.Reset(p.cfg.Interval)
	}
}
