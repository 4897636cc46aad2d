// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits one Frame per tick on out.
// One goroutine per poller. No overlap: ticks that arrive while a frame
// is still waiting on out are dropped by the ticker.
func (p *Poller) Run(ctx context.Context, out chan<- Frame) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case out <- p.PollOnce():
			case <-ctx.Done():
				return
			}
		}
	}
}
