package board

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval matches the board's fixed refresh cadence.
const DefaultPollInterval = 10 * time.Second

// Poller runs a task on a fixed interval with an explicit start/stop
// lifecycle. Ticks fire unconditionally: no backoff, and a slow tick is
// not cancelled when the next one fires (the task is an idempotent
// read).
type Poller struct {
	interval time.Duration
	task     func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, task func(context.Context)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, task: task}
}

// Start runs the task once immediately, then on every tick until Stop
// is called or ctx is cancelled. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	// in-flight fetches are never aborted by Stop; only ticking halts
	taskCtx := context.WithoutCancel(ctx)

	go func(done chan struct{}) {
		defer close(done)
		p.task(taskCtx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				go p.task(taskCtx)
			}
		}
	}(p.done)
}

// Stop halts ticking. In-flight task runs are not interrupted.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
