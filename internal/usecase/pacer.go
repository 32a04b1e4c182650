package usecase

import (
	"context"
	"time"
)

// Pacer enforces a minimum interval between consecutive calls routed through
// Wait. The first call never sleeps. One Pacer guards one downstream
// endpoint; it is not safe for concurrent use, which the sequential pipeline
// never needs.
type Pacer struct {
	interval time.Duration
	last     time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacer builds a pacing policy; a non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, sleep: sleepContext}
}

// Wait blocks until at least the configured interval has passed since the
// previous Wait returned, or until the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}

	if !p.last.IsZero() {
		if remaining := p.interval - time.Since(p.last); remaining > 0 {
			if err := p.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	p.last = time.Now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
