package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs the task immediately, then on each tick until ctx is done.
// Task errors are logged, not fatal: the next interval gets a fresh try.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	if err := task(ctx); err != nil {
		log.Printf("[%s] error: %v", name, err)
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				log.Printf("[%s] error: %v", name, err)
			}
		}
	}
}
