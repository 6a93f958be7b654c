package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signal-systemv1/internal/model"
)

// hardCap bounds pool size regardless of configuration.
const hardCap = 20

// BatchResult summarizes one scheduler cycle over all enabled targets.
type BatchResult struct {
	SuccessCount int
	ErrorCount   int
	Errors       map[string]error // keyed by target key
	Elapsed      time.Duration
}

// Task processes one target within a batch.
type Task func(ctx context.Context, t model.Target) error

// ProcessBatch runs the task for every target on a pool sized
// min(len(targets), maxWorkers, 20) and waits for all of them before
// returning. Failures — including panics — are isolated per target and
// collected into the result; one bad target never cancels the rest.
func ProcessBatch(ctx context.Context, targets []model.Target, maxWorkers int, task Task) BatchResult {
	start := time.Now()
	res := BatchResult{Errors: make(map[string]error)}
	if len(targets) == 0 {
		res.Elapsed = time.Since(start)
		return res
	}

	workers := len(targets)
	if maxWorkers > 0 && maxWorkers < workers {
		workers = maxWorkers
	}
	if workers > hardCap {
		workers = hardCap
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
		mu  sync.Mutex
	)
	for _, t := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(t model.Target) {
			defer wg.Done()
			defer func() { <-sem }()
			err := runTask(ctx, t, task)
			mu.Lock()
			if err != nil {
				res.ErrorCount++
				res.Errors[t.Key()] = err
			} else {
				res.SuccessCount++
			}
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	res.Elapsed = time.Since(start)
	return res
}

// runTask converts a task panic into a per-target error.
func runTask(ctx context.Context, t model.Target, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", t.Key(), r)
		}
	}()
	return task(ctx, t)
}
