// Package bus dispatches job-creation events to the worker with bounded
// retry. One consumer goroutine processes jobs, so a job id is never worked
// on by two invocations at once.
package bus

import (
	"context"
	"log"
	"time"

	"leadscout-engine/internal/domain"
)

// Runner executes the pipeline for one job.
type Runner func(ctx context.Context, jobID string) error

// FailFunc marks a job failed once retries are exhausted.
type FailFunc func(ctx context.Context, jobID string, message string)

type Bus struct {
	high   chan string
	normal chan string
	low    chan string

	runner      Runner
	onFail      FailFunc
	maxAttempts int
	backoffBase time.Duration
}

func New(runner Runner, onFail FailFunc, maxAttempts int, backoffBase time.Duration) *Bus {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}
	return &Bus{
		high:        make(chan string, 64),
		normal:      make(chan string, 256),
		low:         make(chan string, 256),
		runner:      runner,
		onFail:      onFail,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Enqueue queues a creation event. Returns false when the lane is full;
// callers surface that as a transient error.
func (b *Bus) Enqueue(jobID string, priority domain.Priority) bool {
	lane := b.normal
	switch priority {
	case domain.PriorityHigh:
		lane = b.high
	case domain.PriorityLow:
		lane = b.low
	}
	select {
	case lane <- jobID:
		return true
	default:
		return false
	}
}

// Start runs the consumer loop until ctx is done. High-priority jobs are
// drained before normal, normal before low.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		for {
			jobID, ok := b.next(ctx)
			if !ok {
				return
			}
			b.process(ctx, jobID)
		}
	}()
}

func (b *Bus) next(ctx context.Context) (string, bool) {
	// fast path: prefer higher lanes without blocking
	select {
	case id := <-b.high:
		return id, true
	default:
	}
	select {
	case id := <-b.high:
		return id, true
	case id := <-b.normal:
		return id, true
	default:
	}
	select {
	case <-ctx.Done():
		return "", false
	case id := <-b.high:
		return id, true
	case id := <-b.normal:
		return id, true
	case id := <-b.low:
		return id, true
	}
}

func (b *Bus) process(ctx context.Context, jobID string) {
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		lastErr = b.runner(ctx, jobID)
		if lastErr == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		delay := b.backoffBase * time.Duration(1<<(attempt-1))
		log.Printf("[bus] job=%s attempt=%d/%d failed, retrying in %s: %v",
			jobID, attempt, b.maxAttempts, delay, lastErr)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	log.Printf("[bus] job=%s exhausted %d attempts: %v", jobID, b.maxAttempts, lastErr)
	if b.onFail != nil {
		b.onFail(ctx, jobID, "Search failed after retries: "+lastErr.Error())
	}
}
