package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/domain"
)

func TestBus_HighLaneDrainsFirst(t *testing.T) {
	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	b := New(func(ctx context.Context, jobID string) error {
		mu.Lock()
		order = append(order, jobID)
		n := len(order)
		mu.Unlock()
		if n == 4 {
			close(done)
		}
		return nil
	}, nil, 1, time.Millisecond)

	// queued before the consumer starts, so lane preference is observable
	require.True(t, b.Enqueue("job_1_low", domain.PriorityLow))
	require.True(t, b.Enqueue("job_2_norm", domain.PriorityNormal))
	require.True(t, b.Enqueue("job_3_high", domain.PriorityHigh))
	require.True(t, b.Enqueue("job_4_high", domain.PriorityHigh))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not drain the queue")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"job_3_high", "job_4_high", "job_2_norm", "job_1_low"}, order)
}

func TestBus_RetriesThenMarksFailed(t *testing.T) {
	attempts := 0
	failed := make(chan string, 1)

	b := New(
		func(ctx context.Context, jobID string) error {
			attempts++
			return errors.New("transient")
		},
		func(ctx context.Context, jobID string, message string) {
			failed <- message
		},
		3, time.Millisecond,
	)

	require.True(t, b.Enqueue("job_1_a", domain.PriorityNormal))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	select {
	case msg := <-failed:
		assert.Contains(t, msg, "transient")
	case <-time.After(2 * time.Second):
		t.Fatal("onFail was never called")
	}
	assert.Equal(t, 3, attempts)
}

func TestBus_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	ok := make(chan struct{})
	failedCalled := false

	b := New(
		func(ctx context.Context, jobID string) error {
			attempts++
			if attempts < 2 {
				return errors.New("transient")
			}
			close(ok)
			return nil
		},
		func(ctx context.Context, jobID string, message string) { failedCalled = true },
		3, time.Millisecond,
	)

	require.True(t, b.Enqueue("job_1_a", domain.PriorityNormal))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("runner never succeeded")
	}
	assert.False(t, failedCalled)
}

func TestBus_EnqueueFullLane(t *testing.T) {
	b := New(func(ctx context.Context, jobID string) error { return nil }, nil, 1, time.Millisecond)

	// high lane holds 64 without a consumer
	for i := 0; i < 64; i++ {
		require.True(t, b.Enqueue("job_1_a", domain.PriorityHigh))
	}
	assert.False(t, b.Enqueue("job_1_b", domain.PriorityHigh))

	// other lanes are unaffected
	assert.True(t, b.Enqueue("job_1_c", domain.PriorityNormal))
}
