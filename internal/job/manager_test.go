package job

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/cache"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/errs"
	"leadscout-engine/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, store.Migrate(d.Pool))
	return d.Pool
}

type fakeBus struct {
	ids        []string
	priorities []domain.Priority
	full       bool
}

func (f *fakeBus) Enqueue(jobID string, priority domain.Priority) bool {
	if f.full {
		return false
	}
	f.ids = append(f.ids, jobID)
	f.priorities = append(f.priorities, priority)
	return true
}

func newTestManager(t *testing.T) (*Manager, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	return &Manager{DB: openTestDB(t), Bus: bus}, bus
}

func TestManagerCreate_PersistsAndEnqueues(t *testing.T) {
	m, bus := newTestManager(t)

	j, err := m.Create(context.Background(), CreateRequest{
		Query:    "  Plumbers   near me ",
		Location: "Austin, TX",
		Count:    25,
		Priority: "HIGH",
	})
	require.NoError(t, err)
	assert.True(t, domain.ValidJobID(j.ID))
	assert.Equal(t, "Plumbers near me", j.Query)
	assert.Equal(t, domain.JobPending, j.Status)
	assert.Equal(t, domain.PriorityHigh, j.Priority)

	require.Len(t, bus.ids, 1)
	assert.Equal(t, j.ID, bus.ids[0])
	assert.Equal(t, domain.PriorityHigh, bus.priorities[0])

	got, err := m.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.Query, got.Query)
}

func TestManagerCreate_Validation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"empty query", CreateRequest{Query: "   "}},
		{"query too long", CreateRequest{Query: strings.Repeat("x", 201)}},
		{"query with markup", CreateRequest{Query: "<script>alert(1)</script>"}},
		{"location too long", CreateRequest{Query: "plumbers", Location: strings.Repeat("y", 121)}},
		{"bad priority", CreateRequest{Query: "plumbers", Priority: "urgent"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := m.Create(ctx, c.req)
			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		})
	}
}

func TestManagerCreate_CountClamped(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	j, err := m.Create(ctx, CreateRequest{Query: "plumbers", Count: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, j.TargetCount)

	j, err = m.Create(ctx, CreateRequest{Query: "plumbers", Count: 10000})
	require.NoError(t, err)
	assert.Equal(t, 500, j.TargetCount)
}

func TestManagerCreate_DefaultPriority(t *testing.T) {
	m, _ := newTestManager(t)
	j, err := m.Create(context.Background(), CreateRequest{Query: "plumbers"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, j.Priority)
}

func TestManagerCreate_FullQueueLeavesJobPending(t *testing.T) {
	m, bus := newTestManager(t)
	bus.full = true

	j, err := m.Create(context.Background(), CreateRequest{Query: "plumbers"})
	require.NoError(t, err)

	got, err := m.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, got.Status)
}

func TestManagerCreate_ServesFromCache(t *testing.T) {
	db := openTestDB(t)
	layer := cache.New(db, time.Hour, 100, []string{"plumbers|austin, tx"})
	_, err := layer.Store(context.Background(), "plumbers", "austin, tx",
		[]domain.Business{{Name: "Acme Plumbing", Source: "places"}})
	require.NoError(t, err)

	bus := &fakeBus{}
	m := &Manager{DB: db, Bus: bus, Cache: layer}

	j, err := m.Create(context.Background(), CreateRequest{Query: "Plumbers", Location: "Austin, TX", Count: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, j.Status)
	assert.Equal(t, 100, j.Progress)
	assert.Empty(t, bus.ids, "cached jobs never hit the dispatcher")

	businesses, err := store.ListBusinessesAfter(context.Background(), db, j.ID, 0)
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Acme Plumbing", businesses[0].Name)
}

func TestManagerGet_RejectsForeignIDs(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Get(context.Background(), "not-a-job")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = m.Get(context.Background(), "job_1_missing")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestManagerCancel_PendingJob(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	j, err := m.Create(ctx, CreateRequest{Query: "plumbers"})
	require.NoError(t, err)

	require.NoError(t, m.Cancel(ctx, j.ID))

	got, err := m.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, got.Status)
}

func TestManagerCancel_UnknownJob(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Cancel(context.Background(), "job_1_missing")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestManagerMarkFailed(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	j, err := m.Create(ctx, CreateRequest{Query: "plumbers"})
	require.NoError(t, err)

	m.MarkFailed(ctx, j.ID, "Search failed after retries: boom")

	got, err := m.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.Status)
	assert.Contains(t, got.Message, "boom")
}
