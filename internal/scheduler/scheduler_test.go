package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/series"
)

type window struct{ from, to time.Time }

type fakeRefresher struct {
	mu    sync.Mutex
	calls []window
	err   error
	ran   chan struct{}
}

func (f *fakeRefresher) Refresh(_ context.Context, from, to time.Time) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, window{from, to})
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	return 3, f.err
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(&fakeRefresher{}, Config{Spec: "every tuesday"}, zerolog.Nop())
	require.Error(t, err)
}

func TestRunOnce_Window(t *testing.T) {
	f := &fakeRefresher{}
	s, err := New(f, Config{Spec: "*/15 * * * *", Horizon: 48 * time.Hour}, zerolog.Nop())
	require.NoError(t, err)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, f.calls, 1)
	assert.Equal(t, now, f.calls[0].from)
	assert.Equal(t, now.Add(48*time.Hour), f.calls[0].to)

	f.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
}

type deadlineRefresher struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineRefresher) Refresh(ctx context.Context, _, _ time.Time) (int, error) {
	d.deadline, d.ok = ctx.Deadline()
	return 0, nil
}

func TestRunOnce_AppliesTimeout(t *testing.T) {
	d := &deadlineRefresher{}
	s, err := New(d, Config{Spec: "@every 1h", Timeout: time.Minute}, zerolog.Nop())
	require.NoError(t, err)

	before := time.Now()
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, d.ok, "run context has no deadline")
	assert.WithinDuration(t, before.Add(time.Minute), d.deadline, 5*time.Second)

	s.cfg.Timeout = 0
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, d.ok)
}

func TestRun_RefreshesOnStartAndStops(t *testing.T) {
	f := &fakeRefresher{ran: make(chan struct{}, 1)}
	s, err := New(f, Config{Spec: "@every 1h", Horizon: time.Hour}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-f.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("no refresh on start")
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunOnce_MaterializesActiveSeries(t *testing.T) {
	store := repository.NewMemorySeriesStore()
	svc := series.NewService(store, zerolog.Nop())
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	tpl, err := svc.CreateSeries(ctx, &model.Event{Title: "sync", StartsAt: start, EndsAt: start.Add(time.Hour)},
		recurrence.Rule{Frequency: recurrence.FreqDaily, Interval: 1})
	require.NoError(t, err)
	_, err = svc.ActivateSeries(ctx, tpl.ID)
	require.NoError(t, err)

	s, err := New(svc, Config{Spec: "@every 15m", Horizon: 6 * 24 * time.Hour}, zerolog.Nop())
	require.NoError(t, err)
	s.now = func() time.Time { return start.Add(-time.Hour) }

	n, err := s.RunOnce(ctx)
	require.NoError(t, err)
	// Mar 1 through Mar 7; the window's last day is covered whole
	assert.Equal(t, 7, n)

	n, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
