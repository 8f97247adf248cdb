package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
	called  chan struct{}
}

func (f *fakePurger) Purge(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, before)
	f.mu.Unlock()
	if f.called != nil {
		select {
		case f.called <- struct{}{}:
		default:
		}
	}
	return 3, f.err
}

func TestJanitor_RunOnce_Cutoff(t *testing.T) {
	t.Parallel()

	p := &fakePurger{}
	j := NewJanitor(p, time.Minute, 30*time.Minute, zaptest.NewLogger(t))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	j.runOnce()
	p.err = errors.New("db down")
	j.runOnce()

	require.Len(t, p.cutoffs, 2)
	require.Equal(t, now.Add(-30*time.Minute), p.cutoffs[0])
}

func TestJanitor_StartStop(t *testing.T) {
	t.Parallel()

	p := &fakePurger{called: make(chan struct{}, 1)}
	j := NewJanitor(p, time.Hour, time.Hour, zaptest.NewLogger(t))

	require.NoError(t, j.Start())
	require.Error(t, j.Start())

	select {
	case <-p.called:
	case <-time.After(5 * time.Second):
		t.Fatal("purge was not run on start")
	}

	require.NoError(t, j.Stop())
	require.NoError(t, j.Stop())
}

func TestJanitor_BadInterval(t *testing.T) {
	t.Parallel()

	j := NewJanitor(&fakePurger{}, 0, time.Hour, nil)
	require.Error(t, j.Start())
}
