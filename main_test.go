package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 1, 1, 0, 0, 0, loc), time.Date(2026, 3, 1, 3, 0, 0, 0, loc)},
		{"exactly now", time.Date(2026, 3, 1, 3, 0, 0, 0, loc), time.Date(2026, 3, 2, 3, 0, 0, 0, loc)},
		{"already passed", time.Date(2026, 3, 1, 22, 15, 0, 0, loc), time.Date(2026, 3, 2, 3, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextRun(tt.now, 3, 0))
		})
	}
}

type fakeSweeper struct {
	idle time.Duration
	err  error
}

func (f *fakeSweeper) SweepAbandoned(_ context.Context, idle time.Duration) (int64, error) {
	f.idle = idle
	return 2, f.err
}

func TestSweepOnce(t *testing.T) {
	s := &fakeSweeper{}
	sweepOnce(context.Background(), s, 48*time.Hour, zaptest.NewLogger(t))
	assert.Equal(t, 48*time.Hour, s.idle)

	s.err = errors.New("db down")
	sweepOnce(context.Background(), s, time.Hour, zaptest.NewLogger(t))
}

func TestStartDailySweep_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		startDailySweepAtFixedTime(ctx, &fakeSweeper{}, time.Hour, 3, 0, zaptest.NewLogger(t))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
