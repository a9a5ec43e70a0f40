package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextWake(t *testing.T) {
	s := &AlignedScheduler{Interval: 5 * time.Minute, Offset: 10 * time.Second}
	now := time.Date(2026, 8, 28, 10, 2, 0, 0, time.UTC)

	wakeAt, wait := s.nextWake(now)
	assert.Equal(t, time.Date(2026, 8, 28, 10, 5, 10, 0, time.UTC), wakeAt)
	assert.Equal(t, 3*time.Minute+10*time.Second, wait)
}

func TestStartRunsImmediatelyThenStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewAlignedScheduler(ctx, time.Hour, 0)
	s.RunImmediately = true

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(func() {
			runs.Add(1)
			cancel()
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestStartRejectsBadInput(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), 0, 0)
	s.Start(func() { t.Fatal("must not run with zero interval") })

	var nilSched *AlignedScheduler
	nilSched.Start(func() { t.Fatal("must not run on nil scheduler") })
}
