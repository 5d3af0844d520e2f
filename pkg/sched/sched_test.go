package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(nil, nil)
	err := s.Add("not a cron spec", "bad", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestNextReportsUpcomingRun(t *testing.T) {
	s := New(time.UTC, nil)
	require.NoError(t, s.Add("0 18 * * *", "daily-push", func(ctx context.Context) error { return nil }))

	s.Start()
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 18, next.Hour())
	assert.True(t, next.After(time.Now()))
}

func TestNextEmpty(t *testing.T) {
	s := New(nil, nil)
	s.Start()
	defer s.Stop()
	assert.True(t, s.Next().IsZero())
}

func TestAddRejectsDuplicateName(t *testing.T) {
	s := New(nil, nil)
	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Add("0 18 * * *", "daily-push", noop))
	assert.Error(t, s.Add("0 19 * * *", "daily-push", noop))
}

func TestRunSkipsOverlappingFire(t *testing.T) {
	s := New(nil, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	job := func(ctx context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}
	require.NoError(t, s.Add("0 18 * * *", "daily-push", job))

	go s.run("daily-push", job)
	<-started

	// Second fire while the first is still in flight must be dropped.
	s.run("daily-push", job)
	assert.Equal(t, int32(1), runs.Load())

	status := s.Status()
	require.Len(t, status, 1)
	assert.True(t, status[0].Running)

	close(release)
	require.Eventually(t, func() bool {
		return !s.Status()[0].Running
	}, time.Second, 5*time.Millisecond)
}

func TestStatusRecordsLastRunAndError(t *testing.T) {
	s := New(nil, nil)
	boom := errors.New("fetch failed")
	require.NoError(t, s.Add("0 18 * * *", "daily-push", func(ctx context.Context) error { return boom }))

	s.run("daily-push", func(ctx context.Context) error { return boom })

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "daily-push", status[0].Name)
	assert.False(t, status[0].Running)
	assert.False(t, status[0].LastRun.IsZero())
	assert.Equal(t, "fetch failed", status[0].LastError)

	s.run("daily-push", func(ctx context.Context) error { return nil })
	assert.Empty(t, s.Status()[0].LastError)
}
