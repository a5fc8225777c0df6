package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_InstantAfterStart(t *testing.T) {
	s, err := New(context.Background())
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddSingletonJob("reconcile", "Reconcile", "@hourly", gocron.DurationJob(time.Hour), func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, true))

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run after start")
	}

	assert.Eventually(t, func() bool {
		info, ok := s.GetJob("reconcile")
		return ok && info.Status == JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	info, ok := s.GetJob("reconcile")
	require.True(t, ok)
	assert.Equal(t, 1, info.RunCount)
	assert.True(t, info.Singleton)
	assert.Equal(t, "@hourly", info.Schedule)
}

func TestScheduler_FailedJob(t *testing.T) {
	s, err := New(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.AddJob("broken", "Broken", "@hourly", gocron.DurationJob(time.Hour), func(ctx context.Context) error {
		return errors.New("boom")
	}, false))

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	info, ok := s.GetJob("broken")
	require.True(t, ok)
	assert.Equal(t, JobStatusScheduled, info.Status)

	require.NoError(t, s.RunJobNow("broken"))
	assert.Eventually(t, func() bool {
		info, _ := s.GetJob("broken")
		return info.Status == JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	info, _ = s.GetJob("broken")
	assert.Equal(t, 1, info.ErrorCount)
	assert.Equal(t, "boom", info.LastError)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s, err := New(context.Background())
	require.NoError(t, err)

	assert.Error(t, s.RunJobNow("nope"))
	_, ok := s.GetJob("nope")
	assert.False(t, ok)
}
