package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name     string
	running  int32
	overlaps int32
	runs     int32
	sleep    time.Duration
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&j.running, 0, 1) {
		atomic.AddInt32(&j.overlaps, 1)
		return nil
	}
	defer atomic.StoreInt32(&j.running, 0)
	atomic.AddInt32(&j.runs, 1)
	time.Sleep(j.sleep)
	return nil
}

func TestScheduler_NonOverlappingJobNeverRunsConcurrently(t *testing.T) {
	job := &countingJob{name: "slow", sleep: 80 * time.Millisecond}

	s := New(context.Background(), zerolog.Nop())
	require.NoError(t, s.AddJob("@every 20ms", job))
	s.Start()

	time.Sleep(250 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&job.overlaps))
	assert.Greater(t, atomic.LoadInt32(&job.runs), int32(0))
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	job := &countingJob{name: "slow", sleep: 100 * time.Millisecond}

	s := New(context.Background(), zerolog.Nop())
	require.NoError(t, s.AddJob("@every 10ms", job))
	s.Start()

	time.Sleep(15 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&job.running))
}

func TestScheduler_RejectsInvalidSchedule(t *testing.T) {
	job := &countingJob{name: "bad"}
	s := New(context.Background(), zerolog.Nop())
	err := s.AddJob("not-a-schedule", job)
	assert.Error(t, err)
}
