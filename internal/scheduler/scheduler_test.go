package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/db/testdb"
	"github.com/budgetanalyzer/currency-service/internal/lease"
	"github.com/budgetanalyzer/currency-service/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name string
	runs int32
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func TestRunNow_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	database := testdb.Open(t)
	clk := &clock.Fixed{At: time.Now().UTC()}

	holder := lease.New(database.Conn(), "holder", clk)
	held, err := holder.TryAcquire(context.Background(), "daily_import", 15*time.Minute, time.Minute)
	assert.NoError(t, err)
	assert.NotNil(t, held)

	competitor := lease.New(database.Conn(), "competitor", clk)
	s := scheduler.New(competitor, zerolog.Nop(), 0, time.Millisecond)
	job := &countingJob{name: "daily_import"}

	s.RunNow(context.Background(), job, scheduler.LeaseConfig{Name: "daily_import", HoldAtMost: 15 * time.Minute, HoldAtLeast: time.Minute})
	assert.EqualValues(t, 0, job.runs, "job must not run while another replica holds the lease")
}

func TestRunNow_RunsOnceLeaseAcquired(t *testing.T) {
	database := testdb.Open(t)
	clk := &clock.Fixed{At: time.Now().UTC()}
	locker := lease.New(database.Conn(), "replica-a", clk)

	s := scheduler.New(locker, zerolog.Nop(), 0, time.Millisecond)
	job := &countingJob{name: "daily_import"}

	s.RunNow(context.Background(), job, scheduler.LeaseConfig{Name: "daily_import", HoldAtMost: 15 * time.Minute, HoldAtLeast: time.Minute})
	assert.EqualValues(t, 1, job.runs)
}

func TestRunNow_RetriesOnFailureUpToMax(t *testing.T) {
	database := testdb.Open(t)
	clk := &clock.Fixed{At: time.Now().UTC()}
	locker := lease.New(database.Conn(), "replica-a", clk)

	s := scheduler.New(locker, zerolog.Nop(), 2, time.Millisecond)
	job := &countingJob{name: "daily_import", err: errors.New("transient")}

	s.RunNow(context.Background(), job, scheduler.LeaseConfig{Name: "daily_import", HoldAtMost: 15 * time.Minute, HoldAtLeast: time.Minute})
	assert.EqualValues(t, 3, job.runs, "one initial attempt plus two retries")
}
