package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/currency"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingObserver struct {
	mu      sync.Mutex
	results []JobStatus
}

func (o *recordingObserver) JobFinished(_ string, status JobStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, status)
}

func (o *recordingObserver) statuses() []JobStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]JobStatus(nil), o.results...)
}

func startScheduler(t *testing.T, cfg SchedulerConfig) (*Scheduler, *recordingObserver) {
	t.Helper()
	s := NewScheduler(cfg, zaptest.NewLogger(t))
	obs := &recordingObserver{}
	s.SetObserver(obs)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s, obs
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob("demo", func(context.Context) error { return nil }, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())
	job.ScheduleRetry(time.Second)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_RunsSubmittedJobs(t *testing.T) {
	s, obs := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 2, JobTimeout: time.Second})

	var runs atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Submit("count", func(context.Context) error {
			runs.Add(1)
			return nil
		}))
	}

	assert.Eventually(t, func() bool { return runs.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(obs.statuses()) == 3 }, time.Second, 5*time.Millisecond)
	for _, st := range obs.statuses() {
		assert.Equal(t, JobStatusSuccess, st)
	}
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	s, obs := startScheduler(t, SchedulerConfig{
		MaxConcurrentJobs: 1,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        5 * time.Millisecond,
	})

	var attempts atomic.Int32
	require.NoError(t, s.Submit("flaky", func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("gateway unavailable")
		}
		return nil
	}))

	assert.Eventually(t, func() bool { return len(obs.statuses()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []JobStatus{JobStatusFailed, JobStatusFailed, JobStatusSuccess}, obs.statuses())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s, obs := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 1, JobTimeout: time.Second})

	require.NoError(t, s.Submit("explode", func(context.Context) error { panic("nil map") }))
	assert.Eventually(t, func() bool { return len(obs.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, JobStatusFailed, obs.statuses()[0])
}

func TestScheduler_JobTimeout(t *testing.T) {
	s, obs := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 1, JobTimeout: 20 * time.Millisecond})

	require.NoError(t, s.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	assert.Eventually(t, func() bool { return len(obs.statuses()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, JobStatusFailed, obs.statuses()[0])
}

func TestScheduler_SubmitWhenStopped(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), zap.NewNop())
	err := s.Submit("noop", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestTask_Validate(t *testing.T) {
	run := func(context.Context) error { return nil }
	tests := []struct {
		name string
		task Task
		ok   bool
	}{
		{"interval", Task{Name: "a", Run: run, Every: time.Minute}, true},
		{"daily", Task{Name: "a", Run: run, Daily: true, Hour: 2}, true},
		{"no name", Task{Run: run, Every: time.Minute}, false},
		{"no schedule", Task{Name: "a", Run: run}, false},
		{"both", Task{Name: "a", Run: run, Daily: true, Every: time.Minute}, false},
		{"bad hour", Task{Name: "a", Run: run, Daily: true, Hour: 24}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestCronTrigger_DailyTask(t *testing.T) {
	s, obs := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 1, JobTimeout: time.Second})
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, zaptest.NewLogger(t))

	require.NoError(t, trigger.Register(Task{
		Name: "expiry", Daily: true, Hour: 2,
		Run: func(context.Context) error { return nil },
	}))
	assert.ErrorIs(t, trigger.Register(Task{Name: "expiry", Every: time.Minute, Run: func(context.Context) error { return nil }}), ErrDuplicateTask)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, trigger.CheckAndTrigger(day.Add(time.Hour+59*time.Minute)))
	assert.Equal(t, []string{"expiry"}, trigger.CheckAndTrigger(day.Add(2*time.Hour)))
	assert.Empty(t, trigger.CheckAndTrigger(day.Add(2*time.Hour+time.Minute)), "runs once per day")
	assert.Equal(t, []string{"expiry"}, trigger.CheckAndTrigger(day.Add(26*time.Hour+30*time.Minute)), "late tick the next day still runs")

	assert.Eventually(t, func() bool { return len(obs.statuses()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestCronTrigger_IntervalTask(t *testing.T) {
	s, _ := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 1, JobTimeout: time.Second})
	trigger := NewCronTrigger(CronTriggerConfig{CheckInterval: time.Hour}, s, zaptest.NewLogger(t))

	var runs atomic.Int32
	require.NoError(t, trigger.Register(Task{
		Name: "sweep", Every: 15 * time.Minute,
		Run: func(context.Context) error { runs.Add(1); return nil },
	}))

	start := time.Now()
	assert.Equal(t, []string{"sweep"}, trigger.CheckAndTrigger(start), "never run before")
	assert.Empty(t, trigger.CheckAndTrigger(start.Add(14*time.Minute)))
	assert.Equal(t, []string{"sweep"}, trigger.CheckAndTrigger(start.Add(15*time.Minute)))

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s, _ := startScheduler(t, SchedulerConfig{MaxConcurrentJobs: 1, JobTimeout: time.Second})
	trigger := NewCronTrigger(CronTriggerConfig{CheckInterval: 10 * time.Millisecond}, s, zaptest.NewLogger(t))

	var boot, periodic atomic.Int32
	require.NoError(t, trigger.Register(Task{
		Name: "rates", Every: time.Hour, RunOnStart: true,
		Run: func(context.Context) error { boot.Add(1); return nil },
	}))
	require.NoError(t, trigger.Register(Task{
		Name: "sweep", Every: time.Hour,
		Run: func(context.Context) error { periodic.Add(1); return nil },
	}))

	require.NoError(t, trigger.Start(context.Background()))
	assert.Eventually(t, func() bool { return boot.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, periodic.Load(), "interval task waits a full period after start")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.TriggerNow("sweep"))
	assert.Eventually(t, func() bool { return periodic.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, trigger.TriggerNow("missing"), ErrInvalidConfig)
}

type stubExpirer struct{ calls atomic.Int32 }

func (s *stubExpirer) CheckExpired(context.Context) (billingapp.ExpiryResult, error) {
	s.calls.Add(1)
	return billingapp.ExpiryResult{Processed: 2, Downgraded: 2}, nil
}

type stubSweeper struct{ after time.Duration }

func (s *stubSweeper) MarkAbandoned(_ context.Context, after time.Duration) (int64, error) {
	s.after = after
	return 3, nil
}

type stubRefresher struct{ err error }

func (s stubRefresher) Refresh(context.Context) (currency.Rates, error) {
	return currency.DefaultRates(), s.err
}

func TestTasks(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	expirer := &stubExpirer{}
	expiry := SubscriptionExpiryTask(expirer, 2, 0, logger)
	require.NoError(t, expiry.validate())
	assert.True(t, expiry.Daily)
	require.NoError(t, expiry.Run(ctx))
	assert.Equal(t, int32(1), expirer.calls.Load())

	sweeper := &stubSweeper{}
	abandoned := AbandonedPaymentsTask(sweeper, 15*time.Minute, 30*time.Minute, logger)
	require.NoError(t, abandoned.validate())
	require.NoError(t, abandoned.Run(ctx))
	assert.Equal(t, 30*time.Minute, sweeper.after)

	rates := ExchangeRatesTask(stubRefresher{}, 6*time.Hour, logger)
	assert.True(t, rates.RunOnStart)
	require.NoError(t, rates.Run(ctx))
	failing := ExchangeRatesTask(stubRefresher{err: errors.New("offline")}, 6*time.Hour, logger)
	assert.Error(t, failing.Run(ctx))
}
