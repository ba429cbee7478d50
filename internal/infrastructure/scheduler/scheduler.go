// Package scheduler runs WaZhop's background maintenance: the daily
// subscription expiry sweep, abandoned payment cleanup and exchange rate
// refreshes.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// TaskFunc is the body of a background task
type TaskFunc func(ctx context.Context) error

// Job is one execution of a named task
type Job struct {
	ID          uuid.UUID
	Task        string
	Run         TaskFunc
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new job instance
func NewJob(task string, run TaskFunc, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Task:       task,
		Run:        run,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     2,
		RetryDelay:        time.Minute,
	}
}

// JobObserver is notified after every job run. Used for metrics.
type JobObserver interface {
	JobFinished(task string, status JobStatus, duration time.Duration)
}

// Scheduler is a small worker pool executing submitted jobs with a timeout
// and bounded retries.
type Scheduler struct {
	config   SchedulerConfig
	logger   *zap.Logger
	observer JobObserver

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = 1
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(chan *Job, 100),
	}
}

// SetObserver registers an observer for finished jobs
func (s *Scheduler) SetObserver(o JobObserver) {
	s.observer = o
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("task", job.Task),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// Submit queues a new run of a task
func (s *Scheduler) Submit(task string, run TaskFunc) error {
	return s.SubmitJob(NewJob(task, run, s.config.RetryAttempts))
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	if job.NextRetryAt != nil {
		wait := time.Until(*job.NextRetryAt)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("task", job.Task),
	)
	log.Debug("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.execute(jobCtx, job)
	cancel()

	duration := time.Since(*job.StartedAt)
	if err != nil {
		job.Fail(err.Error())
		log.Error("Job failed", zap.Error(err), zap.Int("retry_count", job.RetryCount))
		s.observe(job, duration)

		if job.ShouldRetry() && ctx.Err() == nil {
			job.ScheduleRetry(s.config.RetryDelay)
			select {
			case s.jobs <- job:
				log.Info("Job scheduled for retry", zap.Int("retry_count", job.RetryCount))
			default:
				log.Warn("Failed to re-queue job for retry")
			}
		}
		return
	}

	job.Complete()
	log.Info("Job completed", zap.Duration("duration", duration))
	s.observe(job, duration)
}

// execute runs the task and turns a panic into a failed job
func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "job."+job.Task,
		attribute.String("job.id", job.ID.String()),
		attribute.Int("job.retry_count", job.RetryCount))
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: job.Task, Value: r}
		}
		telemetry.EndSpan(span, err)
	}()
	return job.Run(ctx)
}

func (s *Scheduler) observe(job *Job, d time.Duration) {
	if s.observer != nil {
		s.observer.JobFinished(job.Task, job.Status, d)
	}
}
