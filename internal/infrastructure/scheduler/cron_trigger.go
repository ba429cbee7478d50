package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a recurring unit of background work. Exactly one of Every or
// Daily is set: Every runs the task on a fixed interval, Daily once a day
// at Hour:Minute local time.
type Task struct {
	Name   string
	Run    TaskFunc
	Every  time.Duration
	Daily  bool
	Hour   int
	Minute int
	// RunOnStart submits an interval task as soon as the trigger starts
	RunOnStart bool
}

func (t Task) validate() error {
	switch {
	case t.Name == "" || t.Run == nil:
		return fmt.Errorf("%w: task needs a name and a body", ErrInvalidConfig)
	case t.Daily && t.Every > 0:
		return fmt.Errorf("%w: task %s is both daily and interval", ErrInvalidConfig, t.Name)
	case t.Daily && (t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59):
		return fmt.Errorf("%w: task %s has invalid time %02d:%02d", ErrInvalidConfig, t.Name, t.Hour, t.Minute)
	case !t.Daily && t.Every <= 0:
		return fmt.Errorf("%w: task %s has no schedule", ErrInvalidConfig, t.Name)
	}
	return nil
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// CheckInterval is how often to check if a task is due
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{CheckInterval: time.Minute}
}

// CronTrigger submits registered tasks to the scheduler when they are due
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	tasks []Task
	// lastRun holds the date (daily tasks) or time (interval tasks) of the last submission
	lastRunDate map[string]string
	lastRunAt   map[string]time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCronTriggerConfig().CheckInterval
	}
	return &CronTrigger{
		config:      config,
		scheduler:   scheduler,
		logger:      logger,
		lastRunDate: make(map[string]string),
		lastRunAt:   make(map[string]time.Time),
	}
}

// Register adds a task. Tasks must be registered before Start.
func (c *CronTrigger) Register(task Task) error {
	if err := task.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.Name == task.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
		}
	}
	c.tasks = append(c.tasks, task)
	return nil
}

// Tasks returns the registered tasks
func (c *CronTrigger) Tasks() []Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Task(nil), c.tasks...)
}

// Start starts the trigger loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	now := time.Now()
	var immediate []Task
	for _, t := range c.tasks {
		if t.Daily {
			continue
		}
		if t.RunOnStart {
			immediate = append(immediate, t)
			continue
		}
		c.lastRunAt[t.Name] = now
	}
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, t := range immediate {
		c.submit(t, now)
	}

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("tasks", len(c.tasks)),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.CheckAndTrigger(now)
		}
	}
}

// CheckAndTrigger submits every task that is due at now and returns
// their names.
func (c *CronTrigger) CheckAndTrigger(now time.Time) []string {
	c.mu.Lock()
	var due []Task
	for _, t := range c.tasks {
		if c.isDue(t, now) {
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	names := make([]string, 0, len(due))
	for _, t := range due {
		c.submit(t, now)
		names = append(names, t.Name)
	}
	return names
}

// isDue must be called with mu held
func (c *CronTrigger) isDue(t Task, now time.Time) bool {
	if t.Daily {
		date := now.Format("2006-01-02")
		if c.lastRunDate[t.Name] == date {
			return false
		}
		// a missed minute still runs later the same day
		scheduled := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
		return !now.Before(scheduled)
	}
	last, ok := c.lastRunAt[t.Name]
	return !ok || now.Sub(last) >= t.Every
}

func (c *CronTrigger) submit(t Task, now time.Time) {
	c.mu.Lock()
	if t.Daily {
		c.lastRunDate[t.Name] = now.Format("2006-01-02")
	} else {
		c.lastRunAt[t.Name] = now
	}
	c.mu.Unlock()

	if err := c.scheduler.Submit(t.Name, t.Run); err != nil {
		c.logger.Error("Failed to submit task", zap.String("task", t.Name), zap.Error(err))
		return
	}
	c.logger.Debug("Task triggered", zap.String("task", t.Name))
}

// TriggerNow submits a registered task immediately, outside its schedule
func (c *CronTrigger) TriggerNow(name string) error {
	for _, t := range c.Tasks() {
		if t.Name == name {
			return c.scheduler.Submit(t.Name, t.Run)
		}
	}
	return fmt.Errorf("%w: unknown task %s", ErrInvalidConfig, name)
}
