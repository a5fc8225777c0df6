package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID                string
	Name              string
	Schedule          string
	Status            JobStatus
	LastRun           time.Time
	LastDuration      time.Duration
	NextRun           time.Time
	RunCount          int
	ErrorCount        int
	LastError         string
	Singleton         bool
	InstantAfterStart bool

	job gocron.Job
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

// Scheduler runs jobs on a schedule.
type Scheduler struct {
	mu     sync.RWMutex
	gocron gocron.Scheduler
	jobs   map[string]*JobInfo
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler. Jobs receive a context derived from ctx
// that is cancelled when the scheduler stops.
func New(ctx context.Context) (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler and triggers the jobs marked to run instantly.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()

	s.mu.Lock()
	var instant []string
	for id, info := range s.jobs {
		if nextRun, err := info.job.NextRun(); err == nil {
			info.NextRun = nextRun
			log.Debug("Next run time for job", "id", id, "nextRun", nextRun)
		}
		if info.InstantAfterStart {
			instant = append(instant, id)
		}
	}
	s.mu.Unlock()

	for _, id := range instant {
		log.Info("Running job immediately after start", "id", id)
		if err := s.RunJobNow(id); err != nil {
			log.Error("Failed to run job immediately after start", "id", id, "error", err)
		}
	}
}

// Stop cancels running jobs and stops the scheduler.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddSingletonJob adds a job of which only one instance runs at a time.
// Runs that come due while the job is running are rescheduled.
func (s *Scheduler) AddSingletonJob(id, name, schedule string, jobDef gocron.JobDefinition, jobFunc JobFunc, instantAfterStart bool) error {
	return s.addJob(id, name, schedule, jobDef, jobFunc, true, instantAfterStart)
}

// AddJob adds a job that may run concurrently with itself.
func (s *Scheduler) AddJob(id, name, schedule string, jobDef gocron.JobDefinition, jobFunc JobFunc, instantAfterStart bool) error {
	return s.addJob(id, name, schedule, jobDef, jobFunc, false, instantAfterStart)
}

func (s *Scheduler) addJob(id, name, schedule string, jobDef gocron.JobDefinition, jobFunc JobFunc, singleton, instantAfterStart bool) error {
	var jobOptions []gocron.JobOption
	if singleton {
		jobOptions = append(jobOptions, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	}
	jobOptions = append(jobOptions, gocron.WithName(name))

	job, err := s.gocron.NewJob(jobDef, gocron.NewTask(s.wrapJobFunc(id, jobFunc)), jobOptions...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}

	s.mu.Lock()
	s.jobs[id] = &JobInfo{
		ID:                id,
		Name:              name,
		Schedule:          schedule,
		Status:            JobStatusScheduled,
		Singleton:         singleton,
		InstantAfterStart: instantAfterStart,
		job:               job,
	}
	s.mu.Unlock()

	log.Info("Added job to scheduler", "id", id, "name", name, "schedule", schedule, "singleton", singleton)
	return nil
}

// RunJobNow triggers a job to run immediately.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	info, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	if err := info.job.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJob returns a snapshot of the job with the given id.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *info, true
}

// wrapJobFunc wraps a job function to update job statistics.
func (s *Scheduler) wrapJobFunc(id string, jobFunc JobFunc) func() {
	return func() {
		s.mu.Lock()
		info := s.jobs[id]
		if info == nil {
			s.mu.Unlock()
			log.Error("Job info not found", "id", id)
			return
		}
		info.Status = JobStatusRunning
		info.LastRun = time.Now()
		info.RunCount++
		name := info.Name
		s.mu.Unlock()

		log.Info("Starting job", "id", id, "name", name)
		err := jobFunc(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		info.LastDuration = time.Since(info.LastRun)
		if nextRun, nextErr := info.job.NextRun(); nextErr == nil {
			info.NextRun = nextRun
		}
		if err != nil {
			log.Error("Job failed", "id", id, "name", name, "duration", info.LastDuration, "error", err)
			info.Status = JobStatusFailed
			info.ErrorCount++
			info.LastError = err.Error()
			return
		}
		log.Info("Job completed successfully", "id", id, "name", name, "duration", info.LastDuration, "nextRun", info.NextRun)
		info.Status = JobStatusCompleted
		info.LastError = ""
	}
}
