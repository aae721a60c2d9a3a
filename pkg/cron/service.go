package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

const (
	statusOK    = "ok"
	statusLow   = "low"
	statusError = "error"
)

// BalanceFetcher reads the account balance.
type BalanceFetcher interface {
	Balance(ctx context.Context) (*pollinations.Balance, error)
}

// parser accepts five-field expressions and descriptors such as @every 5m.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Service runs balance watch jobs.
type Service struct {
	Fetcher BalanceFetcher
	OnCheck func(BalanceCheck)
	Timeout time.Duration

	cron    *cron.Cron
	jobs    map[string]*WatchJob
	entries map[string]cron.EntryID
	running bool
	mu      sync.RWMutex
}

// NewService creates a new balance watch service.
func NewService(fetcher BalanceFetcher, onCheck func(BalanceCheck)) *Service {
	return &Service{
		Fetcher: fetcher,
		OnCheck: onCheck,
		Timeout: 30 * time.Second,
		cron:    cron.New(cron.WithParser(parser)),
		jobs:    make(map[string]*WatchJob),
		entries: make(map[string]cron.EntryID),
	}
}

func nowMs() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// ValidateSchedule reports whether expr parses.
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// AddJob registers a watch job and returns its ID.
func (s *Service) AddJob(schedule string, threshold float64) (string, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return "", err
	}

	job := &WatchJob{
		ID:          uuid.New().String()[:8],
		Schedule:    schedule,
		Threshold:   threshold,
		CreatedAtMs: nowMs(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := job.ID
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.Check(context.Background(), id)
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule job: %w", err)
	}
	s.jobs[id] = job
	s.entries[id] = entryID
	return id, nil
}

// RemoveJob unschedules a job.
func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[id]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.entries, id)
	delete(s.jobs, id)
	return true
}

// ListJobs returns a snapshot of the jobs, earliest next run first.
func (s *Service) ListJobs() []WatchJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]WatchJob, 0, len(s.jobs))
	for id, job := range s.jobs {
		j := *job
		if next := s.cron.Entry(s.entries[id]).Next; !next.IsZero() {
			j.State.NextRunAtMs = next.UnixNano() / int64(time.Millisecond)
		}
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].State.NextRunAtMs != jobs[k].State.NextRunAtMs {
			return jobs[i].State.NextRunAtMs < jobs[k].State.NextRunAtMs
		}
		return jobs[i].ID < jobs[k].ID
	})
	return jobs
}

// Start starts the scheduler.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.WithField("jobs", len(s.jobs)).Info("balance watcher started")
}

// Stop stops the scheduler and waits for running checks to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info("balance watcher stopped")
}

// Check runs job id once and reports the result through OnCheck.
func (s *Service) Check(ctx context.Context, id string) BalanceCheck {
	s.mu.RLock()
	job, ok := s.jobs[id]
	var threshold float64
	if ok {
		threshold = job.Threshold
	}
	s.mu.RUnlock()

	result := BalanceCheck{JobID: id, Threshold: threshold, CheckedAt: time.Now()}
	if !ok {
		result.Err = fmt.Errorf("job not found: %s", id)
		return result
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	b, err := s.Fetcher.Balance(ctx)
	if err != nil {
		result.Err = err
	} else {
		result.Balance = b.Balance
		result.Low = b.Balance < threshold
	}
	s.record(result)

	if s.OnCheck != nil {
		s.OnCheck(result)
	}
	return result
}

func (s *Service) record(result BalanceCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[result.JobID]
	if !ok {
		return
	}
	job.State.LastRunAtMs = result.CheckedAt.UnixNano() / int64(time.Millisecond)
	job.State.LastError = ""
	switch {
	case result.Err != nil:
		job.State.LastStatus = statusError
		job.State.LastError = result.Err.Error()
		log.WithField("job", job.ID).Warnf("balance check failed: %v", result.Err)
	case result.Low:
		job.State.LastStatus = statusLow
		job.State.LastBalance = result.Balance
		log.WithFields(log.Fields{"job": job.ID, "balance": result.Balance, "threshold": result.Threshold}).Warn("balance below threshold")
	default:
		job.State.LastStatus = statusOK
		job.State.LastBalance = result.Balance
		log.WithFields(log.Fields{"job": job.ID, "balance": result.Balance}).Debug("balance checked")
	}
}
