package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrUnknownJob = errors.New("job não encontrado")

// Job is a periodic task. An empty Schedule disables it.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// JobStatus is what the jobs endpoint reports
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type registered struct {
	job     Job
	entryID cron.EntryID
	lastRun *time.Time
	lastErr string
}

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	jobs map[string]*registered
}

func New(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		logger: logger,
		now:    time.Now,
		jobs:   map[string]*registered{},
	}
}

// Register adds job to the schedule. Jobs without a schedule are skipped.
func (s *Scheduler) Register(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("job disabled, no schedule", zap.String("job", job.Name))
		return nil
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	reg := &registered{job: job}
	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.execute(reg) })
	if err != nil {
		return fmt.Errorf("failed to add job %s to scheduler: %w", job.Name, err)
	}
	reg.entryID = entryID
	s.jobs[job.Name] = reg
	s.logger.Info("job registered", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	reg, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownJob
	}
	return s.execute(reg)
}

func (s *Scheduler) execute(reg *registered) error {
	ctx := context.Background()
	if reg.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, reg.job.Timeout)
		defer cancel()
	}

	start := s.now()
	err := reg.job.Run(ctx)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	reg.lastRun = &start
	reg.lastErr = ""
	if err != nil {
		reg.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", zap.String("job", reg.job.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	s.logger.Info("job finished", zap.String("job", reg.job.Name), zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, reg := range s.jobs {
		st := JobStatus{Name: name, Schedule: reg.job.Schedule, LastRun: reg.lastRun, LastError: reg.lastErr}
		if next := s.cron.Entry(reg.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger routes robfig/cron's own logging into zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
