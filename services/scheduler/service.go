package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"geekhub/internal/logging"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyRunning = errors.New("task is already running")
	ErrDuplicateTask      = errors.New("task already registered")
)

// Task is a named job run on a cron schedule.
type Task struct {
	Name string
	// Spec is a standard five-field cron expression or a descriptor such as "@hourly".
	Spec string
	Run  func(ctx context.Context) error
}

// TaskStatus reports the last outcome of a task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Spec      string     `json:"spec"`
	Running   bool       `json:"running"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`
}

type taskState struct {
	task      Task
	entryID   cron.EntryID
	lastRunAt *time.Time
	lastError string
}

// Service manages scheduled task execution
type Service struct {
	cron   *cron.Cron
	logger *slog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Task state tracking (in-memory, not persisted); taskMu also guards ctx
	ctx         context.Context
	tasks       map[string]*taskState
	order       []string
	taskRunning map[string]bool
	taskMu      sync.RWMutex
}

// NewService creates a new scheduler service
func NewService() *Service {
	logger := logging.With("component", "scheduler")
	return &Service{
		cron:        cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cronLogger{logger}))),
		logger:      logger,
		ctx:         context.Background(),
		tasks:       make(map[string]*taskState),
		taskRunning: make(map[string]bool),
	}
}

// Register adds a task to the schedule. Tasks may be registered before or after Start.
func (s *Service) Register(task Task) error {
	if task.Name == "" || task.Run == nil {
		return fmt.Errorf("register task: name and run are required")
	}

	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
	}
	name := task.Name
	id, err := s.cron.AddFunc(task.Spec, func() {
		if err := s.trigger(name); errors.Is(err, ErrTaskAlreadyRunning) {
			s.logger.Info("skipping task, previous run still in progress", "task", name)
		}
	})
	if err != nil {
		return fmt.Errorf("register task %s: %w", task.Name, err)
	}
	s.tasks[name] = &taskState{task: task, entryID: id}
	s.order = append(s.order, name)
	return nil
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.taskMu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.taskMu.Unlock()
	s.running = true
	s.cron.Start()

	s.logger.Info("scheduler started", "tasks", len(s.order))
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	cronDone := s.cron.Stop()
	s.cancel()

	// Wait for all tasks to complete with timeout
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before tasks finished", "error", ctx.Err())
	}

	s.running = false
	return nil
}

// RunTaskNow triggers immediate execution of a task
func (s *Service) RunTaskNow(name string) error {
	return s.trigger(name)
}

func (s *Service) trigger(name string) error {
	s.taskMu.Lock()
	state, ok := s.tasks[name]
	if !ok {
		s.taskMu.Unlock()
		return ErrTaskNotFound
	}
	if s.taskRunning[name] {
		s.taskMu.Unlock()
		return ErrTaskAlreadyRunning
	}
	s.taskRunning[name] = true
	ctx := s.ctx
	s.taskMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeTask(ctx, state)
	}()
	return nil
}

// executeTask runs a task and updates its status
func (s *Service) executeTask(ctx context.Context, state *taskState) {
	name := state.task.Name
	defer func() {
		s.taskMu.Lock()
		delete(s.taskRunning, name)
		s.taskMu.Unlock()
	}()

	started := time.Now().UTC()
	s.logger.Debug("executing task", "task", name)

	err := runSafely(ctx, state.task.Run)

	s.taskMu.Lock()
	state.lastRunAt = &started
	state.lastError = ""
	if err != nil {
		state.lastError = err.Error()
	}
	s.taskMu.Unlock()

	if err != nil {
		s.logger.Error("task failed", "task", name, "error", err)
		return
	}
	s.logger.Info("task completed", "task", name, "duration", time.Since(started))
}

func runSafely(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return run(ctx)
}

// GetTaskStatus returns all tasks with their current status, in registration order.
func (s *Service) GetTaskStatus() []TaskStatus {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	out := make([]TaskStatus, 0, len(s.order))
	for _, name := range s.order {
		state := s.tasks[name]
		status := TaskStatus{
			Name:      name,
			Spec:      state.task.Spec,
			Running:   s.taskRunning[name],
			LastRunAt: state.lastRunAt,
			LastError: state.lastError,
		}
		if next := s.cron.Entry(state.entryID).Next; !next.IsZero() {
			status.NextRunAt = &next
		}
		out = append(out, status)
	}
	return out
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
