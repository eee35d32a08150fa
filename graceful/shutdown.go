// File: graceful/shutdown.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/internal/obs"
)

// ErrDeadlineExceeded matches every *DeadlineExceededError.
var ErrDeadlineExceeded = errors.New("graceful shutdown deadline exceeded")

// DeadlineExceededError names the tasks still running when the limit expired.
type DeadlineExceededError struct {
	Pending []string
	Elapsed time.Duration
	cause   error
}

func (e *DeadlineExceededError) Error() string {
	return fmt.Sprintf("graceful: shutdown deadline exceeded after %s with %d task(s) pending: %v",
		e.Elapsed.Round(time.Millisecond), len(e.Pending), e.Pending)
}

// Is reports whether target is ErrDeadlineExceeded.
func (e *DeadlineExceededError) Is(target error) bool { return target == ErrDeadlineExceeded }

// Unwrap returns the context error that ended the wait.
func (e *DeadlineExceededError) Unwrap() error { return e.cause }

// Option customizes a Shutdown.
type Option func(*Shutdown)

// WithLogger sets the logger used for lifecycle and task panic reports.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shutdown) {
		s.logger = l
	}
}

// Shutdown registers tasks and stops them together.
type Shutdown struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.Mutex
	tasks  map[uint64]string
	nextID uint64
	idle   chan struct{} // closed whenever tasks is empty
}

var _ api.GracefulShutdown = (*Shutdown)(nil)

// New creates a coordinator with no tasks.
func New(opts ...Option) *Shutdown {
	return NewWithContext(context.Background(), opts...)
}

// NewWithContext creates a coordinator whose stop signal also fires when
// parent is done, e.g. a context from signal.NotifyContext.
func NewWithContext(parent context.Context, opts ...Option) *Shutdown {
	ctx, cancel := context.WithCancel(parent)
	idle := make(chan struct{})
	close(idle)
	s := &Shutdown{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[uint64]string),
		idle:   idle,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = obs.Logger(s.logger)
	return s
}

// Spawn registers a task and runs fn on its own goroutine. Registration
// happens before Spawn returns, so a task spawned from inside another task is
// always accounted for. Tasks spawned after stop was signalled still run and
// are waited for; their Guard is already cancelled.
func (s *Shutdown) Spawn(name string, fn func(Guard)) {
	g := s.register(name)
	go s.run(g, fn)
}

// Triggered is closed once stop has been signalled.
func (s *Shutdown) Triggered() <-chan struct{} {
	return s.ctx.Done()
}

// Trigger signals stop to every guard without waiting.
func (s *Shutdown) Trigger() {
	s.cancel()
}

// Shutdown signals stop and waits up to limit for every task to return.
// A limit <= 0 waits without bound.
func (s *Shutdown) Shutdown(limit time.Duration) error {
	ctx := context.Background()
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	return s.ShutdownContext(ctx)
}

// ShutdownContext is Shutdown bounded by ctx instead of a duration.
func (s *Shutdown) ShutdownContext(ctx context.Context) error {
	start := time.Now()
	s.cancel()

	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		s.logger.Info("graceful shutdown complete", slog.Duration("elapsed", time.Since(start)))
		return nil
	case <-ctx.Done():
		err := &DeadlineExceededError{Pending: s.Pending(), Elapsed: time.Since(start), cause: ctx.Err()}
		s.logger.Warn("graceful shutdown incomplete", obs.Err(err))
		return err
	}
}

// Pending returns the sorted names of tasks that have not returned yet.
func (s *Shutdown) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for _, n := range s.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tasks that have not returned yet.
func (s *Shutdown) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Shutdown) register(name string) Guard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		s.idle = make(chan struct{})
	}
	s.nextID++
	s.tasks[s.nextID] = name
	return Guard{s: s, id: s.nextID, name: name}
}

func (s *Shutdown) finish(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return
	}
	delete(s.tasks, id)
	if len(s.tasks) == 0 {
		close(s.idle)
	}
}

func (s *Shutdown) run(g Guard, fn func(Guard)) {
	defer s.finish(g.id)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", slog.String("task", g.name), slog.Any("panic", r))
		}
	}()
	fn(g)
}
