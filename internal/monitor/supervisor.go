package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Factory builds a monitor for region.
type Factory func(ctx context.Context, region string) (*Monitor, error)

// Supervisor runs one in-process monitor per region and keeps the handles
// so they can be stopped together.
type Supervisor struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	group   errgroup.Group
	running map[string]*handle
}

type handle struct {
	cancel context.CancelFunc
}

// NewSupervisor creates a supervisor whose monitors live until parent is
// cancelled or Stop is called.
func NewSupervisor(parent context.Context, factory Factory, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{
		factory: factory,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]*handle),
	}
}

// Launch starts a monitor for region unless one is already running.
func (s *Supervisor) Launch(ctx context.Context, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return fmt.Errorf("monitor supervisor stopped")
	}
	if _, ok := s.running[region]; ok {
		return nil
	}

	m, err := s.factory(ctx, region)
	if err != nil {
		return fmt.Errorf("build monitor for region %q: %w", region, err)
	}

	monitorCtx, cancel := context.WithCancel(s.ctx)
	h := &handle{cancel: cancel}
	s.running[region] = h
	s.logger.Debug("monitor launched", "region", region)

	s.group.Go(func() error {
		defer func() {
			s.mu.Lock()
			if s.running[region] == h {
				delete(s.running, region)
			}
			s.mu.Unlock()
			cancel()
		}()
		return m.Run(monitorCtx)
	})
	return nil
}

// Cancel stops the monitor for region, if any, without waiting.
func (s *Supervisor) Cancel(region string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.running[region]; ok {
		h.cancel()
		delete(s.running, region)
	}
}

// Regions returns the regions with a running monitor.
func (s *Supervisor) Regions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.running))
	for r := range s.running {
		out = append(out, r)
	}
	return out
}

// Stop cancels every monitor and waits for them to return.
func (s *Supervisor) Stop() error {
	s.cancel()
	return s.Wait()
}

// Wait blocks until every launched monitor has returned.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}
