// Package monitor polls a region's servers and reports state changes.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/retry"
)

// DefaultInterval is the delay between polls.
const DefaultInterval = 3 * time.Second

// Lister is the part of domain.Compute the monitor needs.
type Lister interface {
	ListServers(ctx context.Context) ([]domain.Server, error)
}

// Monitor polls one region. The zero value is not usable; set at least
// Servers and Sink.
type Monitor struct {
	Servers  Lister
	Sink     Sink
	Region   string
	Interval time.Duration
	Logger   *slog.Logger
	Retry    retry.Config

	// ReportUnchanged reports every server on every poll instead of only
	// state changes.
	ReportUnchanged bool

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	seen map[string]domain.Event
}

// Run polls until ctx is cancelled. A poll whose retries are exhausted
// is logged and the loop continues with the next tick.
func (m *Monitor) Run(ctx context.Context) error {
	if m.Servers == nil || m.Sink == nil {
		return fmt.Errorf("monitor: servers and sink are required")
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := m.logger()
	logger.Info("status monitor started", "region", m.Region, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("status poll failed", "region", m.Region, "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("status monitor stopped", "region", m.Region)
			return nil
		case <-ticker.C:
		}
	}

	logger.Info("status monitor stopped", "region", m.Region)
	return nil
}

// Poll lists the region's servers once and reports the events it
// observes.
func (m *Monitor) Poll(ctx context.Context) error {
	cfg := m.Retry
	if cfg.MaxAttempts == 0 {
		cfg = retry.DefaultConfig()
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error) {
			m.logger().Debug("retrying server list", "region", m.Region, "attempt", attempt, "error", err)
		}
	}

	var servers []domain.Server
	err := retry.Do(ctx, cfg, retry.IsRetryable, func() error {
		var err error
		servers, err = m.Servers.ListServers(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}

	var errs []error
	for _, e := range m.observe(servers) {
		if err := m.Sink.Report(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// observe diffs servers against the previous poll.
func (m *Monitor) observe(servers []domain.Server) []domain.Event {
	if m.seen == nil {
		m.seen = make(map[string]domain.Event)
	}
	now := m.now()

	var events []domain.Event
	current := make(map[string]bool, len(servers))
	for _, s := range servers {
		current[s.ID] = true
		e := eventFor(s, m.Region, now)

		prev, known := m.seen[s.ID]
		m.seen[s.ID] = e
		if known && prev.State == e.State && !m.ReportUnchanged {
			continue
		}
		events = append(events, e)
	}

	for id, prev := range m.seen {
		if current[id] {
			continue
		}
		delete(m.seen, id)
		if prev.State == domain.StateTerminated {
			continue
		}
		gone := prev
		gone.State = domain.StateTerminated
		gone.Status = domain.StatusDeleted
		gone.ObservedAt = now
		events = append(events, gone)
	}

	return events
}

func eventFor(s domain.Server, region string, now time.Time) domain.Event {
	e := domain.Event{
		Host:          s.Name,
		ServerID:      s.ID,
		Region:        region,
		State:         StateFor(s.Status),
		Status:        s.Status,
		CorrelationID: s.CorrelationID(),
		ObservedAt:    now,
	}
	if e.CorrelationID != "" {
		e.Tags = []string{"name=" + e.CorrelationID}
	}
	return e
}

func (m *Monitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

func (m *Monitor) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now()
}
