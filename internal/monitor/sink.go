package monitor

import (
	"context"
	"errors"
	"log/slog"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/eventstore"
)

// Sink receives state-change events.
type Sink interface {
	Report(ctx context.Context, event domain.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event domain.Event) error

func (f SinkFunc) Report(ctx context.Context, event domain.Event) error { return f(ctx, event) }

// LogSink writes each event as one structured log line.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(ctx context.Context, e domain.Event) error {
	s.Logger.InfoContext(ctx, "server state",
		"host", e.Host,
		"server_id", e.ServerID,
		"region", e.Region,
		"state", e.State,
		"status", e.Status,
		"tags", e.Tags,
	)
	return nil
}

// StoreSink persists events in the event store.
type StoreSink struct {
	Repo eventstore.Repository
}

func (s StoreSink) Report(_ context.Context, e domain.Event) error {
	return s.Repo.Save(eventstore.FromEvent(e))
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Report(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
