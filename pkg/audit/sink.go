package audit

import (
	"context"
	"sync"

	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// Sink accepts confirmed audit events; the actual event persistence
// is owned by whoever implements this contract
type Sink interface {
	WriteEvent(ctx context.Context, e Event) error
}

// ZapSink writes audit events to a structured log
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) (*ZapSink, error) {
	if logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}

		logger = l
	}

	return &ZapSink{logger: logger.Named("[audit]")}, nil
}

func (s *ZapSink) WriteEvent(ctx context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("event_id", e.ID.String()),
		zap.String("entity_kind", e.EntityKind),
		zap.String("entity_id", e.EntityID),
		zap.String("actor", e.Actor),
		zap.Time("created_at", e.CreatedAt.Time()),
	}

	if len(e.Changelog) != 0 {
		fields = append(fields, zap.Int("changes", len(e.Changelog)))
	}

	s.logger.Info(e.Name, fields...)

	// payloads are only rendered when debug is enabled
	if ce := s.logger.Check(zap.DebugLevel, e.Name); ce != nil {
		ce.Write(
			zap.ByteString("before", pretty.Pretty(e.Before)),
			zap.ByteString("after", pretty.Pretty(e.After)),
		)
	}

	return nil
}

// MemorySink accumulates events in memory; meant for tests
type MemorySink struct {
	events []Event
	sync.RWMutex
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		events: make([]Event, 0),
	}
}

func (s *MemorySink) WriteEvent(ctx context.Context, e Event) error {
	s.Lock()
	s.events = append(s.events, e)
	s.Unlock()

	return nil
}

// Events returns a snapshot copy of everything written so far
func (s *MemorySink) Events() []Event {
	s.RLock()
	es := make([]Event, len(s.events))
	copy(es, s.events)
	s.RUnlock()

	return es
}
