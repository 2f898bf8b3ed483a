package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ReportCreated       = "report.created"
	ReportVerified      = "report.verified"
	ReportStatusChanged = "report.status_changed"
	AlertCreated        = "alert.created"
)

// Event is a domain fact published after its transaction commits.
type Event struct {
	Type       string      `json:"type"`
	EntityID   uuid.UUID   `json:"entity_id"`
	DistrictID *uuid.UUID  `json:"district_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// New stamps an event with the current time.
func New(eventType string, entityID uuid.UUID, districtID *uuid.UUID, data interface{}) Event {
	return Event{
		Type:       eventType,
		EntityID:   entityID,
		DistrictID: districtID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Handler must not block; slow work belongs on the task queue.
type Handler func(ctx context.Context, e Event)

// Bus fans events out to subscribed handlers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: log}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers e to every handler. A panicking handler is logged and skipped.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", zap.String("event_type", e.Type), zap.Any("panic", r))
		}
	}()
	h(ctx, e)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
