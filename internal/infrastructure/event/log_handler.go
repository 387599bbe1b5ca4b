package event

import (
	"context"
	"encoding/json"

	"github.com/warrantyhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogHandler writes every domain event to the log as an audit trail,
// with the serialized payload attached
type LogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewLogHandler creates an audit log handler
func NewLogHandler(serializer *EventSerializer, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		serializer: serializer,
		logger:     logger.Named("events"),
	}
}

// Handle logs one event
func (h *LogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	h.logger.Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", json.RawMessage(payload)))
	return nil
}

// EventTypes returns nil; the handler receives every event
func (h *LogHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*LogHandler)(nil)
