package event

import (
	"context"
	"encoding/json"

	"github.com/erp/perishables/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the log as a structured audit record
type AuditLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates an audit handler. A nil serializer logs metadata only.
func NewAuditLogHandler(serializer *EventSerializer, logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{serializer: serializer, logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler is registered for all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its JSON payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if h.serializer != nil {
		if !h.serializer.IsRegistered(event.EventType()) {
			h.logger.Warn("audit record for unregistered event type", zap.String("event_type", event.EventType()))
		}
		payload, err := h.serializer.Serialize(event)
		if err != nil {
			return err
		}
		fields = append(fields, zap.Any("payload", json.RawMessage(payload)))
	}
	h.logger.Info("domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
