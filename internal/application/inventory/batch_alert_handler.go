package inventory

import (
	"context"
	"fmt"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types raised by BatchAlertHandler
const (
	AlertTypeLowStock    = "low_stock"
	AlertTypeOutOfStock  = "out_of_stock"
	AlertTypeQualityHold = "quality_hold"
)

// BatchAlertNotifier delivers batch alerts to operators
type BatchAlertNotifier interface {
	// SendAlert sends a batch alert notification
	SendAlert(ctx context.Context, alert BatchAlert) error
}

// BatchAlert describes a batch that needs operator attention
type BatchAlert struct {
	BatchID      string `json:"batch_id"`
	Code         string `json:"code"`
	ProductID    string `json:"product_id"`
	AvailableQty int    `json:"available_qty"`
	AlertType    string `json:"alert_type"`
}

// BatchAlertHandler watches batch events and raises alerts when a batch
// runs low, runs out or is put on hold
type BatchAlertHandler struct {
	logger    *zap.Logger
	notifier  BatchAlertNotifier
	threshold int
}

// NewBatchAlertHandler creates a handler that flags batches under threshold units
func NewBatchAlertHandler(logger *zap.Logger, threshold int) *BatchAlertHandler {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &BatchAlertHandler{
		logger:    logger,
		threshold: threshold,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *BatchAlertHandler) WithNotifier(notifier BatchAlertNotifier) *BatchAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *BatchAlertHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeBatchStateChanged,
		inventory.EventTypeBatchStockAdjusted,
	}
}

// Handle processes a batch event
func (h *BatchAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var alert *BatchAlert

	switch e := event.(type) {
	case *inventory.BatchStateChangedEvent:
		switch e.ToState {
		case inventory.BatchStateExhausted:
			alert = &BatchAlert{AlertType: AlertTypeOutOfStock}
		case inventory.BatchStateBlocked:
			alert = &BatchAlert{AlertType: AlertTypeQualityHold}
		default:
			return nil
		}
		alert.BatchID = e.AggregateID().String()
		alert.Code = e.Code
		alert.ProductID = e.ProductID.String()
	case *inventory.BatchStockAdjustedEvent:
		// Only consumption that crosses into the low band alerts; zero is handled by the state change
		if e.Delta >= 0 || e.AvailableQty == 0 || e.AvailableQty >= h.threshold {
			return nil
		}
		alert = &BatchAlert{
			BatchID:      e.AggregateID().String(),
			Code:         e.Code,
			ProductID:    e.ProductID.String(),
			AvailableQty: e.AvailableQty,
			AlertType:    AlertTypeLowStock,
		}
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.logger.Warn("batch alert raised",
		zap.String("batch_id", alert.BatchID),
		zap.String("code", alert.Code),
		zap.String("product_id", alert.ProductID),
		zap.Int("available_qty", alert.AvailableQty),
		zap.String("alert_type", alert.AlertType),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, *alert); err != nil {
			h.logger.Error("failed to send batch alert notification",
				zap.String("batch_id", alert.BatchID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Ensure BatchAlertHandler implements shared.EventHandler
var _ shared.EventHandler = (*BatchAlertHandler)(nil)

// LoggingBatchAlertNotifier is a notifier that writes alerts to the log
type LoggingBatchAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingBatchAlertNotifier creates a new logging notifier
func NewLoggingBatchAlertNotifier(logger *zap.Logger) *LoggingBatchAlertNotifier {
	return &LoggingBatchAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the batch alert
func (n *LoggingBatchAlertNotifier) SendAlert(ctx context.Context, alert BatchAlert) error {
	n.logger.Warn("BATCH ALERT",
		zap.String("type", alert.AlertType),
		zap.String("code", alert.Code),
		zap.String("product_id", alert.ProductID),
		zap.Int("available_qty", alert.AvailableQty),
	)
	return nil
}
