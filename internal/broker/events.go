package broker

import (
	"context"
	"fmt"
	"time"

	"autorepair/internal/models"
	"autorepair/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher stamps and publishes shop domain events. Without a producer
// events are only logged.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer, logger: util.GetLogger()}
}

// PublishRepairOrderCreated publishes a RepairOrderCreated event
func (ep *EventPublisher) PublishRepairOrderCreated(ctx context.Context, event *models.RepairOrderCreatedEvent) error {
	stamp(&event.BaseEvent, models.EventTypeRepairOrderCreated)
	return ep.publish(ctx, fmt.Sprintf("repair-order-%d", event.OrderID), event.BaseEvent, event)
}

// PublishRepairOrderStatus publishes a completion or cancellation event
func (ep *EventPublisher) PublishRepairOrderStatus(ctx context.Context, event *models.RepairOrderStatusEvent) error {
	eventType := models.EventTypeRepairOrderCompleted
	if event.Status == models.OrderStatusCancelled {
		eventType = models.EventTypeRepairOrderCancelled
	}
	stamp(&event.BaseEvent, eventType)
	return ep.publish(ctx, fmt.Sprintf("repair-order-%d", event.OrderID), event.BaseEvent, event)
}

// PublishPurchaseOrderReceived publishes a PurchaseOrderReceived event
func (ep *EventPublisher) PublishPurchaseOrderReceived(ctx context.Context, event *models.PurchaseOrderReceivedEvent) error {
	stamp(&event.BaseEvent, models.EventTypePurchaseOrderReceived)
	return ep.publish(ctx, fmt.Sprintf("purchase-order-%d", event.OrderID), event.BaseEvent, event)
}

// PublishStockLow publishes a StockLow event
func (ep *EventPublisher) PublishStockLow(ctx context.Context, event *models.StockLowEvent) error {
	stamp(&event.BaseEvent, models.EventTypeStockLow)
	return ep.publish(ctx, fmt.Sprintf("part-%d", event.PartID), event.BaseEvent, event)
}

func (ep *EventPublisher) publish(ctx context.Context, key string, base models.BaseEvent, event interface{}) error {
	if ep.producer == nil {
		ep.logger.Debug("Event not sent, no producer configured",
			zap.String("event_type", base.EventType),
			zap.String("key", key),
		)
		return nil
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

func stamp(base *models.BaseEvent, eventType string) {
	base.EventID = uuid.New().String()
	base.EventType = eventType
	base.Timestamp = time.Now().UTC()
}
