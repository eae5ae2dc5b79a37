package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"autorepair/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishRepairOrderCreated(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(newProducer(w))

	event := &models.RepairOrderCreatedEvent{
		OrderID:     7,
		OrderNumber: models.FormatOrderNumber(7),
		TotalAmount: models.MustMoney("150.5"),
	}
	require.NoError(t, ep.PublishRepairOrderCreated(context.Background(), event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "repair-order-7", string(w.msgs[0].Key))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, models.EventTypeRepairOrderCreated, decoded["event_type"])
	assert.Equal(t, "RO000007", decoded["order_number"])
	assert.Equal(t, 150.5, decoded["total_amount"])
	assert.NotEmpty(t, decoded["event_id"])
}

func TestPublishRepairOrderStatusPicksType(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(newProducer(w))
	ctx := context.Background()

	completed := &models.RepairOrderStatusEvent{OrderID: 1, Status: models.OrderStatusCompleted}
	cancelled := &models.RepairOrderStatusEvent{OrderID: 2, Status: models.OrderStatusCancelled}
	require.NoError(t, ep.PublishRepairOrderStatus(ctx, completed))
	require.NoError(t, ep.PublishRepairOrderStatus(ctx, cancelled))

	assert.Equal(t, models.EventTypeRepairOrderCompleted, completed.EventType)
	assert.Equal(t, models.EventTypeRepairOrderCancelled, cancelled.EventType)
	assert.NotEqual(t, completed.EventID, cancelled.EventID)
	assert.Len(t, w.msgs, 2)
}

func TestPublishWithoutProducerIsNoop(t *testing.T) {
	ep := NewEventPublisher(NewProducer(nil, "shop-events"))

	err := ep.PublishStockLow(context.Background(), &models.StockLowEvent{PartID: 3})
	assert.NoError(t, err)
}

func TestPublishSurfacesWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	ep := NewEventPublisher(newProducer(w))

	err := ep.PublishPurchaseOrderReceived(context.Background(), &models.PurchaseOrderReceivedEvent{OrderID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewProducerIgnoresBlankBrokers(t *testing.T) {
	assert.Nil(t, NewProducer([]string{""}, "shop-events"))

	p := NewProducer([]string{"", "localhost:9092"}, "shop-events")
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}
