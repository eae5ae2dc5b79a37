package models

import "time"

// Event types
const (
	EventTypeRepairOrderCreated    = "REPAIR_ORDER_CREATED"
	EventTypeRepairOrderCompleted  = "REPAIR_ORDER_COMPLETED"
	EventTypeRepairOrderCancelled  = "REPAIR_ORDER_CANCELLED"
	EventTypePurchaseOrderReceived = "PURCHASE_ORDER_RECEIVED"
	EventTypeStockLow              = "STOCK_LOW"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// RepairOrderCreatedEvent published after a repair order commits
type RepairOrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	LaborCost   Money           `json:"labor_cost"`
	PartsCost   Money           `json:"parts_cost"`
	TotalAmount Money           `json:"total_amount"`
	Items       []StockLineData `json:"items"`
}

// RepairOrderStatusEvent published on completion or cancellation
type RepairOrderStatusEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      OrderStatus     `json:"status"`
	TotalAmount Money           `json:"total_amount"`
	Restocked   []StockLineData `json:"restocked,omitempty"`
}

// PurchaseOrderReceivedEvent published after a delivery is booked
type PurchaseOrderReceivedEvent struct {
	BaseEvent
	OrderID      int64           `json:"order_id"`
	SupplierName string          `json:"supplier_name"`
	TotalAmount  Money           `json:"total_amount"`
	Items        []StockLineData `json:"items"`
}

// StockLowEvent published when a part drops to or below its minimum
type StockLowEvent struct {
	BaseEvent
	PartID        int64  `json:"part_id"`
	PartName      string `json:"part_name"`
	StockQuantity int    `json:"stock_quantity"`
	MinStock      int    `json:"min_stock"`
}

// StockLineData represents a stock movement in events
type StockLineData struct {
	PartID    int64 `json:"part_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice Money `json:"unit_price"`
}
