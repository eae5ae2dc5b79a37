package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Part is a catalog entry with its stock level.
type Part struct {
	ID            int64     `db:"part_id" json:"id"`
	Code          *string   `db:"part_code" json:"code,omitempty"`
	Name          string    `db:"part_name" json:"name"`
	Category      string    `db:"category" json:"category"`
	Brand         string    `db:"brand" json:"brand"`
	Specification string    `db:"specification" json:"specification"`
	Unit          string    `db:"unit" json:"unit"`
	PurchasePrice Money     `db:"purchase_price" json:"purchase_price"`
	SellingPrice  Money     `db:"selling_price" json:"selling_price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	MinStock      int       `db:"min_stock" json:"min_stock"`
	Supplier      string    `db:"supplier" json:"supplier"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CodeString returns the part code or "" when the part has none.
func (p *Part) CodeString() string {
	if p.Code == nil {
		return ""
	}
	return *p.Code
}

// IsLowStock reports stock at or below the minimum threshold.
func (p *Part) IsLowStock() bool {
	return p.StockQuantity <= p.MinStock
}

// Customer owns vehicles and repair orders.
type Customer struct {
	ID           int64     `db:"customer_id" json:"id"`
	Name         string    `db:"customer_name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	LicensePlate string    `db:"license_plate" json:"license_plate"`
	CarModel     string    `db:"car_model" json:"car_model"`
	CarColor     string    `db:"car_color" json:"car_color"`
	EngineNumber string    `db:"engine_number" json:"engine_number"`
	VIN          string    `db:"vin" json:"vin"`
	Address      string    `db:"address" json:"address"`
	Notes        string    `db:"notes" json:"notes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type OrderStatus string

// Repair order statuses. Completed and cancelled are terminal.
const (
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// RepairOrder is a work order against a customer's vehicle.
type RepairOrder struct {
	ID               int64       `db:"order_id" json:"id"`
	OrderNumber      string      `db:"-" json:"order_number"`
	CustomerID       int64       `db:"customer_id" json:"customer_id"`
	VehicleType      string      `db:"vehicle_type" json:"vehicle_type"`
	VehicleNumber    string      `db:"vehicle_number" json:"vehicle_number"`
	RepairDate       Date        `db:"repair_date" json:"repair_date"`
	FaultDescription string      `db:"fault_description" json:"fault_description"`
	RepairContent    string      `db:"repair_content" json:"repair_content"`
	LaborCost        Money       `db:"labor_cost" json:"labor_cost"`
	PartsCost        Money       `db:"parts_cost" json:"parts_cost"`
	TotalAmount      Money       `db:"total_amount" json:"total_amount"`
	Status           OrderStatus `db:"status" json:"status"`
	Technician       string      `db:"technician" json:"technician"`
	Remarks          string      `db:"remarks" json:"remarks"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt      *time.Time  `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

const orderNumberPrefix = "RO"

// FormatOrderNumber derives the human-facing number from the persisted id.
func FormatOrderNumber(id int64) string {
	return fmt.Sprintf("%s%06d", orderNumberPrefix, id)
}

// ParseOrderNumber accepts "RO000042" (or a bare id) and returns the id.
func ParseOrderNumber(number string) (int64, error) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(number)), orderNumberPrefix)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed order number %q", ErrOrderNotFound, number)
	}
	return id, nil
}

type PartSource string

const (
	PartSourceInventory PartSource = "inventory"
	PartSourceCustomer  PartSource = "customer"
)

// RepairPartUsage is one parts line on a repair order. Unit price is captured
// at the time of use.
type RepairPartUsage struct {
	ID         int64      `db:"usage_id" json:"id"`
	OrderID    int64      `db:"order_id" json:"order_id"`
	PartID     *int64     `db:"part_id" json:"part_id,omitempty"`
	PartName   string     `db:"part_name" json:"part_name"`
	PartSource PartSource `db:"part_source" json:"part_source"`
	Quantity   int        `db:"quantity_used" json:"quantity"`
	UnitPrice  Money      `db:"unit_price" json:"unit_price"`
	Subtotal   Money      `db:"subtotal" json:"subtotal"`
	Remarks    string     `db:"remarks" json:"remarks"`
}

// RepairOrderDetails is an order with its customer and parts lines.
type RepairOrderDetails struct {
	Order    RepairOrder       `json:"order"`
	Customer *Customer         `json:"customer,omitempty"`
	Parts    []RepairPartUsage `json:"parts"`
}

const PurchaseStatusCompleted = "completed"

// PurchaseOrder records a supplier delivery.
type PurchaseOrder struct {
	ID           int64     `db:"order_id" json:"id"`
	SupplierName string    `db:"supplier_name" json:"supplier_name"`
	PurchaseDate Date      `db:"purchase_date" json:"purchase_date"`
	TotalAmount  Money     `db:"total_amount" json:"total_amount"`
	Status       string    `db:"status" json:"status"`
	Operator     string    `db:"operator" json:"operator"`
	Remarks      string    `db:"remarks" json:"remarks"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PurchaseDetail is one delivered part line.
type PurchaseDetail struct {
	ID        int64  `db:"detail_id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	PartID    int64  `db:"part_id" json:"part_id"`
	PartName  string `db:"part_name" json:"part_name"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice Money  `db:"unit_price" json:"unit_price"`
	Subtotal  Money  `db:"subtotal" json:"subtotal"`
}

type PurchaseOrderDetails struct {
	Order   PurchaseOrder    `json:"order"`
	Details []PurchaseDetail `json:"details"`
}

// OrderFilter narrows repair order searches. Zero values match everything.
type OrderFilter struct {
	CustomerName string
	CustomerID   int64
	From         *Date
	To           *Date
	Status       OrderStatus
	Limit        int
}
