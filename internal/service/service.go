package service

import (
	"context"
	"fmt"

	"autorepair/internal/models"
)

// PartCatalog manages parts and their stock levels
type PartCatalog interface {
	AddPart(ctx context.Context, req *PartRequest) (*models.Part, error)
	UpdatePart(ctx context.Context, id int64, req *PartRequest) (*models.Part, error)
	DeletePart(ctx context.Context, id int64) error
	GetPart(ctx context.Context, id int64) (*models.Part, error)
	GetPartByCode(ctx context.Context, code string) (*models.Part, error)
	ListParts(ctx context.Context) ([]models.Part, error)
	SearchParts(ctx context.Context, keyword, category string) ([]models.Part, error)
	ListLowStock(ctx context.Context) ([]models.Part, error)
	ListCategories(ctx context.Context) ([]string, error)
	AdjustStock(ctx context.Context, id int64, delta int) (*models.Part, error)
}

// CustomerDirectory manages customer records
type CustomerDirectory interface {
	AddCustomer(ctx context.Context, req *CustomerRequest) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, req *CustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByName(ctx context.Context, name string) (*models.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	SearchCustomers(ctx context.Context, keyword string) ([]models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	CustomerHistory(ctx context.Context, id int64) ([]models.RepairOrder, error)
}

// RepairOrders runs the repair order units of work
type RepairOrders interface {
	CreateRepairOrder(ctx context.Context, req *CreateRepairOrderRequest) (*models.RepairOrderDetails, error)
	CompleteOrder(ctx context.Context, orderNumber string) (*models.RepairOrder, error)
	CancelOrder(ctx context.Context, orderNumber string) (*models.RepairOrder, error)
	GetOrder(ctx context.Context, orderNumber string) (*models.RepairOrderDetails, error)
	ListOrders(ctx context.Context, limit int) ([]models.RepairOrder, error)
	SearchOrders(ctx context.Context, filter models.OrderFilter) ([]models.RepairOrder, error)
	UpdateOrderDetails(ctx context.Context, orderNumber string, req *UpdateRepairOrderRequest) (*models.RepairOrder, error)
}

// Purchases records supplier deliveries
type Purchases interface {
	CreatePurchaseOrder(ctx context.Context, req *CreatePurchaseOrderRequest) (*models.PurchaseOrderDetails, error)
	GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrderDetails, error)
	ListPurchaseOrders(ctx context.Context, limit int) ([]models.PurchaseOrder, error)
}

// Reporting produces read-only aggregates
type Reporting interface {
	DailyRevenue(ctx context.Context, day models.Date) (*models.DailyRevenue, error)
	MonthlyRevenue(ctx context.Context, year, month int) (*models.MonthlyRevenue, error)
	PartsUsage(ctx context.Context, r DateRange) ([]models.PartUsageStat, error)
	CustomerAnalysis(ctx context.Context, r DateRange) ([]models.CustomerStat, error)
	InventoryValuation(ctx context.Context) (*models.InventoryValuation, error)
	SupplierAnalysis(ctx context.Context, r DateRange) ([]models.SupplierStat, error)
	ProfitAnalysis(ctx context.Context, r DateRange) (*models.ProfitReport, error)
	OrderStatistics(ctx context.Context, r DateRange) (*models.OrderStatistics, error)
}

// EventPublisher receives domain events after their unit of work commits
type EventPublisher interface {
	PublishRepairOrderCreated(ctx context.Context, event *models.RepairOrderCreatedEvent) error
	PublishRepairOrderStatus(ctx context.Context, event *models.RepairOrderStatusEvent) error
	PublishPurchaseOrderReceived(ctx context.Context, event *models.PurchaseOrderReceivedEvent) error
	PublishStockLow(ctx context.Context, event *models.StockLowEvent) error
}

var failureReasons = map[error]string{
	models.ErrValidation:              "invalid_request",
	models.ErrInvalidLineItem:         "invalid_line_item",
	models.ErrCustomerNotFound:        "customer_not_found",
	models.ErrPartNotFound:            "part_not_found",
	models.ErrInsufficientStock:       "insufficient_stock",
	models.ErrOrderNotFound:           "order_not_found",
	models.ErrInvalidStatusTransition: "invalid_transition",
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

func lineError(index int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", models.ErrInvalidLineItem, index+1, fmt.Sprintf(format, args...))
}
