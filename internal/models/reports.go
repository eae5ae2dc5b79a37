package models

// DailyRevenue aggregates completed repair orders for one day.
type DailyRevenue struct {
	Date         Date  `db:"day" json:"date"`
	OrderCount   int   `db:"order_count" json:"order_count"`
	LaborRevenue Money `db:"labor_revenue" json:"labor_revenue"`
	PartsRevenue Money `db:"parts_revenue" json:"parts_revenue"`
	TotalRevenue Money `db:"total_revenue" json:"total_revenue"`
}

// MonthlyRevenue is the per-day breakdown of a calendar month plus totals.
type MonthlyRevenue struct {
	Year         int            `json:"year"`
	Month        int            `json:"month"`
	From         Date           `json:"from"`
	To           Date           `json:"to"`
	OrderCount   int            `json:"order_count"`
	LaborRevenue Money          `json:"labor_revenue"`
	PartsRevenue Money          `json:"parts_revenue"`
	TotalRevenue Money          `json:"total_revenue"`
	Days         []DailyRevenue `json:"days"`
}

// PartUsageStat covers inventory-sourced lines of non-cancelled orders.
type PartUsageStat struct {
	PartID       int64   `db:"part_id" json:"part_id"`
	PartCode     *string `db:"part_code" json:"part_code,omitempty"`
	PartName     string  `db:"part_name" json:"part_name"`
	Category     string  `db:"category" json:"category"`
	Unit         string  `db:"unit" json:"unit"`
	QuantityUsed int     `db:"quantity_used" json:"quantity_used"`
	OrderCount   int     `db:"order_count" json:"order_count"`
	Revenue      Money   `db:"revenue" json:"revenue"`
	AvgUnitPrice Money   `db:"-" json:"avg_unit_price"`
}

type CustomerStat struct {
	CustomerID   int64  `db:"customer_id" json:"customer_id"`
	CustomerName string `db:"customer_name" json:"customer_name"`
	Phone        string `db:"phone" json:"phone"`
	LicensePlate string `db:"license_plate" json:"license_plate"`
	OrderCount   int    `db:"order_count" json:"order_count"`
	TotalSpent   Money  `db:"total_spent" json:"total_spent"`
	AvgSpent     Money  `db:"-" json:"avg_order_value"`
	LastVisit    *Date  `db:"last_visit" json:"last_visit,omitempty"`
}

type StockStatus string

const (
	StockOutOfStock   StockStatus = "out_of_stock"
	StockBelowMinimum StockStatus = "below_minimum"
	StockLow          StockStatus = "low"
	StockNormal       StockStatus = "normal"
)

// ClassifyStock places a stock level into its reporting tier.
func ClassifyStock(quantity, minStock int) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= minStock:
		return StockBelowMinimum
	case quantity <= minStock*2:
		return StockLow
	default:
		return StockNormal
	}
}

type InventoryItem struct {
	Part
	Value  Money       `json:"value"`
	Status StockStatus `json:"status"`
}

type InventoryValuation struct {
	Items           []InventoryItem `json:"items"`
	PartCount       int             `json:"part_count"`
	TotalQuantity   int             `json:"total_quantity"`
	TotalValue      Money           `json:"total_value"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	// LowStockCount includes out-of-stock parts at or below their minimum.
	LowStockCount   int             `json:"low_stock_count"`
}

type SupplierStat struct {
	SupplierName  string `db:"supplier_name" json:"supplier_name"`
	PurchaseCount int    `db:"purchase_count" json:"purchase_count"`
	TotalAmount   Money  `db:"total_amount" json:"total_amount"`
	AvgAmount     Money  `db:"-" json:"avg_order_value"`
	LastPurchase  *Date  `db:"last_purchase" json:"last_purchase,omitempty"`
}

// RevenueTotals sums completed orders over a range.
type RevenueTotals struct {
	OrderCount   int   `db:"order_count" json:"order_count"`
	TotalRevenue Money `db:"total_revenue" json:"total_revenue"`
	LaborRevenue Money `db:"labor_revenue" json:"labor_revenue"`
	PartsRevenue Money `db:"parts_revenue" json:"parts_revenue"`
}

// ProfitReport uses the current purchase price of inventory parts as cost basis.
type ProfitReport struct {
	From         Date    `json:"from"`
	To           Date    `json:"to"`
	OrderCount   int     `json:"order_count"`
	TotalRevenue Money   `json:"total_revenue"`
	LaborRevenue Money   `json:"labor_revenue"`
	PartsRevenue Money   `json:"parts_revenue"`
	PartsCost    Money   `json:"parts_cost"`
	PartsProfit  Money   `json:"parts_profit"`
	TotalProfit  Money   `json:"total_profit"`
	MarginPct    float64 `json:"profit_margin"`
}

type StatusCount struct {
	Status OrderStatus `db:"status" json:"status"`
	Count  int         `db:"order_count" json:"count"`
	Amount Money       `db:"total_amount" json:"total_amount"`
}

type OrderStatistics struct {
	From       Date  `json:"from"`
	To         Date  `json:"to"`
	Total      int   `json:"total"`
	InProgress int   `json:"in_progress"`
	Completed  int   `json:"completed"`
	Cancelled  int   `json:"cancelled"`
	Revenue    Money `json:"completed_revenue"`
	AvgOrder   Money `json:"avg_completed_order"`
}
