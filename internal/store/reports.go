package store

import (
	"context"
	"fmt"

	"autorepair/internal/models"

	sq "github.com/Masterminds/squirrel"
)

// RevenueByDay aggregates completed orders per repair date within [from, to]
func (q *Queries) RevenueByDay(ctx context.Context, from, to models.Date) ([]models.DailyRevenue, error) {
	b := q.sb.Select(
		"repair_date AS day",
		"COUNT(*) AS order_count",
		"COALESCE(SUM(labor_cost), 0) AS labor_revenue",
		"COALESCE(SUM(parts_cost), 0) AS parts_revenue",
		"COALESCE(SUM(total_amount), 0) AS total_revenue",
	).
		From("repair_orders").
		Where(sq.Eq{"status": models.OrderStatusCompleted}).
		Where("repair_date BETWEEN ? AND ?", from, to).
		GroupBy("repair_date").
		OrderBy("repair_date")

	days := []models.DailyRevenue{}
	if err := q.selectBuilt(ctx, &days, b); err != nil {
		return nil, fmt.Errorf("failed to aggregate daily revenue: %w", err)
	}
	return days, nil
}

// RevenueTotals sums completed orders within [from, to]
func (q *Queries) RevenueTotals(ctx context.Context, from, to models.Date) (*models.RevenueTotals, error) {
	var t models.RevenueTotals
	err := q.get(ctx, &t, `
		SELECT COUNT(*) AS order_count,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(labor_cost), 0) AS labor_revenue,
			COALESCE(SUM(parts_cost), 0) AS parts_revenue
		FROM repair_orders
		WHERE status = ? AND repair_date BETWEEN ? AND ?`,
		models.OrderStatusCompleted, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return &t, nil
}

// PartsCostBasis values inventory lines of completed orders at the parts'
// current purchase price.
func (q *Queries) PartsCostBasis(ctx context.Context, from, to models.Date) (models.Money, error) {
	var cost models.Money
	err := q.get(ctx, &cost, `
		SELECT COALESCE(SUM(u.quantity_used * p.purchase_price), 0)
		FROM repair_parts_usage u
		JOIN parts p ON p.part_id = u.part_id
		JOIN repair_orders o ON o.order_id = u.order_id
		WHERE u.part_source = ? AND o.status = ? AND o.repair_date BETWEEN ? AND ?`,
		models.PartSourceInventory, models.OrderStatusCompleted, from, to,
	)
	if err != nil {
		return models.Zero, fmt.Errorf("failed to compute parts cost: %w", err)
	}
	return cost, nil
}

// PartsUsage aggregates inventory lines of non-cancelled orders per part
func (q *Queries) PartsUsage(ctx context.Context, from, to models.Date) ([]models.PartUsageStat, error) {
	stats := []models.PartUsageStat{}
	err := q.selectAll(ctx, &stats, `
		SELECT p.part_id, p.part_code, p.part_name, p.category, p.unit,
			SUM(u.quantity_used) AS quantity_used,
			COUNT(DISTINCT u.order_id) AS order_count,
			COALESCE(SUM(u.subtotal), 0) AS revenue
		FROM repair_parts_usage u
		JOIN parts p ON p.part_id = u.part_id
		JOIN repair_orders o ON o.order_id = u.order_id
		WHERE u.part_source = ? AND o.status <> ? AND o.repair_date BETWEEN ? AND ?
		GROUP BY p.part_id, p.part_code, p.part_name, p.category, p.unit
		ORDER BY quantity_used DESC, p.part_name`,
		models.PartSourceInventory, models.OrderStatusCancelled, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate parts usage: %w", err)
	}
	return stats, nil
}

// CustomerSpend aggregates non-cancelled orders per customer. Customers with no
// orders in range are included with zero counts.
func (q *Queries) CustomerSpend(ctx context.Context, from, to models.Date) ([]models.CustomerStat, error) {
	stats := []models.CustomerStat{}
	err := q.selectAll(ctx, &stats, `
		SELECT c.customer_id, c.customer_name, c.phone, c.license_plate,
			COUNT(o.order_id) AS order_count,
			COALESCE(SUM(o.total_amount), 0) AS total_spent,
			MAX(o.repair_date) AS last_visit
		FROM customers c
		LEFT JOIN repair_orders o ON o.customer_id = c.customer_id
			AND o.status <> ? AND o.repair_date BETWEEN ? AND ?
		GROUP BY c.customer_id, c.customer_name, c.phone, c.license_plate
		ORDER BY total_spent DESC, c.customer_name`,
		models.OrderStatusCancelled, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customer spend: %w", err)
	}
	return stats, nil
}

// SupplierTotals aggregates purchase orders per supplier within [from, to]
func (q *Queries) SupplierTotals(ctx context.Context, from, to models.Date) ([]models.SupplierStat, error) {
	stats := []models.SupplierStat{}
	err := q.selectAll(ctx, &stats, `
		SELECT supplier_name,
			COUNT(*) AS purchase_count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			MAX(purchase_date) AS last_purchase
		FROM purchase_orders
		WHERE purchase_date BETWEEN ? AND ?
		GROUP BY supplier_name
		ORDER BY total_amount DESC, supplier_name`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate supplier totals: %w", err)
	}
	return stats, nil
}

// OrderStatusCounts groups repair orders within [from, to] by status
func (q *Queries) OrderStatusCounts(ctx context.Context, from, to models.Date) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	err := q.selectAll(ctx, &counts, `
		SELECT status, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total_amount
		FROM repair_orders
		WHERE repair_date BETWEEN ? AND ?
		GROUP BY status`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return counts, nil
}
