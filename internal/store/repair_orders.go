package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autorepair/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var repairOrderColumns = []string{
	"o.order_id", "o.customer_id", "o.vehicle_type", "o.vehicle_number", "o.repair_date",
	"o.fault_description", "o.repair_content", "o.labor_cost", "o.parts_cost", "o.total_amount",
	"o.status", "o.technician", "o.remarks", "o.created_at", "o.completed_at", "o.cancelled_at",
}

const usageColumns = `usage_id, order_id, part_id, part_name, part_source, quantity_used,
	unit_price, subtotal, remarks`

// CreateRepairOrder inserts the order header and assigns its id and number
func (q *Queries) CreateRepairOrder(ctx context.Context, o *models.RepairOrder) error {
	o.CreatedAt = now()
	if o.Status == "" {
		o.Status = models.OrderStatusInProgress
	}

	err := q.get(ctx, &o.ID, `
		INSERT INTO repair_orders (customer_id, vehicle_type, vehicle_number, repair_date,
			fault_description, repair_content, labor_cost, parts_cost, total_amount, status,
			technician, remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING order_id`,
		o.CustomerID, o.VehicleType, o.VehicleNumber, o.RepairDate,
		o.FaultDescription, o.RepairContent, o.LaborCost, o.PartsCost, o.TotalAmount, o.Status,
		o.Technician, o.Remarks, o.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", models.ErrCustomerNotFound, o.CustomerID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert repair order: %w", err)
	}

	o.OrderNumber = models.FormatOrderNumber(o.ID)
	return nil
}

// CreatePartUsage inserts one parts line of a repair order
func (q *Queries) CreatePartUsage(ctx context.Context, u *models.RepairPartUsage) error {
	err := q.get(ctx, &u.ID, `
		INSERT INTO repair_parts_usage (order_id, part_id, part_name, part_source, quantity_used,
			unit_price, subtotal, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING usage_id`,
		u.OrderID, u.PartID, u.PartName, u.PartSource, u.Quantity,
		u.UnitPrice, u.Subtotal, u.Remarks,
	)
	if err != nil {
		return fmt.Errorf("failed to insert part usage: %w", err)
	}
	return nil
}

// GetRepairOrder retrieves an order header. Inside a postgres transaction the row is locked.
func (q *Queries) GetRepairOrder(ctx context.Context, id int64) (*models.RepairOrder, error) {
	b := q.sb.Select(repairOrderColumns...).From("repair_orders o").Where(sq.Eq{"o.order_id": id})
	if lock := q.lockClause(); lock != "" {
		b = b.Suffix(strings.TrimSpace(lock))
	}

	var o models.RepairOrder
	if err := q.getBuilt(ctx, &o, b); err != nil {
		return nil, fmt.Errorf("failed to get repair order %d: %w", id, notFound(err, models.ErrOrderNotFound))
	}
	o.OrderNumber = models.FormatOrderNumber(o.ID)
	return &o, nil
}

// ListPartUsage returns the parts lines of an order in insertion order
func (q *Queries) ListPartUsage(ctx context.Context, orderID int64) ([]models.RepairPartUsage, error) {
	lines := []models.RepairPartUsage{}
	err := q.selectAll(ctx, &lines,
		"SELECT "+usageColumns+" FROM repair_parts_usage WHERE order_id = ? ORDER BY usage_id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list part usage for order %d: %w", orderID, err)
	}
	return lines, nil
}

// MarkOrderCompleted moves an in-progress order to completed. It returns false
// when the order was not in progress.
func (q *Queries) MarkOrderCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	return q.transitionOrder(ctx, id, models.OrderStatusCompleted, "completed_at", at)
}

// MarkOrderCancelled moves an in-progress order to cancelled. It returns false
// when the order was not in progress.
func (q *Queries) MarkOrderCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	return q.transitionOrder(ctx, id, models.OrderStatusCancelled, "cancelled_at", at)
}

func (q *Queries) transitionOrder(ctx context.Context, id int64, to models.OrderStatus, stampColumn string, at time.Time) (bool, error) {
	n, err := q.execBuilt(ctx, q.sb.Update("repair_orders").
		Set("status", to).
		Set(stampColumn, at).
		Where(sq.Eq{"order_id": id, "status": models.OrderStatusInProgress}))
	if err != nil {
		return false, fmt.Errorf("failed to set order %d to %s: %w", id, to, err)
	}
	return n > 0, nil
}

// UpdateRepairOrderHeader rewrites the editable header fields of an in-progress
// order and recomputes its total from the stored parts cost.
func (q *Queries) UpdateRepairOrderHeader(ctx context.Context, o *models.RepairOrder) error {
	res, err := q.exec(ctx, `
		UPDATE repair_orders SET vehicle_type = ?, vehicle_number = ?, repair_date = ?,
			fault_description = ?, repair_content = ?, labor_cost = ?, total_amount = ? + parts_cost,
			technician = ?, remarks = ?
		WHERE order_id = ? AND status = ?`,
		o.VehicleType, o.VehicleNumber, o.RepairDate,
		o.FaultDescription, o.RepairContent, o.LaborCost, o.LaborCost,
		o.Technician, o.Remarks,
		o.ID, models.OrderStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to update repair order %d: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %d is not in progress", models.ErrInvalidStatusTransition, o.ID)
	}
	return nil
}

// SearchRepairOrders returns orders matching the filter, newest first
func (q *Queries) SearchRepairOrders(ctx context.Context, f models.OrderFilter) ([]models.RepairOrder, error) {
	b := q.sb.Select(repairOrderColumns...).
		From("repair_orders o").
		OrderBy("o.repair_date DESC", "o.order_id DESC")

	if name := strings.TrimSpace(f.CustomerName); name != "" {
		b = b.Join("customers c ON c.customer_id = o.customer_id").
			Where(q.containsAny(name, "c.customer_name"))
	}
	if f.CustomerID > 0 {
		b = b.Where(sq.Eq{"o.customer_id": f.CustomerID})
	}
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"o.repair_date": *f.From})
	}
	if f.To != nil {
		b = b.Where(sq.LtOrEq{"o.repair_date": *f.To})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"o.status": f.Status})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	orders := []models.RepairOrder{}
	if err := q.selectBuilt(ctx, &orders, b); err != nil {
		return nil, fmt.Errorf("failed to search repair orders: %w", err)
	}
	for i := range orders {
		orders[i].OrderNumber = models.FormatOrderNumber(orders[i].ID)
	}
	return orders, nil
}
