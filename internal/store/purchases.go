package store

import (
	"context"
	"fmt"

	"autorepair/internal/models"
)

const purchaseOrderColumns = `order_id, supplier_name, purchase_date, total_amount, status, operator,
	remarks, created_at`

func (q *Queries) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	po.CreatedAt = now()
	if po.Status == "" {
		po.Status = models.PurchaseStatusCompleted
	}

	err := q.get(ctx, &po.ID, `
		INSERT INTO purchase_orders (supplier_name, purchase_date, total_amount, status, operator,
			remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING order_id`,
		po.SupplierName, po.PurchaseDate, po.TotalAmount, po.Status, po.Operator,
		po.Remarks, po.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

func (q *Queries) CreatePurchaseDetail(ctx context.Context, d *models.PurchaseDetail) error {
	err := q.get(ctx, &d.ID, `
		INSERT INTO purchase_details (order_id, part_id, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?)
		RETURNING detail_id`,
		d.OrderID, d.PartID, d.Quantity, d.UnitPrice, d.Subtotal,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", models.ErrPartNotFound, d.PartID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert purchase detail: %w", err)
	}
	return nil
}

func (q *Queries) GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := q.get(ctx, &po, "SELECT "+purchaseOrderColumns+" FROM purchase_orders WHERE order_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order %d: %w", id, notFound(err, models.ErrPurchaseOrderNotFound))
	}
	return &po, nil
}

// ListPurchaseDetails returns the lines of a purchase order with current part names
func (q *Queries) ListPurchaseDetails(ctx context.Context, orderID int64) ([]models.PurchaseDetail, error) {
	details := []models.PurchaseDetail{}
	err := q.selectAll(ctx, &details, `
		SELECT d.detail_id, d.order_id, d.part_id, COALESCE(p.part_name, '') AS part_name,
			d.quantity, d.unit_price, d.subtotal
		FROM purchase_details d
		LEFT JOIN parts p ON p.part_id = d.part_id
		WHERE d.order_id = ?
		ORDER BY d.detail_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase details for order %d: %w", orderID, err)
	}
	return details, nil
}

// ListPurchaseOrders returns purchase orders newest first
func (q *Queries) ListPurchaseOrders(ctx context.Context, limit int) ([]models.PurchaseOrder, error) {
	b := q.sb.Select(purchaseOrderColumns).From("purchase_orders").OrderBy("purchase_date DESC", "order_id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	orders := []models.PurchaseOrder{}
	if err := q.selectBuilt(ctx, &orders, b); err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return orders, nil
}
