package store

import (
	"context"
	"fmt"
	"strings"

	"autorepair/internal/models"

	sq "github.com/Masterminds/squirrel"
)

const partColumns = `part_id, part_code, part_name, category, brand, specification, unit,
	purchase_price, selling_price, stock_quantity, min_stock, supplier, created_at, updated_at`

// CreatePart inserts a part and fills in its id and timestamps
func (q *Queries) CreatePart(ctx context.Context, p *models.Part) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	err := q.get(ctx, &p.ID, `
		INSERT INTO parts (part_code, part_name, category, brand, specification, unit,
			purchase_price, selling_price, stock_quantity, min_stock, supplier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING part_id`,
		p.Code, p.Name, p.Category, p.Brand, p.Specification, p.Unit,
		p.PurchasePrice, p.SellingPrice, p.StockQuantity, p.MinStock, p.Supplier, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", models.ErrDuplicatePartCode, p.CodeString())
	}
	if err != nil {
		return fmt.Errorf("failed to insert part: %w", err)
	}
	return nil
}

// UpdatePart replaces every mutable field of the part
func (q *Queries) UpdatePart(ctx context.Context, p *models.Part) error {
	p.UpdatedAt = now()

	res, err := q.exec(ctx, `
		UPDATE parts SET part_code = ?, part_name = ?, category = ?, brand = ?, specification = ?,
			unit = ?, purchase_price = ?, selling_price = ?, stock_quantity = ?, min_stock = ?,
			supplier = ?, updated_at = ?
		WHERE part_id = ?`,
		p.Code, p.Name, p.Category, p.Brand, p.Specification,
		p.Unit, p.PurchasePrice, p.SellingPrice, p.StockQuantity, p.MinStock,
		p.Supplier, p.UpdatedAt, p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", models.ErrDuplicatePartCode, p.CodeString())
	}
	if err != nil {
		return fmt.Errorf("failed to update part: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", models.ErrPartNotFound, p.ID)
	}
	return nil
}

// DeletePart removes a part row
func (q *Queries) DeletePart(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, "DELETE FROM parts WHERE part_id = ?", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", models.ErrPartInUse, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete part: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", models.ErrPartNotFound, id)
	}
	return nil
}

// CountPartReferences counts repair lines and purchase lines pointing at a part
func (q *Queries) CountPartReferences(ctx context.Context, id int64) (int, error) {
	var n int
	err := q.get(ctx, &n, `
		SELECT (SELECT COUNT(*) FROM repair_parts_usage WHERE part_id = ?)
		     + (SELECT COUNT(*) FROM purchase_details WHERE part_id = ?)`,
		id, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count part references: %w", err)
	}
	return n, nil
}

// GetPart retrieves a part by ID. Inside a postgres transaction the row is locked.
func (q *Queries) GetPart(ctx context.Context, id int64) (*models.Part, error) {
	var p models.Part
	err := q.get(ctx, &p, "SELECT "+partColumns+" FROM parts WHERE part_id = ?"+q.lockClause(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get part %d: %w", id, notFound(err, models.ErrPartNotFound))
	}
	return &p, nil
}

// GetPartByCode retrieves a part by its code
func (q *Queries) GetPartByCode(ctx context.Context, code string) (*models.Part, error) {
	var p models.Part
	err := q.get(ctx, &p, "SELECT "+partColumns+" FROM parts WHERE part_code = ?", code)
	if err != nil {
		return nil, fmt.Errorf("failed to get part %q: %w", code, notFound(err, models.ErrPartNotFound))
	}
	return &p, nil
}

// ListParts returns every part ordered by name
func (q *Queries) ListParts(ctx context.Context) ([]models.Part, error) {
	return q.SearchParts(ctx, "", "")
}

// SearchParts matches the keyword case-insensitively against name, code and
// brand, and the category exactly. Empty filters match everything.
func (q *Queries) SearchParts(ctx context.Context, keyword, category string) ([]models.Part, error) {
	b := q.sb.Select(partColumns).From("parts").OrderBy("part_name", "part_id")

	if kw := strings.TrimSpace(keyword); kw != "" {
		b = b.Where(q.containsAny(kw, "part_name", "part_code", "brand"))
	}
	if category != "" {
		b = b.Where(sq.Eq{"category": category})
	}

	parts := []models.Part{}
	if err := q.selectBuilt(ctx, &parts, b); err != nil {
		return nil, fmt.Errorf("failed to search parts: %w", err)
	}
	return parts, nil
}

// ListLowStock returns parts at or below their minimum, lowest stock first
func (q *Queries) ListLowStock(ctx context.Context) ([]models.Part, error) {
	parts := []models.Part{}
	err := q.selectAll(ctx, &parts,
		"SELECT "+partColumns+" FROM parts WHERE stock_quantity <= min_stock ORDER BY stock_quantity, part_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock parts: %w", err)
	}
	return parts, nil
}

// ListCategories returns the distinct non-empty categories
func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := q.selectAll(ctx, &categories,
		"SELECT DISTINCT category FROM parts WHERE category <> '' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// AdjustStock adds delta to the part's stock. The update is guarded so the
// quantity never drops below zero; a refused decrement reports the stock seen.
func (q *Queries) AdjustStock(ctx context.Context, id int64, delta int) (*models.Part, error) {
	res, err := q.exec(ctx, `
		UPDATE parts SET stock_quantity = stock_quantity + ?, updated_at = ?
		WHERE part_id = ? AND stock_quantity + ? >= 0`,
		delta, now(), id, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for part %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for part %d: %w", id, err)
	}

	part, err := q.GetPart(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &models.InsufficientStockError{
			PartID:    id,
			PartName:  part.Name,
			Available: part.StockQuantity,
			Requested: -delta,
		}
	}
	return part, nil
}

