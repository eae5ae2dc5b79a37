package service

import (
	"context"
	"fmt"
	"strings"

	"autorepair/internal/models"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"go.uber.org/zap"
)

const defaultUnit = "pcs"

// PartService handles the part catalog
type PartService struct {
	store           *store.Store
	defaultMinStock int
	logger          *zap.Logger
}

// NewPartService creates a new part service
func NewPartService(store *store.Store, defaultMinStock int) *PartService {
	return &PartService{
		store:           store,
		defaultMinStock: defaultMinStock,
		logger:          util.GetLogger(),
	}
}

// PartRequest carries the editable fields of a part. A nil MinStock takes the
// configured default on create and keeps the stored value on update.
type PartRequest struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Category      string       `json:"category"`
	Brand         string       `json:"brand"`
	Specification string       `json:"specification"`
	Unit          string       `json:"unit"`
	PurchasePrice models.Money `json:"purchase_price"`
	SellingPrice  models.Money `json:"selling_price"`
	StockQuantity int          `json:"stock_quantity"`
	MinStock      *int         `json:"min_stock"`
	Supplier      string       `json:"supplier"`
}

func (r *PartRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return validationError("part name is required")
	}
	if r.PurchasePrice.IsNegative() || r.SellingPrice.IsNegative() {
		return validationError("prices must not be negative")
	}
	if r.StockQuantity < 0 {
		return validationError("stock quantity must not be negative")
	}
	if r.MinStock != nil && *r.MinStock < 0 {
		return validationError("minimum stock must not be negative")
	}
	return nil
}

func (r *PartRequest) apply(p *models.Part) {
	p.Code = nil
	if code := strings.TrimSpace(r.Code); code != "" {
		p.Code = &code
	}
	p.Name = strings.TrimSpace(r.Name)
	p.Category = strings.TrimSpace(r.Category)
	p.Brand = r.Brand
	p.Specification = r.Specification
	p.Unit = r.Unit
	if p.Unit == "" {
		p.Unit = defaultUnit
	}
	p.PurchasePrice = r.PurchasePrice.Round()
	p.SellingPrice = r.SellingPrice.Round()
	p.StockQuantity = r.StockQuantity
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	p.Supplier = r.Supplier
}

// AddPart creates a catalog entry
func (s *PartService) AddPart(ctx context.Context, req *PartRequest) (*models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.AddPart")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	part := &models.Part{MinStock: s.defaultMinStock}
	req.apply(part)

	if err := s.store.CreatePart(ctx, part); err != nil {
		return nil, err
	}

	s.logger.Info("Part added",
		zap.Int64("part_id", part.ID),
		zap.String("code", part.CodeString()),
		zap.String("name", part.Name))
	return part, nil
}

// UpdatePart replaces the editable fields of an existing part
func (s *PartService) UpdatePart(ctx context.Context, id int64, req *PartRequest) (*models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.UpdatePart")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	part, err := s.store.GetPart(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(part)

	if err := s.store.UpdatePart(ctx, part); err != nil {
		return nil, err
	}

	s.logger.Info("Part updated", zap.Int64("part_id", id))
	return part, nil
}

// DeletePart removes a part that no order or purchase refers to
func (s *PartService) DeletePart(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "PartService.DeletePart")
	defer span.End()

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		refs, err := q.CountPartReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: part %d has %d order lines", models.ErrPartInUse, id, refs)
		}
		return q.DeletePart(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Part deleted", zap.Int64("part_id", id))
	return nil
}

func (s *PartService) GetPart(ctx context.Context, id int64) (*models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.GetPart")
	defer span.End()

	return s.store.GetPart(ctx, id)
}

func (s *PartService) GetPartByCode(ctx context.Context, code string) (*models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.GetPartByCode")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty part code", models.ErrPartNotFound)
	}
	return s.store.GetPartByCode(ctx, code)
}

func (s *PartService) ListParts(ctx context.Context) ([]models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.ListParts")
	defer span.End()

	return s.store.ListParts(ctx)
}

func (s *PartService) SearchParts(ctx context.Context, keyword, category string) ([]models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.SearchParts")
	defer span.End()

	return s.store.SearchParts(ctx, keyword, category)
}

func (s *PartService) ListLowStock(ctx context.Context) ([]models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.ListLowStock")
	defer span.End()

	return s.store.ListLowStock(ctx)
}

func (s *PartService) ListCategories(ctx context.Context) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "PartService.ListCategories")
	defer span.End()

	return s.store.ListCategories(ctx)
}

// AdjustStock adds delta to the stock of a part. A decrement that would take
// the stock below zero fails with an InsufficientStockError.
func (s *PartService) AdjustStock(ctx context.Context, id int64, delta int) (*models.Part, error) {
	ctx, span := util.StartSpan(ctx, "PartService.AdjustStock")
	defer span.End()

	part, err := s.store.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	direction := "in"
	units := delta
	if delta < 0 {
		direction, units = "out", -delta
	}
	util.StockUnitsMovedTotal.WithLabelValues(direction).Add(float64(units))

	s.logger.Info("Stock adjusted",
		zap.Int64("part_id", id),
		zap.Int("delta", delta),
		zap.Int("stock_quantity", part.StockQuantity))
	return part, nil
}
