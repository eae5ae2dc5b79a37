package service

import (
	"context"
	"strings"
	"time"

	"autorepair/internal/models"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PurchaseService books supplier deliveries into stock
type PurchaseService struct {
	store          *store.Store
	eventPublisher EventPublisher
	listLimit      int
	logger         *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(store *store.Store, eventPublisher EventPublisher, listLimit int) *PurchaseService {
	return &PurchaseService{
		store:          store,
		eventPublisher: eventPublisher,
		listLimit:      listLimit,
		logger:         util.GetLogger(),
	}
}

// CreatePurchaseOrderRequest represents a supplier delivery
type CreatePurchaseOrderRequest struct {
	SupplierName string                `json:"supplier_name"`
	Operator     string                `json:"operator"`
	PurchaseDate *models.Date          `json:"purchase_date,omitempty"`
	Remarks      string                `json:"remarks"`
	Items        []PurchaseLineRequest `json:"items"`
}

type PurchaseLineRequest struct {
	PartID    int64        `json:"part_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

func (r *CreatePurchaseOrderRequest) validate() error {
	if strings.TrimSpace(r.SupplierName) == "" {
		return validationError("supplier name is required")
	}
	if len(r.Items) == 0 {
		return validationError("a purchase order needs at least one line")
	}
	for i, item := range r.Items {
		if item.PartID <= 0 {
			return lineError(i, "part id is required")
		}
		if item.Quantity <= 0 {
			return lineError(i, "quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return lineError(i, "unit price must not be negative")
		}
	}
	return nil
}

// CreatePurchaseOrder records the delivery and adds every line to stock in one unit of work
func (s *PurchaseService) CreatePurchaseOrder(ctx context.Context, req *CreatePurchaseOrderRequest) (*models.PurchaseOrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.CreatePurchaseOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TransactionLatency.WithLabelValues("create_purchase_order").Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(); err != nil {
		util.PurchaseOrdersFailedTotal.WithLabelValues(util.FailureReason(err, failureReasons)).Inc()
		return nil, err
	}

	purchaseDate := models.Today()
	if req.PurchaseDate != nil {
		purchaseDate = *req.PurchaseDate
	}

	var result *models.PurchaseOrderDetails

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		details := make([]models.PurchaseDetail, 0, len(req.Items))
		for _, item := range req.Items {
			part, err := q.GetPart(ctx, item.PartID)
			if err != nil {
				return err
			}
			price := item.UnitPrice.Round()
			details = append(details, models.PurchaseDetail{
				PartID:    part.ID,
				PartName:  part.Name,
				Quantity:  item.Quantity,
				UnitPrice: price,
				Subtotal:  price.Times(item.Quantity),
			})
		}

		po := &models.PurchaseOrder{
			SupplierName: strings.TrimSpace(req.SupplierName),
			PurchaseDate: purchaseDate,
			TotalAmount: lo.Reduce(details, func(acc models.Money, d models.PurchaseDetail, _ int) models.Money {
				return acc.Add(d.Subtotal)
			}, models.Zero),
			Status:   models.PurchaseStatusCompleted,
			Operator: req.Operator,
			Remarks:  req.Remarks,
		}
		if err := q.CreatePurchaseOrder(ctx, po); err != nil {
			return err
		}

		for i := range details {
			details[i].OrderID = po.ID
			if err := q.CreatePurchaseDetail(ctx, &details[i]); err != nil {
				return err
			}
			if _, err := q.AdjustStock(ctx, details[i].PartID, details[i].Quantity); err != nil {
				return err
			}
		}

		result = &models.PurchaseOrderDetails{Order: *po, Details: details}
		return nil
	})
	if err != nil {
		util.PurchaseOrdersFailedTotal.WithLabelValues(util.FailureReason(err, failureReasons)).Inc()
		s.logger.Warn("Purchase order rejected", zap.String("supplier", req.SupplierName), zap.Error(err))
		return nil, err
	}

	po := result.Order
	units := lo.SumBy(result.Details, func(d models.PurchaseDetail) int { return d.Quantity })
	util.PurchaseOrdersTotal.Inc()
	util.StockUnitsMovedTotal.WithLabelValues("in").Add(float64(units))
	s.logger.Info("Purchase order received",
		zap.Int64("order_id", po.ID),
		zap.String("supplier", po.SupplierName),
		zap.String("total_amount", po.TotalAmount.String()),
		zap.Int("units", units))

	event := &models.PurchaseOrderReceivedEvent{
		OrderID:      po.ID,
		SupplierName: po.SupplierName,
		TotalAmount:  po.TotalAmount,
		Items: lo.Map(result.Details, func(d models.PurchaseDetail, _ int) models.StockLineData {
			return models.StockLineData{PartID: d.PartID, Quantity: d.Quantity, UnitPrice: d.UnitPrice}
		}),
	}
	if err := s.eventPublisher.PublishPurchaseOrderReceived(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseOrderReceived event", zap.Error(err))
	}

	return result, nil
}

func (s *PurchaseService) GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.GetPurchaseOrder")
	defer span.End()

	po, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.store.ListPurchaseDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.PurchaseOrderDetails{Order: *po, Details: details}, nil
}

// ListPurchaseOrders returns the most recent purchase orders
func (s *PurchaseService) ListPurchaseOrders(ctx context.Context, limit int) ([]models.PurchaseOrder, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.ListPurchaseOrders")
	defer span.End()

	if limit <= 0 {
		limit = s.listLimit
	}
	return s.store.ListPurchaseOrders(ctx, limit)
}
