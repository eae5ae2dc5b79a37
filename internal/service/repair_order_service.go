package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autorepair/internal/models"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RepairOrderService creates, completes and cancels repair orders
type RepairOrderService struct {
	store          *store.Store
	eventPublisher EventPublisher
	listLimit      int
	logger         *zap.Logger
}

// NewRepairOrderService creates a new repair order service
func NewRepairOrderService(store *store.Store, eventPublisher EventPublisher, listLimit int) *RepairOrderService {
	return &RepairOrderService{
		store:          store,
		eventPublisher: eventPublisher,
		listLimit:      listLimit,
		logger:         util.GetLogger(),
	}
}

// CreateRepairOrderRequest represents a request to open a repair order
type CreateRepairOrderRequest struct {
	CustomerID       int64             `json:"customer_id"`
	VehicleType      string            `json:"vehicle_type"`
	VehicleNumber    string            `json:"vehicle_number"`
	RepairDate       *models.Date      `json:"repair_date,omitempty"`
	FaultDescription string            `json:"fault_description"`
	RepairContent    string            `json:"repair_content"`
	LaborCost        models.Money      `json:"labor_cost"`
	Technician       string            `json:"technician"`
	Remarks          string            `json:"remarks"`
	Parts            []PartLineRequest `json:"parts"`
}

// PartLineRequest is one parts line. Inventory lines reference a part;
// customer-supplied lines carry a free-text name and never touch stock. The
// unit price is always given by the caller and captured as is.
type PartLineRequest struct {
	PartID    *int64            `json:"part_id,omitempty"`
	PartName  string            `json:"part_name"`
	Source    models.PartSource `json:"part_source"`
	Quantity  int               `json:"quantity"`
	UnitPrice *models.Money     `json:"unit_price,omitempty"`
	Remarks   string            `json:"remarks"`
}

// UpdateRepairOrderRequest edits header fields of an in-progress order. Nil
// fields are left unchanged.
type UpdateRepairOrderRequest struct {
	VehicleType      *string       `json:"vehicle_type"`
	VehicleNumber    *string       `json:"vehicle_number"`
	RepairDate       *models.Date  `json:"repair_date"`
	FaultDescription *string       `json:"fault_description"`
	RepairContent    *string       `json:"repair_content"`
	LaborCost        *models.Money `json:"labor_cost"`
	Technician       *string       `json:"technician"`
	Remarks          *string       `json:"remarks"`
}

func (r *CreateRepairOrderRequest) validate() error {
	if r.LaborCost.IsNegative() {
		return validationError("labor cost must not be negative")
	}

	for i := range r.Parts {
		line := &r.Parts[i]
		if line.Source == "" {
			line.Source = models.PartSourceInventory
		}

		switch line.Source {
		case models.PartSourceInventory:
			if line.PartID == nil || *line.PartID <= 0 {
				return lineError(i, "inventory line requires a part id")
			}
		case models.PartSourceCustomer:
			if strings.TrimSpace(line.PartName) == "" {
				return lineError(i, "customer-supplied line requires a part name")
			}
		default:
			return lineError(i, "unknown part source %q", line.Source)
		}

		if line.Quantity <= 0 {
			return lineError(i, "quantity must be positive")
		}
		if line.UnitPrice == nil {
			return lineError(i, "unit price is required")
		}
		if line.UnitPrice.IsNegative() {
			return lineError(i, "unit price must not be negative")
		}
	}
	return nil
}

// requestedStock sums the requested quantity per part across inventory lines,
// keeping the order in which parts first appear.
func requestedStock(lines []PartLineRequest) ([]int64, map[int64]int) {
	inventory := lo.Filter(lines, func(l PartLineRequest, _ int) bool {
		return l.Source == models.PartSourceInventory
	})

	ids := lo.Uniq(lo.Map(inventory, func(l PartLineRequest, _ int) int64 { return *l.PartID }))
	qty := make(map[int64]int, len(ids))
	for _, l := range inventory {
		qty[*l.PartID] += l.Quantity
	}
	return ids, qty
}

func sumSubtotals(lines []models.RepairPartUsage) models.Money {
	return lo.Reduce(lines, func(acc models.Money, l models.RepairPartUsage, _ int) models.Money {
		return acc.Add(l.Subtotal)
	}, models.Zero)
}

// CreateRepairOrder validates the request, then in one unit of work inserts the
// order header and its lines and takes inventory lines out of stock.
func (s *RepairOrderService) CreateRepairOrder(ctx context.Context, req *CreateRepairOrderRequest) (*models.RepairOrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.CreateRepairOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TransactionLatency.WithLabelValues("create_repair_order").Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(); err != nil {
		util.RepairOrdersFailedTotal.WithLabelValues(util.FailureReason(err, failureReasons)).Inc()
		return nil, err
	}

	repairDate := models.Today()
	if req.RepairDate != nil {
		repairDate = *req.RepairDate
	}

	partIDs, requested := requestedStock(req.Parts)

	var (
		details *models.RepairOrderDetails
		touched []*models.Part
	)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		customer, err := q.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		parts := make(map[int64]*models.Part, len(partIDs))
		for _, id := range partIDs {
			part, err := q.GetPart(ctx, id)
			if err != nil {
				return err
			}
			if part.StockQuantity < requested[id] {
				return &models.InsufficientStockError{
					PartID:    id,
					PartName:  part.Name,
					Available: part.StockQuantity,
					Requested: requested[id],
				}
			}
			parts[id] = part
		}

		lines := make([]models.RepairPartUsage, 0, len(req.Parts))
		for _, l := range req.Parts {
			line := models.RepairPartUsage{
				PartName:   strings.TrimSpace(l.PartName),
				PartSource: l.Source,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice.Round(),
				Remarks:    l.Remarks,
			}
			if l.Source == models.PartSourceInventory {
				part := parts[*l.PartID]
				line.PartID = &part.ID
				line.PartName = part.Name
			}
			line.Subtotal = line.UnitPrice.Times(line.Quantity)
			lines = append(lines, line)
		}

		laborCost := req.LaborCost.Round()
		partsCost := sumSubtotals(lines)

		order := &models.RepairOrder{
			CustomerID:       customer.ID,
			VehicleType:      req.VehicleType,
			VehicleNumber:    req.VehicleNumber,
			RepairDate:       repairDate,
			FaultDescription: req.FaultDescription,
			RepairContent:    req.RepairContent,
			LaborCost:        laborCost,
			PartsCost:        partsCost,
			TotalAmount:      laborCost.Add(partsCost),
			Status:           models.OrderStatusInProgress,
			Technician:       req.Technician,
			Remarks:          req.Remarks,
		}
		if err := q.CreateRepairOrder(ctx, order); err != nil {
			return err
		}

		for i := range lines {
			lines[i].OrderID = order.ID
			if err := q.CreatePartUsage(ctx, &lines[i]); err != nil {
				return err
			}
		}

		for _, id := range partIDs {
			updated, err := q.AdjustStock(ctx, id, -requested[id])
			if err != nil {
				return err
			}
			touched = append(touched, updated)
		}

		details = &models.RepairOrderDetails{Order: *order, Customer: customer, Parts: lines}
		return nil
	})
	if err != nil {
		util.RepairOrdersFailedTotal.WithLabelValues(util.FailureReason(err, failureReasons)).Inc()
		s.logger.Warn("Repair order rejected", zap.Int64("customer_id", req.CustomerID), zap.Error(err))
		return nil, err
	}

	order := details.Order
	util.RepairOrdersCreatedTotal.Inc()
	util.StockUnitsMovedTotal.WithLabelValues("out").Add(float64(lo.Sum(lo.Values(requested))))
	s.logger.Info("Repair order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.Int("lines", len(details.Parts)))

	s.publishCreated(ctx, details)
	s.publishLowStock(ctx, touched)

	return details, nil
}

// CompleteOrder marks an in-progress order completed. Completing an already
// completed order returns it unchanged.
func (s *RepairOrderService) CompleteOrder(ctx context.Context, orderNumber string) (*models.RepairOrder, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.CompleteOrder")
	defer span.End()

	id, err := models.ParseOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	var (
		order   *models.RepairOrder
		changed bool
	)

	err = s.store.WithTx(ctx, func(q *store.Queries) error {
		o, err := q.GetRepairOrder(ctx, id)
		if err != nil {
			return err
		}

		switch o.Status {
		case models.OrderStatusCompleted:
			order = o
			return nil
		case models.OrderStatusCancelled:
			return fmt.Errorf("%w: order %s is cancelled", models.ErrInvalidStatusTransition, o.OrderNumber)
		}

		at := time.Now().UTC()
		ok, err := q.MarkOrderCompleted(ctx, id, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s is no longer in progress", models.ErrInvalidStatusTransition, o.OrderNumber)
		}

		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &at
		order, changed = o, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		util.RepairOrdersCompletedTotal.Inc()
		s.logger.Info("Repair order completed", zap.String("order_number", order.OrderNumber))
		s.publishStatus(ctx, order, nil)
	}
	return order, nil
}

// CancelOrder cancels an in-progress order and puts its inventory lines back in stock
func (s *RepairOrderService) CancelOrder(ctx context.Context, orderNumber string) (*models.RepairOrder, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.CancelOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TransactionLatency.WithLabelValues("cancel_repair_order").Observe(time.Since(start).Seconds())
	}()

	id, err := models.ParseOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	var (
		order     *models.RepairOrder
		restocked []models.StockLineData
	)

	err = s.store.WithTx(ctx, func(q *store.Queries) error {
		o, err := q.GetRepairOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusInProgress {
			return fmt.Errorf("%w: order %s is %s", models.ErrInvalidStatusTransition, o.OrderNumber, o.Status)
		}

		lines, err := q.ListPartUsage(ctx, id)
		if err != nil {
			return err
		}

		for _, l := range lines {
			if l.PartSource != models.PartSourceInventory || l.PartID == nil {
				continue
			}
			if _, err := q.AdjustStock(ctx, *l.PartID, l.Quantity); err != nil {
				return err
			}
			restocked = append(restocked, models.StockLineData{
				PartID:    *l.PartID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			})
		}

		at := time.Now().UTC()
		ok, err := q.MarkOrderCancelled(ctx, id, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s is no longer in progress", models.ErrInvalidStatusTransition, o.OrderNumber)
		}

		o.Status = models.OrderStatusCancelled
		o.CancelledAt = &at
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	units := lo.SumBy(restocked, func(l models.StockLineData) int { return l.Quantity })
	util.RepairOrdersCancelledTotal.Inc()
	util.StockUnitsMovedTotal.WithLabelValues("in").Add(float64(units))
	s.logger.Info("Repair order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.Int("units_restocked", units))

	s.publishStatus(ctx, order, restocked)
	return order, nil
}

// GetOrder returns an order with its customer and parts lines
func (s *RepairOrderService) GetOrder(ctx context.Context, orderNumber string) (*models.RepairOrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.GetOrder")
	defer span.End()

	id, err := models.ParseOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetRepairOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.ListPartUsage(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.RepairOrderDetails{Order: *order, Customer: customer, Parts: lines}, nil
}

// ListOrders returns the most recent orders
func (s *RepairOrderService) ListOrders(ctx context.Context, limit int) ([]models.RepairOrder, error) {
	return s.SearchOrders(ctx, models.OrderFilter{Limit: limit})
}

// SearchOrders filters orders by customer name, date range and status
func (s *RepairOrderService) SearchOrders(ctx context.Context, filter models.OrderFilter) ([]models.RepairOrder, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.SearchOrders")
	defer span.End()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("unknown order status %q", filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(filter.To.Time) {
		return nil, validationError("date range starts after it ends")
	}
	if filter.Limit <= 0 {
		filter.Limit = s.listLimit
	}

	return s.store.SearchRepairOrders(ctx, filter)
}

// UpdateOrderDetails edits the header of an in-progress order. The total is
// recomputed from the new labor cost and the stored parts cost.
func (s *RepairOrderService) UpdateOrderDetails(ctx context.Context, orderNumber string, req *UpdateRepairOrderRequest) (*models.RepairOrder, error) {
	ctx, span := util.StartSpan(ctx, "RepairOrderService.UpdateOrderDetails")
	defer span.End()

	id, err := models.ParseOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if req.LaborCost != nil && req.LaborCost.IsNegative() {
		return nil, validationError("labor cost must not be negative")
	}

	var order *models.RepairOrder
	err = s.store.WithTx(ctx, func(q *store.Queries) error {
		o, err := q.GetRepairOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusInProgress {
			return fmt.Errorf("%w: order %s is %s", models.ErrInvalidStatusTransition, o.OrderNumber, o.Status)
		}

		setIfPresent(&o.VehicleType, req.VehicleType)
		setIfPresent(&o.VehicleNumber, req.VehicleNumber)
		setIfPresent(&o.FaultDescription, req.FaultDescription)
		setIfPresent(&o.RepairContent, req.RepairContent)
		setIfPresent(&o.Technician, req.Technician)
		setIfPresent(&o.Remarks, req.Remarks)
		if req.RepairDate != nil {
			o.RepairDate = *req.RepairDate
		}
		if req.LaborCost != nil {
			o.LaborCost = req.LaborCost.Round()
		}

		if err := q.UpdateRepairOrderHeader(ctx, o); err != nil {
			return err
		}

		order, err = q.GetRepairOrder(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Repair order updated", zap.String("order_number", order.OrderNumber))
	return order, nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *RepairOrderService) publishCreated(ctx context.Context, details *models.RepairOrderDetails) {
	order := details.Order
	items := lo.FilterMap(details.Parts, func(l models.RepairPartUsage, _ int) (models.StockLineData, bool) {
		if l.PartID == nil {
			return models.StockLineData{}, false
		}
		return models.StockLineData{PartID: *l.PartID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}, true
	})

	event := &models.RepairOrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		LaborCost:   order.LaborCost,
		PartsCost:   order.PartsCost,
		TotalAmount: order.TotalAmount,
		Items:       items,
	}
	if err := s.eventPublisher.PublishRepairOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish RepairOrderCreated event", zap.Error(err))
	}
}

func (s *RepairOrderService) publishStatus(ctx context.Context, order *models.RepairOrder, restocked []models.StockLineData) {
	event := &models.RepairOrderStatusEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Restocked:   restocked,
	}
	if err := s.eventPublisher.PublishRepairOrderStatus(ctx, event); err != nil {
		s.logger.Error("Failed to publish RepairOrderStatus event", zap.Error(err))
	}
}

func (s *RepairOrderService) publishLowStock(ctx context.Context, parts []*models.Part) {
	for _, p := range parts {
		if !p.IsLowStock() {
			continue
		}
		util.LowStockAlertsTotal.Inc()
		s.logger.Warn("Part at or below minimum stock",
			zap.Int64("part_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("stock_quantity", p.StockQuantity),
			zap.Int("min_stock", p.MinStock))

		event := &models.StockLowEvent{
			PartID:        p.ID,
			PartName:      p.Name,
			StockQuantity: p.StockQuantity,
			MinStock:      p.MinStock,
		}
		if err := s.eventPublisher.PublishStockLow(ctx, event); err != nil {
			s.logger.Error("Failed to publish StockLow event", zap.Error(err))
		}
	}
}
