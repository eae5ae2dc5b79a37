package service

import (
	"context"
	"time"

	"autorepair/internal/models"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DateRange bounds a report, both ends inclusive. A zero To means today and a
// zero From reaches back the report's default window from To.
type DateRange struct {
	From models.Date
	To   models.Date
}

func (r DateRange) resolve(defaultDays int) (models.Date, models.Date, error) {
	to := r.To
	if to.IsZero() {
		to = models.Today()
	}
	from := r.From
	if from.IsZero() {
		from = to.AddDays(-defaultDays)
	}
	if from.After(to.Time) {
		return models.Date{}, models.Date{}, validationError("date range starts after it ends")
	}
	return from, to, nil
}

const (
	shortWindowDays = 30
	longWindowDays  = 365
)

// ReportService runs read-only aggregate queries
type ReportService struct {
	store *store.Store
}

// NewReportService creates a new report service
func NewReportService(store *store.Store) *ReportService {
	return &ReportService{store: store}
}

// DailyRevenue sums completed orders repaired on day
func (s *ReportService) DailyRevenue(ctx context.Context, day models.Date) (*models.DailyRevenue, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.DailyRevenue")
	defer span.End()

	if day.IsZero() {
		day = models.Today()
	}

	days, err := s.store.RevenueByDay(ctx, day, day)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return &models.DailyRevenue{Date: day}, nil
	}
	return &days[0], nil
}

// MonthlyRevenue breaks a calendar month of completed orders down by day
func (s *ReportService) MonthlyRevenue(ctx context.Context, year, month int) (*models.MonthlyRevenue, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.MonthlyRevenue")
	defer span.End()

	if year <= 0 || month < 1 || month > 12 {
		return nil, validationError("invalid month %d-%d", year, month)
	}

	from := models.NewDate(year, time.Month(month), 1)
	to := models.DateOf(from.AddDate(0, 1, -1))

	days, err := s.store.RevenueByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &models.MonthlyRevenue{
		Year:         year,
		Month:        month,
		From:         from,
		To:           to,
		LaborRevenue: models.Zero,
		PartsRevenue: models.Zero,
		TotalRevenue: models.Zero,
		Days:         days,
	}
	for _, d := range days {
		report.OrderCount += d.OrderCount
		report.LaborRevenue = report.LaborRevenue.Add(d.LaborRevenue)
		report.PartsRevenue = report.PartsRevenue.Add(d.PartsRevenue)
		report.TotalRevenue = report.TotalRevenue.Add(d.TotalRevenue)
	}
	return report, nil
}

// PartsUsage reports quantity and revenue per inventory part, most used first
func (s *ReportService) PartsUsage(ctx context.Context, r DateRange) ([]models.PartUsageStat, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.PartsUsage")
	defer span.End()

	from, to, err := r.resolve(shortWindowDays)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.PartsUsage(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].AvgUnitPrice = stats[i].Revenue.Div(int64(stats[i].QuantityUsed))
	}
	return stats, nil
}

// CustomerAnalysis reports spend per customer, including customers without orders in range
func (s *ReportService) CustomerAnalysis(ctx context.Context, r DateRange) ([]models.CustomerStat, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.CustomerAnalysis")
	defer span.End()

	from, to, err := r.resolve(longWindowDays)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.CustomerSpend(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].AvgSpent = stats[i].TotalSpent.Div(int64(stats[i].OrderCount))
	}
	return stats, nil
}

// InventoryValuation values stock at purchase price and tiers each part by stock level
func (s *ReportService) InventoryValuation(ctx context.Context) (*models.InventoryValuation, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.InventoryValuation")
	defer span.End()

	parts, err := s.store.ListParts(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.InventoryValuation{
		Items:      make([]models.InventoryItem, 0, len(parts)),
		PartCount:  len(parts),
		TotalValue: models.Zero,
	}
	for _, p := range parts {
		item := models.InventoryItem{
			Part:   p,
			Value:  p.PurchasePrice.Times(p.StockQuantity),
			Status: models.ClassifyStock(p.StockQuantity, p.MinStock),
		}
		report.Items = append(report.Items, item)
		report.TotalQuantity += p.StockQuantity
		report.TotalValue = report.TotalValue.Add(item.Value)

		if item.Status == models.StockOutOfStock {
			report.OutOfStockCount++
		}
		if p.StockQuantity <= p.MinStock {
			report.LowStockCount++
		}
	}
	return report, nil
}

// SupplierAnalysis reports purchase volume per supplier
func (s *ReportService) SupplierAnalysis(ctx context.Context, r DateRange) ([]models.SupplierStat, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.SupplierAnalysis")
	defer span.End()

	from, to, err := r.resolve(longWindowDays)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.SupplierTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].AvgAmount = stats[i].TotalAmount.Div(int64(stats[i].PurchaseCount))
	}
	return stats, nil
}

// ProfitAnalysis compares completed-order revenue with the current purchase
// cost of the inventory parts they used.
func (s *ReportService) ProfitAnalysis(ctx context.Context, r DateRange) (*models.ProfitReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.ProfitAnalysis")
	defer span.End()

	from, to, err := r.resolve(shortWindowDays)
	if err != nil {
		return nil, err
	}

	totals, err := s.store.RevenueTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	partsCost, err := s.store.PartsCostBasis(ctx, from, to)
	if err != nil {
		return nil, err
	}

	partsProfit := totals.PartsRevenue.Sub(partsCost)
	totalProfit := totals.LaborRevenue.Add(partsProfit)

	return &models.ProfitReport{
		From:         from,
		To:           to,
		OrderCount:   totals.OrderCount,
		TotalRevenue: totals.TotalRevenue,
		LaborRevenue: totals.LaborRevenue,
		PartsRevenue: totals.PartsRevenue,
		PartsCost:    partsCost,
		PartsProfit:  partsProfit,
		TotalProfit:  totalProfit,
		MarginPct:    marginPct(totalProfit, totals.TotalRevenue),
	}, nil
}

func marginPct(profit, revenue models.Money) float64 {
	if !revenue.IsPositive() {
		return 0
	}
	return profit.Decimal.Div(revenue.Decimal).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// OrderStatistics counts orders by status within the range
func (s *ReportService) OrderStatistics(ctx context.Context, r DateRange) (*models.OrderStatistics, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.OrderStatistics")
	defer span.End()

	from, to, err := r.resolve(shortWindowDays)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.OrderStatusCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byStatus := lo.KeyBy(counts, func(c models.StatusCount) models.OrderStatus { return c.Status })
	completed := byStatus[models.OrderStatusCompleted]

	revenue := completed.Amount

	return &models.OrderStatistics{
		From:       from,
		To:         to,
		Total:      lo.SumBy(counts, func(c models.StatusCount) int { return c.Count }),
		InProgress: byStatus[models.OrderStatusInProgress].Count,
		Completed:  completed.Count,
		Cancelled:  byStatus[models.OrderStatusCancelled].Count,
		Revenue:    revenue,
		AvgOrder:   revenue.Div(int64(completed.Count)),
	}, nil
}
