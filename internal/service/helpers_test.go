package service

import (
	"context"
	"path/filepath"
	"testing"

	"autorepair/config"
	"autorepair/internal/models"
	"autorepair/internal/store"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRepairOrderCreated(ctx context.Context, event *models.RepairOrderCreatedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishRepairOrderStatus(ctx context.Context, event *models.RepairOrderStatusEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishPurchaseOrderReceived(ctx context.Context, event *models.PurchaseOrderReceivedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishStockLow(ctx context.Context, event *models.StockLowEvent) error {
	return m.Called(ctx, event).Error(0)
}

// quietPublisher accepts any event
func quietPublisher() *mockPublisher {
	m := &mockPublisher{}
	m.On("PublishRepairOrderCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishRepairOrderStatus", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishPurchaseOrderReceived", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishStockLow", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.NewStore(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "shop.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedCustomer(t *testing.T, s *store.Store) *models.Customer {
	t.Helper()

	c := &models.Customer{
		Name:         gofakeit.Name(),
		Phone:        gofakeit.Phone(),
		LicensePlate: gofakeit.LetterN(7),
		CarModel:     gofakeit.CarModel(),
	}
	require.NoError(t, s.CreateCustomer(context.Background(), c))
	return c
}

func seedPart(t *testing.T, s *store.Store, stock, minStock int, purchase, selling string) *models.Part {
	t.Helper()

	p := &models.Part{
		Name:          gofakeit.ProductName(),
		Category:      gofakeit.RandomString([]string{"filters", "brakes", "engine"}),
		Unit:          "pcs",
		PurchasePrice: models.MustMoney(purchase),
		SellingPrice:  models.MustMoney(selling),
		StockQuantity: stock,
		MinStock:      minStock,
	}
	require.NoError(t, s.CreatePart(context.Background(), p))
	return p
}

func stockOf(t *testing.T, s *store.Store, id int64) int {
	t.Helper()

	p, err := s.GetPart(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func countRows(t *testing.T, s *store.Store, table string) int {
	t.Helper()

	var n []int
	require.NoError(t, s.Query(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n[0]
}

func moneyPtr(s string) *models.Money {
	m := models.MustMoney(s)
	return &m
}

func int64Ptr(v int64) *int64 {
	return &v
}

func datePtr(d models.Date) *models.Date {
	return &d
}
