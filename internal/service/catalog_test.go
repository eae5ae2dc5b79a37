package service

import (
	"context"
	"testing"

	"autorepair/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestPartServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewPartService(s, 5)

	part, err := svc.AddPart(ctx, &PartRequest{
		Code:          " OF-100 ",
		Name:          "Oil filter",
		Category:      "filters",
		PurchasePrice: models.MustMoney("4.999"),
		SellingPrice:  models.MustMoney("9.50"),
		StockQuantity: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "OF-100", part.CodeString())
	assert.Equal(t, "pcs", part.Unit)
	assert.Equal(t, 5, part.MinStock)
	assert.Equal(t, "5.00", part.PurchasePrice.String())

	byCode, err := svc.GetPartByCode(ctx, "OF-100")
	require.NoError(t, err)
	assert.Equal(t, part.ID, byCode.ID)

	_, err = svc.AddPart(ctx, &PartRequest{Code: "OF-100", Name: "Other filter"})
	assert.ErrorIs(t, err, models.ErrDuplicatePartCode)

	updated, err := svc.UpdatePart(ctx, part.ID, &PartRequest{
		Code:          "OF-100",
		Name:          "Oil filter HD",
		Category:      "filters",
		SellingPrice:  models.MustMoney("11"),
		StockQuantity: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MinStock)

	stored, err := svc.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oil filter HD", stored.Name)
	assert.Equal(t, "11.00", stored.SellingPrice.String())

	require.NoError(t, svc.DeletePart(ctx, part.ID))
	_, err = svc.GetPart(ctx, part.ID)
	assert.ErrorIs(t, err, models.ErrPartNotFound)

	assert.ErrorIs(t, svc.DeletePart(ctx, part.ID), models.ErrPartNotFound)
}

func TestPartServiceValidation(t *testing.T) {
	svc := NewPartService(newTestStore(t), 5)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *PartRequest
	}{
		{name: "missing name", req: &PartRequest{}},
		{name: "negative price", req: &PartRequest{Name: "x", SellingPrice: models.MustMoney("-1")}},
		{name: "negative stock", req: &PartRequest{Name: "x", StockQuantity: -1}},
		{name: "negative minimum", req: &PartRequest{Name: "x", MinStock: intPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddPart(ctx, tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestPartServiceSearchAndLowStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewPartService(s, 0)

	_, err := svc.AddPart(ctx, &PartRequest{Name: "Brake pad", Category: "brakes", Brand: "Bosch", StockQuantity: 1, MinStock: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.AddPart(ctx, &PartRequest{Name: "Brake disc", Category: "brakes", StockQuantity: 10, MinStock: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.AddPart(ctx, &PartRequest{Name: "Air filter", Category: "filters", Brand: "Bosch", StockQuantity: 3, MinStock: intPtr(3)})
	require.NoError(t, err)

	found, err := svc.SearchParts(ctx, "bosch", "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.SearchParts(ctx, "brake", "brakes")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	low, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Brake pad", "Air filter"}, names)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"brakes", "filters"}, categories)
}

func TestPartServiceAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewPartService(s, 0)
	part := seedPart(t, s, 3, 0, "1.00", "2.00")

	updated, err := svc.AdjustStock(ctx, part.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.StockQuantity)

	_, err = svc.AdjustStock(ctx, part.ID, -9)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 8, stockOf(t, s, part.ID))

	_, err = svc.AdjustStock(ctx, part.ID+1, 1)
	assert.ErrorIs(t, err, models.ErrPartNotFound)
}

func TestDeletePartInUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	parts := NewPartService(s, 0)
	orders := NewRepairOrderService(s, quietPublisher(), 50)

	customer := seedCustomer(t, s)
	part := seedPart(t, s, 5, 0, "1.00", "2.00")
	_, err := orders.CreateRepairOrder(ctx, &CreateRepairOrderRequest{
		CustomerID: customer.ID,
		Parts:      []PartLineRequest{{PartID: &part.ID, Quantity: 1, UnitPrice: moneyPtr("2.00")}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, parts.DeletePart(ctx, part.ID), models.ErrPartInUse)
	assert.Equal(t, 4, stockOf(t, s, part.ID))
}

func TestCustomerServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewCustomerService(s)

	_, err := svc.AddCustomer(ctx, &CustomerRequest{Name: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	c, err := svc.AddCustomer(ctx, &CustomerRequest{
		Name:         " Maria Lopez ",
		Phone:        "555-0101",
		LicensePlate: "abc 123",
		CarModel:     "Corolla",
		VIN:          "1hgcm82633a004352",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", c.Name)
	assert.Equal(t, "ABC 123", c.LicensePlate)
	assert.Equal(t, "1HGCM82633A004352", c.VIN)

	byPhone, err := svc.GetCustomerByPhone(ctx, "555-0101")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byPhone.ID)

	byName, err := svc.GetCustomerByName(ctx, "Maria Lopez")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	found, err := svc.SearchCustomers(ctx, "corolla")
	require.NoError(t, err)
	require.Len(t, found, 1)

	updated, err := svc.UpdateCustomer(ctx, c.ID, &CustomerRequest{Name: "Maria Lopez", Phone: "555-0199"})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)

	_, err = svc.UpdateCustomer(ctx, c.ID+1, &CustomerRequest{Name: "Nobody"})
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)

	require.NoError(t, svc.DeleteCustomer(ctx, c.ID))
	_, err = svc.GetCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)
}

func TestCustomerHistoryAndDeleteBlocked(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customers := NewCustomerService(s)
	orders := NewRepairOrderService(s, quietPublisher(), 50)

	c := seedCustomer(t, s)
	other := seedCustomer(t, s)

	for i := 0; i < 2; i++ {
		_, err := orders.CreateRepairOrder(ctx, &CreateRepairOrderRequest{CustomerID: c.ID})
		require.NoError(t, err)
	}
	_, err := orders.CreateRepairOrder(ctx, &CreateRepairOrderRequest{CustomerID: other.ID})
	require.NoError(t, err)

	history, err := customers.CustomerHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = customers.CustomerHistory(ctx, other.ID+10)
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)

	assert.ErrorIs(t, customers.DeleteCustomer(ctx, c.ID), models.ErrCustomerHasOrders)
}
