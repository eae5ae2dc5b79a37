package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"autorepair/config"
	"autorepair/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "shop.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedPart(t *testing.T, s *Store, stock int) *models.Part {
	t.Helper()

	code := gofakeit.LetterN(8)
	p := &models.Part{
		Code:          &code,
		Name:          gofakeit.ProductName(),
		Category:      "filters",
		Unit:          "pcs",
		PurchasePrice: models.MustMoney("12.50"),
		SellingPrice:  models.MustMoney("20.00"),
		StockQuantity: stock,
		MinStock:      2,
	}
	require.NoError(t, s.CreatePart(context.Background(), p))
	return p
}

func seedCustomer(t *testing.T, s *Store) *models.Customer {
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

func TestNewStoreAppliesMigrations(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, info.Driver)
	assert.Len(t, info.RowCounts, 6)
	assert.Positive(t, info.SizeBytes)
}

func TestNewStoreIsIdempotentOnExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, DSN: path}

	s, err := NewStore(cfg)
	require.NoError(t, err)
	seedCustomer(t, s)
	require.NoError(t, s.Close())

	s, err = NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	customers, err := s.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(q *Queries) error {
		return q.CreateCustomer(ctx, &models.Customer{Name: "Alice"})
	})
	require.NoError(t, err)

	c, err := s.GetCustomerByName(ctx, "Alice")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
}

func TestWithTxRollsBackAndReturnsOriginalError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(q *Queries) error {
		if err := q.CreateCustomer(ctx, &models.Customer{Name: "Bob"}); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	_, err = s.GetCustomerByName(ctx, "Bob")
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = s.WithTx(ctx, func(q *Queries) error {
			_ = q.CreateCustomer(ctx, &models.Customer{Name: "Carol"})
			panic("kaboom")
		})
	})

	_, err := s.GetCustomerByName(ctx, "Carol")
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)
}

func TestQueryAndExec(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPart(t, s, 5)

	n, err := s.Exec(ctx, "UPDATE parts SET min_stock = ? WHERE part_id = ?", 7, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var mins []int
	require.NoError(t, s.Query(ctx, &mins, "SELECT min_stock FROM parts WHERE part_id = ?", p.ID))
	assert.Equal(t, []int{7}, mins)
}

func TestCreatePartRejectsDuplicateCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPart(t, s, 1)

	dup := &models.Part{Code: p.Code, Name: "other"}
	err := s.CreatePart(ctx, dup)
	assert.ErrorIs(t, err, models.ErrDuplicatePartCode)

	// parts without a code never collide
	require.NoError(t, s.CreatePart(ctx, &models.Part{Name: "no code 1"}))
	require.NoError(t, s.CreatePart(ctx, &models.Part{Name: "no code 2"}))
}

func TestPartRoundTripKeepsMoneyExact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPart(t, s, 3)

	got, err := s.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.PurchasePrice.Equal(models.MustMoney("12.50")))
	assert.True(t, got.SellingPrice.Equal(models.MustMoney("20")))
	assert.Equal(t, p.CodeString(), got.CodeString())

	byCode, err := s.GetPartByCode(ctx, p.CodeString())
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)
}

func TestSearchParts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*models.Part{
		{Name: "Oil Filter", Brand: "Bosch", Category: "filters"},
		{Name: "Air filter", Brand: "Mann", Category: "filters"},
		{Name: "Brake Pad", Brand: "Bosch", Category: "brakes"},
	} {
		require.NoError(t, s.CreatePart(ctx, p))
	}

	got, err := s.SearchParts(ctx, "FILTER", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Air filter", got[0].Name)

	got, err = s.SearchParts(ctx, "bosch", "brakes")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Brake Pad", got[0].Name)

	got, err = s.SearchParts(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"brakes", "filters"}, categories)
}

func TestQueriesUseDriverPlaceholders(t *testing.T) {
	tests := []struct {
		driver  string
		wantSQL string
	}{
		{config.DriverSQLite, `SELECT part_id FROM parts WHERE (part_name LIKE ? ESCAPE '\' OR brand LIKE ? ESCAPE '\') AND category = ?`},
		{config.DriverPostgres, `SELECT part_id FROM parts WHERE (part_name ILIKE $1 ESCAPE '\' OR brand ILIKE $2 ESCAPE '\') AND category = $3`},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			q := newQueries(nil, tt.driver, false)
			query, args, err := q.sb.Select("part_id").From("parts").
				Where(q.containsAny("50%_off", "part_name", "brand")).
				Where(sq.Eq{"category": "filters"}).
				ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			assert.Equal(t, []interface{}{`%50\%\_off%`, `%50\%\_off%`, "filters"}, args)
		})
	}
}

func TestSearchPartsMatchesNonASCIIKeyword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*models.Part{
		{Name: "Ölfilter", Category: "filters"},
		{Name: "50% Rabatt Öl", Category: "oil"},
		{Name: "Luftfilter", Category: "filters"},
	} {
		require.NoError(t, s.CreatePart(ctx, p))
	}

	got, err := s.SearchParts(ctx, "Öl", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "50% Rabatt Öl", got[0].Name)
	assert.Equal(t, "Ölfilter", got[1].Name)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*models.Part{
		{Name: "AXB Lamp", Category: "lights"},
		{Name: "Bulb a_b", Category: "lights"},
		{Name: "Seal 50% kit", Category: "seals"},
		{Name: "Seal 500 kit", Category: "seals"},
		{Name: `Hose 3\4`, Category: "hoses"},
	} {
		require.NoError(t, s.CreatePart(ctx, p))
	}

	got, err := s.SearchParts(ctx, "a_b", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bulb a_b", got[0].Name)

	got, err = s.SearchParts(ctx, "50%", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Seal 50% kit", got[0].Name)

	got, err = s.SearchParts(ctx, `3\4`, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, `Hose 3\4`, got[0].Name)

	c := seedCustomer(t, s)
	c.Notes = "paid 100% upfront"
	require.NoError(t, s.UpdateCustomer(ctx, c))

	customers, err := s.SearchCustomers(ctx, "0% up")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, c.ID, customers[0].ID)

	customers, err = s.SearchCustomers(ctx, "0_ up")
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPart(t, s, 3)

	updated, err := s.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)

	_, err = s.AdjustStock(ctx, p.ID, -2)
	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	_, err = s.AdjustStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, models.ErrPartNotFound)
}

func TestListLowStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPart(t, s, 10)
	low := seedPart(t, s, 2)
	empty := seedPart(t, s, 0)

	got, err := s.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, empty.ID, got[0].ID)
	assert.Equal(t, low.ID, got[1].ID)
}

func TestRepairOrderLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s)
	p := seedPart(t, s, 5)

	o := &models.RepairOrder{
		CustomerID:  c.ID,
		RepairDate:  models.NewDate(2024, 3, 15),
		LaborCost:   models.MustMoney("100"),
		PartsCost:   models.MustMoney("40"),
		TotalAmount: models.MustMoney("140"),
	}
	require.NoError(t, s.CreateRepairOrder(ctx, o))
	assert.Equal(t, models.FormatOrderNumber(o.ID), o.OrderNumber)

	partID := p.ID
	require.NoError(t, s.CreatePartUsage(ctx, &models.RepairPartUsage{
		OrderID:    o.ID,
		PartID:     &partID,
		PartName:   p.Name,
		PartSource: models.PartSourceInventory,
		Quantity:   2,
		UnitPrice:  models.MustMoney("20"),
		Subtotal:   models.MustMoney("40"),
	}))

	lines, err := s.ListPartUsage(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, partID, *lines[0].PartID)

	got, err := s.GetRepairOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.RepairDate.String())
	assert.Equal(t, models.OrderStatusInProgress, got.Status)
	assert.Nil(t, got.CompletedAt)

	ok, err := s.MarkOrderCompleted(ctx, o.ID, now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkOrderCancelled(ctx, o.ID, now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = s.GetRepairOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestCreateRepairOrderRequiresExistingCustomer(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateRepairOrder(context.Background(), &models.RepairOrder{
		CustomerID: 4242,
		RepairDate: models.Today(),
	})
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)
}

func TestDeleteBlockedByReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s)
	p := seedPart(t, s, 5)

	o := &models.RepairOrder{CustomerID: c.ID, RepairDate: models.Today()}
	require.NoError(t, s.CreateRepairOrder(ctx, o))
	partID := p.ID
	require.NoError(t, s.CreatePartUsage(ctx, &models.RepairPartUsage{
		OrderID: o.ID, PartID: &partID, PartName: p.Name, PartSource: models.PartSourceInventory, Quantity: 1,
	}))

	refs, err := s.CountPartReferences(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	assert.ErrorIs(t, s.DeletePart(ctx, p.ID), models.ErrPartInUse)
	assert.ErrorIs(t, s.DeleteCustomer(ctx, c.ID), models.ErrCustomerHasOrders)
	assert.ErrorIs(t, s.DeletePart(ctx, 9999), models.ErrPartNotFound)
}

func TestSearchRepairOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := &models.Customer{Name: "Alice Zhang"}
	bob := &models.Customer{Name: "Bob Li"}
	require.NoError(t, s.CreateCustomer(ctx, alice))
	require.NoError(t, s.CreateCustomer(ctx, bob))

	for _, o := range []*models.RepairOrder{
		{CustomerID: alice.ID, RepairDate: models.NewDate(2024, 1, 10)},
		{CustomerID: alice.ID, RepairDate: models.NewDate(2024, 2, 10)},
		{CustomerID: bob.ID, RepairDate: models.NewDate(2024, 2, 20)},
	} {
		require.NoError(t, s.CreateRepairOrder(ctx, o))
	}

	got, err := s.SearchRepairOrders(ctx, models.OrderFilter{CustomerName: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-10", got[0].RepairDate.String())

	from := models.NewDate(2024, 2, 1)
	to := models.NewDate(2024, 2, 28)
	got, err = s.SearchRepairOrders(ctx, models.OrderFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchRepairOrders(ctx, models.OrderFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, bob.ID, got[0].CustomerID)
}

func TestIntegrityCheckAndVacuum(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	problems, err := s.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, problems)

	assert.NoError(t, s.Vacuum(ctx))
}
