package service

import (
	"context"
	"testing"

	"autorepair/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePurchaseOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pub := quietPublisher()
	svc := NewPurchaseService(s, pub, 20)

	filter := seedPart(t, s, 2, 5, "4.00", "9.00")
	belt := seedPart(t, s, 0, 1, "15.00", "30.00")

	details, err := svc.CreatePurchaseOrder(ctx, &CreatePurchaseOrderRequest{
		SupplierName: " Acme Parts ",
		Operator:     "warehouse",
		PurchaseDate: datePtr(models.NewDate(2024, 6, 3)),
		Items: []PurchaseLineRequest{
			{PartID: filter.ID, Quantity: 10, UnitPrice: models.MustMoney("3.75")},
			{PartID: belt.ID, Quantity: 4, UnitPrice: models.MustMoney("14.20")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Parts", details.Order.SupplierName)
	assert.Equal(t, models.PurchaseStatusCompleted, details.Order.Status)
	assert.Equal(t, "94.30", details.Order.TotalAmount.String())
	require.Len(t, details.Details, 2)
	assert.Equal(t, filter.Name, details.Details[0].PartName)

	assert.Equal(t, 12, stockOf(t, s, filter.ID))
	assert.Equal(t, 4, stockOf(t, s, belt.ID))

	stored, err := svc.GetPurchaseOrder(ctx, details.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", stored.Order.PurchaseDate.String())
	assert.Len(t, stored.Details, 2)

	list, err := svc.ListPurchaseOrders(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	pub.AssertCalled(t, "PublishPurchaseOrderReceived", mock.Anything, mock.MatchedBy(func(e *models.PurchaseOrderReceivedEvent) bool {
		return e.OrderID == details.Order.ID && len(e.Items) == 2
	}))
}

func TestCreatePurchaseOrderUnknownPartRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewPurchaseService(s, quietPublisher(), 20)

	part := seedPart(t, s, 1, 0, "1.00", "2.00")

	_, err := svc.CreatePurchaseOrder(ctx, &CreatePurchaseOrderRequest{
		SupplierName: "Acme",
		Items: []PurchaseLineRequest{
			{PartID: part.ID, Quantity: 5, UnitPrice: models.MustMoney("1")},
			{PartID: part.ID + 50, Quantity: 1, UnitPrice: models.MustMoney("1")},
		},
	})
	assert.ErrorIs(t, err, models.ErrPartNotFound)
	assert.Equal(t, 1, stockOf(t, s, part.ID))
	assert.Equal(t, 0, countRows(t, s, "purchase_orders"))
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc := NewPurchaseService(newTestStore(t), quietPublisher(), 20)
	ctx := context.Background()

	_, err := svc.CreatePurchaseOrder(ctx, &CreatePurchaseOrderRequest{
		Items: []PurchaseLineRequest{{PartID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreatePurchaseOrder(ctx, &CreatePurchaseOrderRequest{SupplierName: "Acme"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreatePurchaseOrder(ctx, &CreatePurchaseOrderRequest{
		SupplierName: "Acme",
		Items:        []PurchaseLineRequest{{PartID: 1, Quantity: 0}},
	})
	assert.ErrorIs(t, err, models.ErrInvalidLineItem)

	_, err = svc.GetPurchaseOrder(ctx, 42)
	assert.ErrorIs(t, err, models.ErrPurchaseOrderNotFound)
}
