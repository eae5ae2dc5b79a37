package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrInvalidLineItem         = errors.New("invalid line item")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrPartNotFound            = errors.New("part not found")
	ErrOrderNotFound           = errors.New("repair order not found")
	ErrPurchaseOrderNotFound   = errors.New("purchase order not found")
	ErrDuplicatePartCode       = errors.New("duplicate part code")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPartInUse               = errors.New("part is referenced by orders")
	ErrCustomerHasOrders       = errors.New("customer has repair orders")
)

// InsufficientStockError carries the stock level seen when a request could
// not be satisfied. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	PartID    int64
	PartName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %d (%s): available=%d, requested=%d",
		e.PartID, e.PartName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
