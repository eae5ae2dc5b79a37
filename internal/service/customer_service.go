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

// CustomerService handles the customer directory
type CustomerService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store *store.Store) *CustomerService {
	return &CustomerService{
		store:  store,
		logger: util.GetLogger(),
	}
}

type CustomerRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	LicensePlate string `json:"license_plate"`
	CarModel     string `json:"car_model"`
	CarColor     string `json:"car_color"`
	EngineNumber string `json:"engine_number"`
	VIN          string `json:"vin"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
}

func (r *CustomerRequest) apply(c *models.Customer) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return validationError("customer name is required")
	}
	c.Name = name
	c.Phone = strings.TrimSpace(r.Phone)
	c.LicensePlate = strings.ToUpper(strings.TrimSpace(r.LicensePlate))
	c.CarModel = r.CarModel
	c.CarColor = r.CarColor
	c.EngineNumber = r.EngineNumber
	c.VIN = strings.ToUpper(strings.TrimSpace(r.VIN))
	c.Address = r.Address
	c.Notes = r.Notes
	return nil
}

func (s *CustomerService) AddCustomer(ctx context.Context, req *CustomerRequest) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.AddCustomer")
	defer span.End()

	customer := &models.Customer{}
	if err := req.apply(customer); err != nil {
		return nil, err
	}

	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer added", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *CustomerRequest) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.UpdateCustomer")
	defer span.End()

	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(customer); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer updated", zap.Int64("customer_id", id))
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.GetCustomer")
	defer span.End()

	return s.store.GetCustomer(ctx, id)
}

func (s *CustomerService) GetCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.GetCustomerByName")
	defer span.End()

	return s.store.GetCustomerByName(ctx, strings.TrimSpace(name))
}

func (s *CustomerService) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.GetCustomerByPhone")
	defer span.End()

	return s.store.GetCustomerByPhone(ctx, strings.TrimSpace(phone))
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.ListCustomers")
	defer span.End()

	return s.store.ListCustomers(ctx)
}

func (s *CustomerService) SearchCustomers(ctx context.Context, keyword string) ([]models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.SearchCustomers")
	defer span.End()

	return s.store.SearchCustomers(ctx, keyword)
}

// DeleteCustomer removes a customer without repair orders
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CustomerService.DeleteCustomer")
	defer span.End()

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		orders, err := q.CountCustomerOrders(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return fmt.Errorf("%w: customer %d has %d orders", models.ErrCustomerHasOrders, id, orders)
		}
		return q.DeleteCustomer(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}

// CustomerHistory returns the customer's repair orders, newest first
func (s *CustomerService) CustomerHistory(ctx context.Context, id int64) ([]models.RepairOrder, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.CustomerHistory")
	defer span.End()

	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	return s.store.SearchRepairOrders(ctx, models.OrderFilter{CustomerID: id})
}
