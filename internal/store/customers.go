package store

import (
	"context"
	"fmt"
	"strings"

	"autorepair/internal/models"
)

const customerColumns = `customer_id, customer_name, phone, license_plate, car_model, car_color,
	engine_number, vin, address, notes, created_at`

func (q *Queries) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.CreatedAt = now()

	err := q.get(ctx, &c.ID, `
		INSERT INTO customers (customer_name, phone, license_plate, car_model, car_color,
			engine_number, vin, address, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING customer_id`,
		c.Name, c.Phone, c.LicensePlate, c.CarModel, c.CarColor,
		c.EngineNumber, c.VIN, c.Address, c.Notes, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (q *Queries) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	res, err := q.exec(ctx, `
		UPDATE customers SET customer_name = ?, phone = ?, license_plate = ?, car_model = ?,
			car_color = ?, engine_number = ?, vin = ?, address = ?, notes = ?
		WHERE customer_id = ?`,
		c.Name, c.Phone, c.LicensePlate, c.CarModel,
		c.CarColor, c.EngineNumber, c.VIN, c.Address, c.Notes, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", models.ErrCustomerNotFound, c.ID)
	}
	return nil
}

func (q *Queries) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, "DELETE FROM customers WHERE customer_id = ?", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", models.ErrCustomerHasOrders, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", models.ErrCustomerNotFound, id)
	}
	return nil
}

func (q *Queries) CountCustomerOrders(ctx context.Context, id int64) (int, error) {
	var n int
	if err := q.get(ctx, &n, "SELECT COUNT(*) FROM repair_orders WHERE customer_id = ?", id); err != nil {
		return 0, fmt.Errorf("failed to count customer orders: %w", err)
	}
	return n, nil
}

func (q *Queries) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := q.get(ctx, &c, "SELECT "+customerColumns+" FROM customers WHERE customer_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %d: %w", id, notFound(err, models.ErrCustomerNotFound))
	}
	return &c, nil
}

// GetCustomerByName returns the oldest customer with exactly this name
func (q *Queries) GetCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	var c models.Customer
	err := q.get(ctx, &c,
		"SELECT "+customerColumns+" FROM customers WHERE customer_name = ? ORDER BY customer_id LIMIT 1", name)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %q: %w", name, notFound(err, models.ErrCustomerNotFound))
	}
	return &c, nil
}

// GetCustomerByPhone returns the oldest customer with exactly this phone number
func (q *Queries) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var c models.Customer
	err := q.get(ctx, &c,
		"SELECT "+customerColumns+" FROM customers WHERE phone = ? ORDER BY customer_id LIMIT 1", phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %q: %w", phone, notFound(err, models.ErrCustomerNotFound))
	}
	return &c, nil
}

func (q *Queries) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return q.SearchCustomers(ctx, "")
}

// SearchCustomers matches the keyword case-insensitively against name, phone,
// license plate, car model and notes. An empty keyword matches everything.
func (q *Queries) SearchCustomers(ctx context.Context, keyword string) ([]models.Customer, error) {
	b := q.sb.Select(customerColumns).From("customers").OrderBy("customer_name", "customer_id")

	if kw := strings.TrimSpace(keyword); kw != "" {
		b = b.Where(q.containsAny(kw, "customer_name", "phone", "license_plate", "car_model", "notes"))
	}

	customers := []models.Customer{}
	if err := q.selectBuilt(ctx, &customers, b); err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}
