package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soulkitchen/internal/database"
	"soulkitchen/internal/models"
)

// Store is the PostgreSQL order repository.
type Store struct {
	db *database.DB
}

// NewStore creates an order store over the shared connection pool.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// CreateOrder inserts the order, all its line items, and the initial
// audit entry in a single transaction. A failure on any row rolls the
// whole order back; partial orders are never visible.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.UserID, order.Status, order.TotalAmount, order.DeliveryAddress, order.PaymentMethod,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRow(ctx, database.InsertOrderItemSQL,
			item.OrderID, item.MenuItemID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, database.InsertStatusLogSQL, order.ID, nil, order.Status, order.UserID)
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// UpdateStatus performs the guarded status write and appends the audit
// entry in one transaction. Zero rows updated means a concurrent writer
// changed the status since the caller read it.
func (s *Store) UpdateStatus(ctx context.Context, orderID int, from, to models.OrderStatus, changedBy int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, to, orderID, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	_, err = tx.Exec(ctx, database.InsertStatusLogSQL, orderID, from, to, changedBy)
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// OrderByID returns one order with its items, or models.ErrNotFound.
func (s *Store) OrderByID(ctx context.Context, id int) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRow(ctx, database.GetOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
		&o.DeliveryAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("query order %d: %w", id, err)
	}

	orders := []models.Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// OrdersByUser returns a customer's orders, newest first, with items.
func (s *Store) OrdersByUser(ctx context.Context, userID int) ([]models.Order, error) {
	return s.queryOrders(ctx, database.GetOrdersByUserSQL, userID)
}

// AllOrders returns every order, newest first, with items.
func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, database.GetAllOrdersSQL)
}

// OrdersByStatuses returns orders in any of the given statuses, newest
// first, with items.
func (s *Store) OrdersByStatuses(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	return s.queryOrders(ctx, database.GetOrdersByStatusesSQL, values)
}

func (s *Store) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
			&o.DeliveryAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads line items (with their menu item snapshot reference)
// for the given orders in one query. Every read is an aggregate fetch: an
// order without its items is not meaningful to any caller.
func (s *Store) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int, len(orders))
	index := make(map[int]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}

	rows, err := s.db.Query(ctx, database.GetOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var menuItem models.MenuItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.Price,
			&menuItem.ID, &menuItem.CategoryID, &menuItem.Name, &menuItem.Description,
			&menuItem.Price, &menuItem.ImageURL, &menuItem.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.MenuItem = &menuItem
		if order, ok := index[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}
