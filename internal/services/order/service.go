package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"soulkitchen/internal/logger"
	"soulkitchen/internal/models"
)

// ErrStatusConflict is returned by the repository when a guarded status
// update matched no row because a concurrent writer got there first.
var ErrStatusConflict = errors.New("order status changed concurrently")

// Catalog resolves menu items at order-creation time. The catalog is a
// read-only collaborator; the lifecycle engine never writes to it.
type Catalog interface {
	MenuItem(ctx context.Context, id int) (*models.MenuItem, error)
}

// Repository persists orders and their line items. CreateOrder must be
// atomic: either the order and all its items are visible afterward, or
// nothing is.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderByID(ctx context.Context, id int) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID int) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	OrdersByStatuses(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID int, from, to models.OrderStatus, changedBy int) error
}

// EventPublisher pushes order events to interested subscribers. Delivery
// is best-effort; a broker outage never fails the request.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

// Service is the order lifecycle engine: the sole authority on what
// constitutes a legal order and a legal status change.
type Service struct {
	repo        Repository
	catalog     Catalog
	publisher   EventPublisher
	logger      *logger.Logger
	deliveryFee decimal.Decimal
}

// NewService creates the lifecycle engine. publisher may be nil when the
// service runs without a broker.
func NewService(repo Repository, catalog Catalog, publisher EventPublisher, log *logger.Logger, deliveryFee decimal.Decimal) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		publisher:   publisher,
		logger:      log,
		deliveryFee: deliveryFee,
	}
}

// CreateOrder resolves every requested line against the catalog,
// snapshots current prices, adds the flat delivery fee, and persists the
// order with all its items in one transaction. Any line failure aborts
// the whole operation with no rows written.
func (s *Service) CreateOrder(ctx context.Context, actor models.Actor, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, line := range req.Items {
		menuItem, err := s.catalog.MenuItem(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, &models.ValidationError{
					Field:  "items",
					Reason: fmt.Sprintf("menu item %d not found", line.MenuItemID),
				}
			}
			return nil, fmt.Errorf("resolve menu item %d: %w", line.MenuItemID, err)
		}

		subtotal = subtotal.Add(menuItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Quantity:   line.Quantity,
			Price:      menuItem.Price,
		})
	}

	order := &models.Order{
		UserID:          actor.ID,
		Status:          models.StatusPending,
		TotalAmount:     subtotal.Add(s.deliveryFee),
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish order created event", "", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}

	return order, nil
}

// UpdateStatus moves an order to a new status. The actor's role must be
// allowed to update at all, and the move must be legal for that role
// under the transition table. The write is guarded on the observed
// status, so two concurrent transitions cannot silently overwrite each
// other.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, orderID int, newStatus models.OrderStatus) (*models.Order, error) {
	if !actor.CanUpdateStatus() {
		return nil, fmt.Errorf("status update requires admin or driver role: %w", models.ErrForbidden)
	}

	req := models.UpdateStatusRequest{Status: newStatus}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(actor.Role, current.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, current.Status, newStatus, actor.ID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, &models.ValidationError{
				Field:  "status",
				Reason: "order status changed concurrently, re-read and retry",
			}
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	updated, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishStatusChanged(ctx, updated, current.Status); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish status change event", "", err, map[string]interface{}{
				"order_id": orderID,
			})
		}
	}

	return updated, nil
}

// MyOrders returns the actor's own orders, newest first.
func (s *Service) MyOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	return s.repo.OrdersByUser(ctx, actor.ID)
}

// AllOrders returns every order for kitchen staff, newest first.
func (s *Service) AllOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("listing all orders requires admin role: %w", models.ErrForbidden)
	}
	return s.repo.AllOrders(ctx)
}

// DriverOrders returns pickup- and delivery-eligible orders, newest first.
func (s *Service) DriverOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if actor.Role != models.RoleDriver {
		return nil, fmt.Errorf("driver queue requires driver role: %w", models.ErrForbidden)
	}
	return s.repo.OrdersByStatuses(ctx, []models.OrderStatus{
		models.StatusReadyForPickup,
		models.StatusOutForDelivery,
	})
}

// OrderByID returns one order with its items. Visible to the owning
// customer, any admin, and any driver.
func (s *Service) OrderByID(ctx context.Context, actor models.Actor, orderID int) (*models.Order, error) {
	order, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewOrder(order.UserID) {
		return nil, fmt.Errorf("order %d belongs to another customer: %w", orderID, models.ErrForbidden)
	}
	return order, nil
}
