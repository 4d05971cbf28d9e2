package order

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"soulkitchen/internal/logger"
	"soulkitchen/internal/models"
)

// fakeCatalog serves menu items from memory and allows price edits to
// exercise the snapshot behavior.
type fakeCatalog struct {
	items map[int]models.MenuItem
}

func (c *fakeCatalog) MenuItem(ctx context.Context, id int) (*models.MenuItem, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("menu item %d: %w", id, models.ErrNotFound)
	}
	copied := item
	return &copied, nil
}

// fakeRepo is an in-memory Repository. CreateOrder stores the whole
// aggregate or nothing, mirroring the transactional contract.
type fakeRepo struct {
	nextID     int
	orders     map[int]models.Order
	failCreate bool
	forceConflict bool
	base       time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders: make(map[int]models.Order),
		base:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if r.failCreate {
		return errors.New("connection reset by peer")
	}
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = r.base.Add(time.Duration(r.nextID) * time.Minute)
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = r.nextID*100 + i
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *fakeRepo) OrderByID(ctx context.Context, id int) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	copied := copyOrder(o)
	return &copied, nil
}

func (r *fakeRepo) OrdersByUser(ctx context.Context, userID int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeRepo) AllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		out = append(out, copyOrder(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeRepo) OrdersByStatuses(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	wanted := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []models.Order
	for _, o := range r.orders {
		if wanted[o.Status] {
			out = append(out, copyOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, orderID int, from, to models.OrderStatus, changedBy int) error {
	if r.forceConflict {
		return ErrStatusConflict
	}
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = o.UpdatedAt.Add(time.Second)
	r.orders[orderID] = o
	return nil
}

// setStatus seeds an order directly into a given status, bypassing the
// engine, for query tests.
func (r *fakeRepo) setStatus(orderID int, status models.OrderStatus) {
	o := r.orders[orderID]
	o.Status = status
	r.orders[orderID] = o
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.events = append(p.events, fmt.Sprintf("created:%d", order.ID))
	return nil
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	p.events = append(p.events, fmt.Sprintf("status:%d:%s->%s", order.ID, from, order.Status))
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(repo *fakeRepo, catalog *fakeCatalog, pub EventPublisher) *Service {
	return NewService(repo, catalog, pub, logger.New("test"), dec("5.00"))
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{items: map[int]models.MenuItem{
		1: {ID: 1, CategoryID: 1, Name: "Classic Fried Chicken", Price: dec("12.99")},
		2: {ID: 2, CategoryID: 4, Name: "Sweet Tea", Price: dec("2.99")},
		3: {ID: 3, CategoryID: 2, Name: "Cornbread", Price: dec("3.99")},
	}}
}

var (
	customer      = models.Actor{ID: 10, Role: models.RoleCustomer}
	otherCustomer = models.Actor{ID: 11, Role: models.RoleCustomer}
	admin         = models.Actor{ID: 20, Role: models.RoleAdmin}
	driver        = models.Actor{ID: 30, Role: models.RoleDriver}
)

func createTestOrder(t *testing.T, svc *Service, actor models.Actor) *models.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), actor, &models.CreateOrderRequest{
		Items:           []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
		DeliveryAddress: "742 Evergreen Terrace",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	return order
}

func TestCreateOrderTotalAmount(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	order, err := svc.CreateOrder(context.Background(), customer, &models.CreateOrderRequest{
		Items: []models.OrderLineRequest{
			{MenuItemID: 1, Quantity: 2}, // 12.99 x 2
			{MenuItemID: 2, Quantity: 1}, // 2.99 x 1
		},
		DeliveryAddress: "742 Evergreen Terrace",
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if want := dec("33.97"); !order.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", order.TotalAmount, want)
	}
	if order.Status != models.StatusPending {
		t.Errorf("Status = %s, want pending", order.Status)
	}
	if order.UserID != customer.ID {
		t.Errorf("UserID = %d, want %d", order.UserID, customer.ID)
	}
	if len(order.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(order.Items))
	}
	if !order.Items[0].Price.Equal(dec("12.99")) {
		t.Errorf("line 0 price = %s, want 12.99", order.Items[0].Price)
	}
}

func TestCreateOrderUnknownItemLeavesNoState(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	_, err := svc.CreateOrder(context.Background(), customer, &models.CreateOrderRequest{
		Items: []models.OrderLineRequest{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 999, Quantity: 1},
		},
		DeliveryAddress: "742 Evergreen Terrace",
		PaymentMethod:   "cash",
	})
	if err == nil {
		t.Fatal("expected error for unknown menu item")
	}
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Errorf("repository contains %d orders after failed creation, want 0", len(repo.orders))
	}
}

func TestCreateOrderPersistenceFailureLeavesNoState(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreate = true
	svc := newTestService(repo, testCatalog(), nil)

	_, err := svc.CreateOrder(context.Background(), customer, &models.CreateOrderRequest{
		Items:           []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
		DeliveryAddress: "742 Evergreen Terrace",
		PaymentMethod:   "cash",
	})
	if err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if len(repo.orders) != 0 {
		t.Errorf("repository contains %d orders after failed commit, want 0", len(repo.orders))
	}
}

func TestPriceSnapshotSurvivesCatalogEdit(t *testing.T) {
	repo := newFakeRepo()
	catalog := &fakeCatalog{items: map[int]models.MenuItem{
		1: {ID: 1, CategoryID: 1, Name: "Chicken Tenders", Price: dec("10.00")},
	}}
	svc := newTestService(repo, catalog, nil)

	created := createTestOrder(t, svc, customer)

	// Menu price doubles after the order was placed.
	item := catalog.items[1]
	item.Price = dec("20.00")
	catalog.items[1] = item

	fetched, err := svc.OrderByID(context.Background(), customer, created.ID)
	if err != nil {
		t.Fatalf("OrderByID returned error: %v", err)
	}
	if !fetched.Items[0].Price.Equal(dec("10.00")) {
		t.Errorf("snapshot price = %s, want 10.00", fetched.Items[0].Price)
	}
	if !fetched.TotalAmount.Equal(dec("15.00")) {
		t.Errorf("total = %s, want 15.00", fetched.TotalAmount)
	}
}

func TestUpdateStatusForbiddenForCustomer(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	// Forbidden regardless of whether the order exists.
	_, err := svc.UpdateStatus(context.Background(), customer, 12345, models.StatusPreparing)
	if !errors.Is(err, models.ErrForbidden) {
		t.Errorf("expected ErrForbidden for customer, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	_, err := svc.UpdateStatus(context.Background(), admin, 12345, models.StatusPreparing)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusForwardPath(t *testing.T) {
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	svc := newTestService(repo, testCatalog(), pub)

	order := createTestOrder(t, svc, customer)

	steps := []struct {
		actor models.Actor
		to    models.OrderStatus
	}{
		{admin, models.StatusPreparing},
		{admin, models.StatusReadyForPickup},
		{driver, models.StatusOutForDelivery},
		{driver, models.StatusDelivered},
	}

	for _, step := range steps {
		updated, err := svc.UpdateStatus(context.Background(), step.actor, order.ID, step.to)
		if err != nil {
			t.Fatalf("UpdateStatus(%s) returned error: %v", step.to, err)
		}
		if updated.Status != step.to {
			t.Errorf("status = %s, want %s", updated.Status, step.to)
		}
	}

	// order created + four status changes
	if len(pub.events) != 5 {
		t.Errorf("published %d events, want 5: %v", len(pub.events), pub.events)
	}
}

func TestUpdateStatusRejectsSkippingAhead(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	order := createTestOrder(t, svc, customer)

	// The strict transition graph is authoritative: an admin may not jump
	// a pending order straight to delivered.
	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, models.StatusDelivered)
	if err == nil {
		t.Fatal("expected error for pending -> delivered")
	}
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	fetched, err := svc.OrderByID(context.Background(), admin, order.ID)
	if err != nil {
		t.Fatalf("OrderByID returned error: %v", err)
	}
	if fetched.Status != models.StatusPending {
		t.Errorf("status mutated to %s by a rejected transition", fetched.Status)
	}
}

func TestUpdateStatusCancellation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	order := createTestOrder(t, svc, customer)

	updated, err := svc.UpdateStatus(context.Background(), admin, order.ID, models.StatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus(cancelled) returned error: %v", err)
	}
	if updated.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}

	// Terminal: nothing moves out of cancelled.
	_, err = svc.UpdateStatus(context.Background(), admin, order.ID, models.StatusPreparing)
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError out of terminal state, got %v", err)
	}
}

func TestUpdateStatusConcurrentConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	order := createTestOrder(t, svc, customer)
	repo.forceConflict = true

	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, models.StatusPreparing)
	if err == nil {
		t.Fatal("expected error when a concurrent writer changed the status")
	}
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestOrderByIDVisibility(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	order := createTestOrder(t, svc, customer)

	tests := []struct {
		name      string
		actor     models.Actor
		forbidden bool
	}{
		{"owner", customer, false},
		{"other customer", otherCustomer, true},
		{"admin", admin, false},
		{"driver", driver, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.OrderByID(context.Background(), tt.actor, order.ID)
			if tt.forbidden && !errors.Is(err, models.ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
			if !tt.forbidden && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestListViewRoleGates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	if _, err := svc.AllOrders(context.Background(), customer); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("AllOrders(customer): expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AllOrders(context.Background(), driver); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("AllOrders(driver): expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AllOrders(context.Background(), admin); err != nil {
		t.Errorf("AllOrders(admin): unexpected error %v", err)
	}

	if _, err := svc.DriverOrders(context.Background(), customer); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("DriverOrders(customer): expected ErrForbidden, got %v", err)
	}
	if _, err := svc.DriverOrders(context.Background(), admin); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("DriverOrders(admin): expected ErrForbidden, got %v", err)
	}
	if _, err := svc.DriverOrders(context.Background(), driver); err != nil {
		t.Errorf("DriverOrders(driver): unexpected error %v", err)
	}
}

func TestDriverOrdersFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	statuses := []models.OrderStatus{
		models.StatusPending,
		models.StatusPreparing,
		models.StatusReadyForPickup,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	}
	for _, status := range statuses {
		order := createTestOrder(t, svc, customer)
		repo.setStatus(order.ID, status)
	}

	orders, err := svc.DriverOrders(context.Background(), driver)
	if err != nil {
		t.Fatalf("DriverOrders returned error: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
	// Newest first: out_for_delivery was created after ready_for_pickup.
	if orders[0].Status != models.StatusOutForDelivery {
		t.Errorf("orders[0].Status = %s, want out_for_delivery", orders[0].Status)
	}
	if orders[1].Status != models.StatusReadyForPickup {
		t.Errorf("orders[1].Status = %s, want ready_for_pickup", orders[1].Status)
	}
}

func TestMyOrdersNewestFirstAndIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testCatalog(), nil)

	first := createTestOrder(t, svc, customer)
	second := createTestOrder(t, svc, customer)
	createTestOrder(t, svc, otherCustomer)

	orders, err := svc.MyOrders(context.Background(), customer)
	if err != nil {
		t.Fatalf("MyOrders returned error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
	if orders[0].ID != second.ID || orders[1].ID != first.ID {
		t.Errorf("orders not newest first: got ids %d, %d", orders[0].ID, orders[1].ID)
	}

	again, err := svc.MyOrders(context.Background(), customer)
	if err != nil {
		t.Fatalf("MyOrders returned error: %v", err)
	}
	if !reflect.DeepEqual(orders, again) {
		t.Error("repeated reads with no writes returned different results")
	}
}
