package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "preparing"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReadyForPickup,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem is one line of an order. Price is the menu item's price at
// creation time and never changes afterward, regardless of later catalog
// edits.
type OrderItem struct {
	ID         int             `json:"id,omitempty" db:"id"`
	OrderID    int             `json:"order_id,omitempty" db:"order_id"`
	MenuItemID int             `json:"menu_item_id" db:"menu_item_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	MenuItem   *MenuItem       `json:"menu_item,omitempty"`
}

// Order is a customer order with its line items. After creation only the
// status (and updated_at) ever changes; orders are never deleted.
type Order struct {
	ID              int             `json:"id,omitempty" db:"id"`
	UserID          int             `json:"user_id" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

// OrderLineRequest is one requested line in a create-order call.
type OrderLineRequest struct {
	MenuItemID int `json:"menuItemId"`
	Quantity   int `json:"quantity"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items"`
	DeliveryAddress string             `json:"deliveryAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

// UpdateStatusRequest is the body of PUT /api/orders/{id}.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// StatusLogEntry is one row of the order status audit trail.
type StatusLogEntry struct {
	ID         int         `json:"id,omitempty" db:"id"`
	OrderID    int         `json:"order_id" db:"order_id"`
	FromStatus OrderStatus `json:"from_status" db:"from_status"`
	ToStatus   OrderStatus `json:"to_status" db:"to_status"`
	ChangedBy  int         `json:"changed_by" db:"changed_by"`
	ChangedAt  time.Time   `json:"changed_at" db:"changed_at"`
}

const maxOrderItems = 50

// Validate checks the create-order request before any catalog lookup.
func (req *CreateOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "items array cannot be empty"}
	}
	if len(req.Items) > maxOrderItems {
		return &ValidationError{Field: "items", Reason: fmt.Sprintf("items array cannot contain more than %d items", maxOrderItems)}
	}
	for i, line := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if line.MenuItemID <= 0 {
			return &ValidationError{Field: prefix + ".menuItemId", Reason: "menuItemId is required"}
		}
		if line.Quantity < 1 {
			return &ValidationError{Field: prefix + ".quantity", Reason: "quantity must be at least 1"}
		}
	}
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return &ValidationError{Field: "deliveryAddress", Reason: "deliveryAddress is required"}
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return &ValidationError{Field: "paymentMethod", Reason: "paymentMethod is required"}
	}
	return nil
}

// Validate checks the update-status request body.
func (req *UpdateStatusRequest) Validate() error {
	if !req.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Status)}
	}
	return nil
}
