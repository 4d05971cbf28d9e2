package order

import (
	"fmt"

	"soulkitchen/internal/models"
)

// Transition policy. The reference backend this replaces only checked
// coarse role membership on the update endpoint: any admin or driver
// could write any status value, including jumping pending straight to
// delivered. That looseness is deliberate to tighten here — each role is
// scoped to its own leg of the lifecycle and every transition must follow
// the forward graph. Cancellation is an admin action from any
// non-terminal state; delivered and cancelled are terminal.
var allowedTransitions = map[models.Role]map[models.OrderStatus][]models.OrderStatus{
	models.RoleAdmin: {
		models.StatusPending:        {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing:      {models.StatusReadyForPickup, models.StatusCancelled},
		models.StatusReadyForPickup: {models.StatusCancelled},
		models.StatusOutForDelivery: {models.StatusCancelled},
	},
	models.RoleDriver: {
		models.StatusReadyForPickup: {models.StatusOutForDelivery},
		models.StatusOutForDelivery: {models.StatusDelivered},
	},
}

// CanTransition reports whether the role may move an order from one
// status to another.
func CanTransition(role models.Role, from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[role][from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns a ValidationError describing why the move is
// illegal, or nil if it is permitted.
func checkTransition(role models.Role, from, to models.OrderStatus) error {
	if from.Terminal() {
		return &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("order is %s and can no longer change", from),
		}
	}
	if !CanTransition(role, from, to) {
		return &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("role %s may not move an order from %s to %s", role, from, to),
		}
	}
	return nil
}
