package order

import (
	"testing"

	"soulkitchen/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		from models.OrderStatus
		to   models.OrderStatus
		want bool
	}{
		// Admin owns the kitchen leg.
		{"admin starts preparing", models.RoleAdmin, models.StatusPending, models.StatusPreparing, true},
		{"admin marks ready", models.RoleAdmin, models.StatusPreparing, models.StatusReadyForPickup, true},
		{"admin cannot dispatch", models.RoleAdmin, models.StatusReadyForPickup, models.StatusOutForDelivery, false},
		{"admin cannot deliver", models.RoleAdmin, models.StatusOutForDelivery, models.StatusDelivered, false},

		// Driver owns the delivery leg.
		{"driver picks up", models.RoleDriver, models.StatusReadyForPickup, models.StatusOutForDelivery, true},
		{"driver delivers", models.RoleDriver, models.StatusOutForDelivery, models.StatusDelivered, true},
		{"driver cannot start preparing", models.RoleDriver, models.StatusPending, models.StatusPreparing, false},
		{"driver cannot cancel", models.RoleDriver, models.StatusPending, models.StatusCancelled, false},

		// No skipping forward. The backend this replaces allowed an admin
		// to jump pending straight to delivered; the strict graph is
		// authoritative here.
		{"admin cannot skip to delivered", models.RoleAdmin, models.StatusPending, models.StatusDelivered, false},
		{"admin cannot skip to ready", models.RoleAdmin, models.StatusPending, models.StatusReadyForPickup, false},
		{"driver cannot skip to delivered", models.RoleDriver, models.StatusReadyForPickup, models.StatusDelivered, false},

		// No moving backward.
		{"no revert to pending", models.RoleAdmin, models.StatusPreparing, models.StatusPending, false},
		{"no revert from delivery", models.RoleDriver, models.StatusOutForDelivery, models.StatusReadyForPickup, false},

		// Cancellation is an admin action from any non-terminal state.
		{"admin cancels pending", models.RoleAdmin, models.StatusPending, models.StatusCancelled, true},
		{"admin cancels preparing", models.RoleAdmin, models.StatusPreparing, models.StatusCancelled, true},
		{"admin cancels ready", models.RoleAdmin, models.StatusReadyForPickup, models.StatusCancelled, true},
		{"admin cancels out for delivery", models.RoleAdmin, models.StatusOutForDelivery, models.StatusCancelled, true},

		// Terminal states admit nothing.
		{"no transition out of delivered", models.RoleAdmin, models.StatusDelivered, models.StatusCancelled, false},
		{"no transition out of cancelled", models.RoleAdmin, models.StatusCancelled, models.StatusPreparing, false},

		// Customers are never in the table at all.
		{"customer cannot transition", models.RoleCustomer, models.StatusPending, models.StatusPreparing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.role, tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", tt.role, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCheckTransitionTerminal(t *testing.T) {
	err := checkTransition(models.RoleAdmin, models.StatusDelivered, models.StatusCancelled)
	if err == nil {
		t.Fatal("expected error for transition out of terminal state")
	}
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %T", err)
	}
}
