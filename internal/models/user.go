package models

// Role defines the allowed roles in the system
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
)

// Actor is the verified identity attached to every authenticated request.
// Verification happens at the auth boundary; the core trusts it.
type Actor struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

// CanUpdateStatus reports whether the actor's role may invoke a status
// transition at all. Which transition is a separate question answered by
// the transition table.
func (a Actor) CanUpdateStatus() bool {
	return a.Role == RoleAdmin || a.Role == RoleDriver
}

// CanViewOrder reports whether the actor may read the given order.
// Owners see their own orders; kitchen staff and drivers see all.
func (a Actor) CanViewOrder(ownerID int) bool {
	return a.ID == ownerID || a.Role == RoleAdmin || a.Role == RoleDriver
}
