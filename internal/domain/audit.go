package domain

import "time"

// Audit actions recorded by the core. Mutating operations use the
// generic CRUD actions; the authenticator uses the login/access ones.
const (
	ActionCreate            = "CREATE"
	ActionUpdate            = "UPDATE"
	ActionDelete            = "DELETE"
	ActionLoginSuccess      = "LOGIN_SUCCESS"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionChangePassword    = "CHANGE_PASSWORD"
	ActionUnauthorized      = "UNAUTHORIZED_ACCESS"
	ActionSetVlanComm       = "SET_VLAN_COMM"
	ActionSetLimitedDevices = "SET_LIMITED_DEVICES"
	ActionSetPortVlans      = "SET_PORT_VLANS"
)

// AuditEntry is one append-only record of a security-relevant or
// mutating action. ActorID is nil for anonymous events (for example a
// failed login against an unknown username). Entries are never updated
// or deleted.
type AuditEntry struct {
	ID         int64          `json:"id"`
	ActorID    *int64         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   *int64         `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Origin     string         `json:"origin,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
