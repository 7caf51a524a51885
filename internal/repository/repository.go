package repository

import (
	"context"
	"time"

	"netfence/internal/domain"
)

// Store defines durable access to the inventory. Multi-statement
// operations (login bookkeeping, the replace methods, segment deletion)
// run inside a single transaction: partial application is never
// observable, and a canceled context rolls back.
type Store interface {
	// Accounts
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error

	// RecordFailedLogin atomically increments the failed-attempt counter
	// and, when the new count reaches threshold, sets the lock. It
	// returns the new count and the lock timestamp if one was set.
	RecordFailedLogin(ctx context.Context, id int64, threshold int, lockFor time.Duration) (int, *time.Time, error)

	// RecordSuccessfulLogin resets the counter, clears any lock, and
	// stamps last_login.
	RecordSuccessfulLogin(ctx context.Context, id int64) error

	// Segments
	ListSegments(ctx context.Context) ([]domain.Segment, error)
	GetSegment(ctx context.Context, id int64) (*domain.Segment, error)
	GetSegmentByVlanID(ctx context.Context, vlanID int) (*domain.Segment, error)
	CreateSegment(ctx context.Context, segment *domain.Segment) error
	UpdateSegment(ctx context.Context, segment *domain.Segment) error

	// DeleteSegment detaches referencing devices (segment reference goes
	// absent), cascades communication rules and port PVIDs pointing at
	// the segment, then removes the row.
	DeleteSegment(ctx context.Context, id int64) error

	// Devices
	ListDevices(ctx context.Context) ([]domain.Device, error)
	GetDevice(ctx context.Context, id int64) (*domain.Device, error)
	CreateDevice(ctx context.Context, device *domain.Device) error
	UpdateDevice(ctx context.Context, device *domain.Device) error
	DeleteDevice(ctx context.Context, id int64) error

	// Communication rules and limited-device exceptions
	ListRules(ctx context.Context) ([]domain.CommunicationRule, error)
	GetRule(ctx context.Context, id int64) (*domain.CommunicationRule, error)
	GetRuleByPair(ctx context.Context, sourceVlanID, targetVlanID int) (*domain.CommunicationRule, error)
	UpsertRule(ctx context.Context, rule *domain.CommunicationRule) error
	DeleteRule(ctx context.Context, id int64) error
	ListLimitedDevices(ctx context.Context, ruleID int64) ([]domain.LimitedDeviceException, error)
	IsLimitedDevice(ctx context.Context, ruleID, deviceID int64) (bool, error)

	// ReplaceLimitedDevices swaps the full exception set for a rule in
	// one transaction: delete everything, insert the provided set.
	ReplaceLimitedDevices(ctx context.Context, ruleID int64, deviceIDs []int64) error

	// Switches and ports
	ListSwitches(ctx context.Context) ([]domain.Switch, error)
	CreateSwitch(ctx context.Context, sw *domain.Switch) error
	UpdateSwitch(ctx context.Context, sw *domain.Switch) error
	DeleteSwitch(ctx context.Context, id int64) error
	ListSwitchPorts(ctx context.Context, switchID int64) ([]domain.SwitchPort, error)
	GetSwitchPort(ctx context.Context, id int64) (*domain.SwitchPort, error)
	CreateSwitchPort(ctx context.Context, port *domain.SwitchPort) error
	UpdateSwitchPort(ctx context.Context, port *domain.SwitchPort) error
	DeleteSwitchPort(ctx context.Context, id int64) error

	// ReplacePortVlans swaps the full membership set for a port in one
	// transaction, mirroring ReplaceLimitedDevices.
	ReplacePortVlans(ctx context.Context, portID int64, memberships []domain.PortVlanMembership) error
	GetPortVlans(ctx context.Context, portID int64) ([]domain.PortVlanMembership, error)

	// Reservations
	ListReservations(ctx context.Context, vlanID int) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, reservation *domain.Reservation) error
	UpdateReservation(ctx context.Context, reservation *domain.Reservation) error
	DeleteReservation(ctx context.Context, id int64) error

	// Audit trail (append-only)
	InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)

	// Close releases resources
	Close() error
}
