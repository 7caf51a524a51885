package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"netfence/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustSegment(t *testing.T, repo *Repository, vlanID int, name string) *domain.Segment {
	t.Helper()
	segment := &domain.Segment{VlanID: vlanID, Name: name, WanAccess: true, NetworkPrefix: "192.168"}
	assertNoError(t, repo.CreateSegment(context.Background(), segment))
	return segment
}

func mustDevice(t *testing.T, repo *Repository, ip string, vlanID *int) *domain.Device {
	t.Helper()
	device := &domain.Device{
		IP:        ip,
		MAC:       "AA:BB:CC:DD:EE:FF",
		VlanID:    vlanID,
		WanAccess: true,
		Interface: domain.InterfaceEth,
	}
	assertNoError(t, repo.CreateDevice(context.Background(), device))
	return device
}

func vlanRef(id int) *int { return &id }

// ============================================================================
// Accounts
// ============================================================================

func TestAccountLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := &domain.Account{Username: "admin", PasswordHash: "$2a$12$hash", Role: domain.RoleAdmin}
	assertNoError(t, repo.CreateAccount(ctx, account))
	if account.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := repo.GetAccountByUsername(ctx, "admin")
	assertNoError(t, err)
	if got.Role != domain.RoleAdmin || got.FailedAttempts != 0 || got.LockedUntil != nil {
		t.Fatalf("unexpected stored account: %+v", got)
	}

	// Duplicate username is a conflict
	dup := &domain.Account{Username: "admin", PasswordHash: "x", Role: domain.RoleViewer}
	if err := repo.CreateAccount(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	assertNoError(t, repo.DeleteAccount(ctx, account.ID))
	if _, err := repo.GetAccountByID(ctx, account.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := &domain.Account{Username: "operator", PasswordHash: "x", Role: domain.RoleViewer}
	assertNoError(t, repo.CreateAccount(ctx, account))

	for i := 1; i < 5; i++ {
		attempts, lockedUntil, err := repo.RecordFailedLogin(ctx, account.ID, 5, 15*time.Minute)
		assertNoError(t, err)
		if attempts != i {
			t.Fatalf("attempt %d: expected count %d, got %d", i, i, attempts)
		}
		if lockedUntil != nil {
			t.Fatalf("attempt %d: lock set too early", i)
		}
	}

	attempts, lockedUntil, err := repo.RecordFailedLogin(ctx, account.ID, 5, 15*time.Minute)
	assertNoError(t, err)
	if attempts != 5 {
		t.Fatalf("expected count 5, got %d", attempts)
	}
	if lockedUntil == nil {
		t.Fatal("expected lock at threshold")
	}
	remaining := time.Until(*lockedUntil)
	if remaining < 14*time.Minute || remaining > 16*time.Minute {
		t.Fatalf("lock duration out of range: %v", remaining)
	}

	got, err := repo.GetAccountByID(ctx, account.ID)
	assertNoError(t, err)
	if !got.Locked(time.Now()) {
		t.Fatal("stored account should be locked")
	}
}

func TestRecordSuccessfulLoginResetsState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := &domain.Account{Username: "operator", PasswordHash: "x", Role: domain.RoleViewer}
	assertNoError(t, repo.CreateAccount(ctx, account))

	for i := 0; i < 5; i++ {
		_, _, err := repo.RecordFailedLogin(ctx, account.ID, 5, 15*time.Minute)
		assertNoError(t, err)
	}

	assertNoError(t, repo.RecordSuccessfulLogin(ctx, account.ID))

	got, err := repo.GetAccountByID(ctx, account.ID)
	assertNoError(t, err)
	if got.FailedAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", got.FailedAttempts)
	}
	if got.LockedUntil != nil {
		t.Fatal("expected lock cleared")
	}
	if got.LastLogin == nil {
		t.Fatal("expected last_login stamped")
	}
}

// ============================================================================
// Segments
// ============================================================================

func TestSegmentUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")

	dup := &domain.Segment{VlanID: 10, Name: "Duplicate", NetworkPrefix: "192.168"}
	if err := repo.CreateSegment(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteSegmentDetachesDevicesAndCascadesRules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mgmt := mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	device := mustDevice(t, repo, "192.168.10.5", vlanRef(10))

	rule := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessLimited}
	assertNoError(t, repo.UpsertRule(ctx, rule))

	sw := &domain.Switch{Name: "core-1"}
	assertNoError(t, repo.CreateSwitch(ctx, sw))
	port := &domain.SwitchPort{SwitchID: sw.ID, PortNumber: 1, PVID: vlanRef(10)}
	assertNoError(t, repo.CreateSwitchPort(ctx, port))

	assertNoError(t, repo.DeleteSegment(ctx, mgmt.ID))

	// Device survives with its segment reference cleared
	got, err := repo.GetDevice(ctx, device.ID)
	assertNoError(t, err)
	if got.VlanID != nil {
		t.Fatalf("expected detached device, got vlan %d", *got.VlanID)
	}

	// Rules referencing the segment are gone
	if _, err := repo.GetRuleByPair(ctx, 10, 20); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected rule cascade, got %v", err)
	}

	// PVID reference cleared, port survives
	gotPort, err := repo.GetSwitchPort(ctx, port.ID)
	assertNoError(t, err)
	if gotPort.PVID != nil {
		t.Fatalf("expected PVID cleared, got %d", *gotPort.PVID)
	}
}

// ============================================================================
// Devices
// ============================================================================

func TestDeviceAddressUniquePerSegment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	mustDevice(t, repo, "192.168.0.5", vlanRef(10))

	// Same address in a different segment is allowed
	other := &domain.Device{IP: "192.168.0.5", MAC: "11:22:33:44:55:66", VlanID: vlanRef(20), Interface: domain.InterfaceEth}
	assertNoError(t, repo.CreateDevice(ctx, other))

	// Same address in the same segment is a conflict
	dup := &domain.Device{IP: "192.168.0.5", MAC: "66:55:44:33:22:11", VlanID: vlanRef(10), Interface: domain.InterfaceEth}
	if err := repo.CreateDevice(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDevicePortsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	device := &domain.Device{
		IP:        "192.168.10.9",
		MAC:       "AA:BB:CC:00:11:22",
		VlanID:    vlanRef(10),
		Interface: domain.InterfaceWifi,
		Ports:     []int{22, 80, 443},
	}
	assertNoError(t, repo.CreateDevice(ctx, device))

	got, err := repo.GetDevice(ctx, device.ID)
	assertNoError(t, err)
	if len(got.Ports) != 3 || got.Ports[0] != 22 || got.Ports[2] != 443 {
		t.Fatalf("unexpected ports: %v", got.Ports)
	}
	if got.Interface != domain.InterfaceWifi {
		t.Fatalf("unexpected interface: %s", got.Interface)
	}
}

func TestCreateDeviceUnknownSegment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	device := &domain.Device{IP: "10.0.0.1", MAC: "AA:BB:CC:DD:EE:FF", VlanID: vlanRef(99), Interface: domain.InterfaceEth}
	if err := repo.CreateDevice(ctx, device); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling segment, got %v", err)
	}
}

// ============================================================================
// Communication rules
// ============================================================================

func TestUpsertRuleOverwritesAccessType(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	first := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessLimited}
	assertNoError(t, repo.UpsertRule(ctx, first))

	second := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessBlocked}
	assertNoError(t, repo.UpsertRule(ctx, second))

	if second.ID != first.ID {
		t.Fatalf("upsert created a new row: %d != %d", second.ID, first.ID)
	}

	rules, err := repo.ListRules(ctx)
	assertNoError(t, err)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].AccessType != domain.AccessBlocked {
		t.Fatalf("expected blocked, got %s", rules[0].AccessType)
	}
}

func TestRulePairsAreDirectional(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	forward := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessFull}
	assertNoError(t, repo.UpsertRule(ctx, forward))

	if _, err := repo.GetRuleByPair(ctx, 20, 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("reverse pair should not exist, got %v", err)
	}

	reverse := &domain.CommunicationRule{SourceVlanID: 20, TargetVlanID: 10, AccessType: domain.AccessBlocked}
	assertNoError(t, repo.UpsertRule(ctx, reverse))
	if reverse.ID == forward.ID {
		t.Fatal("reverse pair should be a distinct row")
	}
}

func TestReplaceLimitedDevices(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	d1 := mustDevice(t, repo, "192.168.10.1", vlanRef(10))
	d2 := &domain.Device{IP: "192.168.10.2", MAC: "11:22:33:44:55:66", VlanID: vlanRef(10), Interface: domain.InterfaceEth}
	assertNoError(t, repo.CreateDevice(ctx, d2))

	rule := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessLimited}
	assertNoError(t, repo.UpsertRule(ctx, rule))

	assertNoError(t, repo.ReplaceLimitedDevices(ctx, rule.ID, []int64{d1.ID, d2.ID}))

	exceptions, err := repo.ListLimitedDevices(ctx, rule.ID)
	assertNoError(t, err)
	if len(exceptions) != 2 {
		t.Fatalf("expected 2 exceptions, got %d", len(exceptions))
	}

	// Replace is a full swap, not a merge
	assertNoError(t, repo.ReplaceLimitedDevices(ctx, rule.ID, []int64{d2.ID}))
	exceptions, err = repo.ListLimitedDevices(ctx, rule.ID)
	assertNoError(t, err)
	if len(exceptions) != 1 || exceptions[0].DeviceID != d2.ID {
		t.Fatalf("expected only device %d, got %+v", d2.ID, exceptions)
	}

	// Empty set clears everything
	assertNoError(t, repo.ReplaceLimitedDevices(ctx, rule.ID, nil))
	exceptions, err = repo.ListLimitedDevices(ctx, rule.ID)
	assertNoError(t, err)
	if len(exceptions) != 0 {
		t.Fatalf("expected cleared set, got %d", len(exceptions))
	}

	// Unknown rule
	if err := repo.ReplaceLimitedDevices(ctx, 9999, []int64{d1.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRuleCascadesExceptions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")
	device := mustDevice(t, repo, "192.168.10.1", vlanRef(10))

	rule := &domain.CommunicationRule{SourceVlanID: 10, TargetVlanID: 20, AccessType: domain.AccessLimited}
	assertNoError(t, repo.UpsertRule(ctx, rule))
	assertNoError(t, repo.ReplaceLimitedDevices(ctx, rule.ID, []int64{device.ID}))

	assertNoError(t, repo.DeleteRule(ctx, rule.ID))

	exempt, err := repo.IsLimitedDevice(ctx, rule.ID, device.ID)
	assertNoError(t, err)
	if exempt {
		t.Fatal("exceptions should cascade with the rule")
	}
}

// ============================================================================
// Switch ports and memberships
// ============================================================================

func TestReplacePortVlansRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	mustSegment(t, repo, 20, "Guest")

	sw := &domain.Switch{Name: "access-1"}
	assertNoError(t, repo.CreateSwitch(ctx, sw))
	port := &domain.SwitchPort{SwitchID: sw.ID, PortNumber: 4, PVID: vlanRef(10)}
	assertNoError(t, repo.CreateSwitchPort(ctx, port))

	set := []domain.PortVlanMembership{
		{VlanID: 10, TagType: domain.TagUntagged},
		{VlanID: 20, TagType: domain.TagTagged},
	}
	assertNoError(t, repo.ReplacePortVlans(ctx, port.ID, set))

	got, err := repo.GetPortVlans(ctx, port.ID)
	assertNoError(t, err)
	if len(got) != 2 || got[0].VlanID != 10 || got[0].TagType != domain.TagUntagged ||
		got[1].VlanID != 20 || got[1].TagType != domain.TagTagged {
		t.Fatalf("readback mismatch: %+v", got)
	}

	// Empty replacement clears all memberships
	assertNoError(t, repo.ReplacePortVlans(ctx, port.ID, nil))
	got, err = repo.GetPortVlans(ctx, port.ID)
	assertNoError(t, err)
	if len(got) != 0 {
		t.Fatalf("expected cleared memberships, got %+v", got)
	}
}

func TestSwitchPortNumberUniquePerSwitch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sw := &domain.Switch{Name: "access-1"}
	assertNoError(t, repo.CreateSwitch(ctx, sw))

	assertNoError(t, repo.CreateSwitchPort(ctx, &domain.SwitchPort{SwitchID: sw.ID, PortNumber: 1}))
	err := repo.CreateSwitchPort(ctx, &domain.SwitchPort{SwitchID: sw.ID, PortNumber: 1})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Same number on another switch is fine
	other := &domain.Switch{Name: "access-2"}
	assertNoError(t, repo.CreateSwitch(ctx, other))
	assertNoError(t, repo.CreateSwitchPort(ctx, &domain.SwitchPort{SwitchID: other.ID, PortNumber: 1}))
}

func TestDeleteSwitchCascadesPorts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 10, "Mgmt")
	sw := &domain.Switch{Name: "access-1"}
	assertNoError(t, repo.CreateSwitch(ctx, sw))
	port := &domain.SwitchPort{SwitchID: sw.ID, PortNumber: 1}
	assertNoError(t, repo.CreateSwitchPort(ctx, port))
	assertNoError(t, repo.ReplacePortVlans(ctx, port.ID, []domain.PortVlanMembership{{VlanID: 10, TagType: domain.TagTagged}}))

	assertNoError(t, repo.DeleteSwitch(ctx, sw.ID))

	if _, err := repo.GetSwitchPort(ctx, port.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected port cascade, got %v", err)
	}
}

// ============================================================================
// Reservations
// ============================================================================

func TestReservationLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustSegment(t, repo, 30, "IoT")

	res := &domain.Reservation{VlanID: 30, DeviceType: "camera", GroupRange: "192.168.30.100-150"}
	assertNoError(t, repo.CreateReservation(ctx, res))

	res.DeviceType = "sensor"
	assertNoError(t, repo.UpdateReservation(ctx, res))

	list, err := repo.ListReservations(ctx, 30)
	assertNoError(t, err)
	if len(list) != 1 || list[0].DeviceType != "sensor" {
		t.Fatalf("unexpected reservations: %+v", list)
	}

	assertNoError(t, repo.DeleteReservation(ctx, res.ID))
	if err := repo.DeleteReservation(ctx, res.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

// ============================================================================
// Audit log
// ============================================================================

func TestAuditEntryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := &domain.Account{Username: "admin", PasswordHash: "x", Role: domain.RoleAdmin}
	assertNoError(t, repo.CreateAccount(ctx, account))

	first := &domain.AuditEntry{
		ActorID:    &account.ID,
		Action:     domain.ActionCreate,
		EntityType: "segments",
		Details:    map[string]any{"vlan_id": float64(10), "name": "Mgmt"},
		Origin:     "10.0.0.1",
	}
	assertNoError(t, repo.InsertAuditEntry(ctx, first))

	second := &domain.AuditEntry{Action: domain.ActionLoginFailed, Origin: "10.0.0.2"}
	assertNoError(t, repo.InsertAuditEntry(ctx, second))

	entries, err := repo.ListAuditEntries(ctx, 10)
	assertNoError(t, err)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].Action != domain.ActionLoginFailed {
		t.Fatalf("expected newest entry first, got %s", entries[0].Action)
	}
	if entries[0].ActorID != nil {
		t.Fatal("anonymous entry should have nil actor")
	}

	got := entries[1]
	if got.ActorID == nil || *got.ActorID != account.ID {
		t.Fatalf("unexpected actor: %+v", got.ActorID)
	}
	if got.Details["name"] != "Mgmt" {
		t.Fatalf("unexpected details: %+v", got.Details)
	}
}

func TestAuditActorClearedOnAccountDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := &domain.Account{Username: "temp", PasswordHash: "x", Role: domain.RoleAdmin}
	assertNoError(t, repo.CreateAccount(ctx, account))

	entry := &domain.AuditEntry{ActorID: &account.ID, Action: domain.ActionDelete, EntityType: "devices"}
	assertNoError(t, repo.InsertAuditEntry(ctx, entry))

	assertNoError(t, repo.DeleteAccount(ctx, account.ID))

	entries, err := repo.ListAuditEntries(ctx, 10)
	assertNoError(t, err)
	if len(entries) != 1 {
		t.Fatalf("audit row should survive account deletion, got %d", len(entries))
	}
	if entries[0].ActorID != nil {
		t.Fatal("actor reference should be cleared")
	}
}
