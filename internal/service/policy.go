package service

import (
	"context"

	"github.com/rs/zerolog"

	"netfence/internal/domain"
	"netfence/internal/repository"
)

// Actor identifies the authenticated principal behind a mutation, plus
// the request origin recorded into the audit trail.
type Actor struct {
	ID     int64
	Origin string
}

// SegmentInput is the payload for creating or updating a segment.
type SegmentInput struct {
	VlanID        int    `json:"vlan_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	WanAccess     bool   `json:"wan_access"`
	NetworkPrefix string `json:"network_prefix"`
}

// DeviceInput is the payload for creating or updating a device.
type DeviceInput struct {
	IP          string `json:"ip"`
	MAC         string `json:"mac"`
	VlanID      *int   `json:"vlan_id"`
	WanAccess   bool   `json:"wan_access"`
	Interface   string `json:"interface"`
	Ports       []int  `json:"ports"`
	Description string `json:"description"`
}

// RuleInput is the payload for committing a communication rule.
type RuleInput struct {
	SourceVlanID int    `json:"source_vlan_id"`
	TargetVlanID int    `json:"target_vlan_id"`
	AccessType   string `json:"access_type"`
}

// SwitchInput is the payload for creating or updating a switch.
type SwitchInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IPAddress   string `json:"ip_address"`
}

// PortInput is the payload for creating or updating a switch port.
type PortInput struct {
	PortNumber  int    `json:"port_number"`
	Description string `json:"description"`
	PVID        *int   `json:"pvid"`
}

// ReservationInput is the payload for creating or updating an address
// reservation.
type ReservationInput struct {
	VlanID     int    `json:"vlan_id"`
	DeviceType string `json:"device_type"`
	GroupRange string `json:"group_range"`
}

// PolicyService owns the inventory mutations: segments, devices,
// communication rules and their exceptions, switches and port
// memberships, and reservations. Every mutation validates first, then
// commits, then audits; the audit write never fails the mutation.
type PolicyService struct {
	store repository.Store
	audit *AuditRecorder
	log   zerolog.Logger
}

// NewPolicyService creates the policy service.
func NewPolicyService(store repository.Store, audit *AuditRecorder, log zerolog.Logger) *PolicyService {
	return &PolicyService{
		store: store,
		audit: audit,
		log:   log.With().Str("component", "policy").Logger(),
	}
}

// --- Segments ---

func (s *PolicyService) ListSegments(ctx context.Context) ([]domain.Segment, error) {
	segments, err := s.store.ListSegments(ctx)
	if err != nil {
		return nil, storage(err)
	}
	return segments, nil
}

func (s *PolicyService) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	segment, err := s.store.GetSegment(ctx, id)
	if err != nil {
		return nil, storage(err)
	}
	return segment, nil
}

func (s *PolicyService) CreateSegment(ctx context.Context, actor Actor, input SegmentInput) (*domain.Segment, error) {
	segment, err := segmentFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSegment(ctx, segment); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "vlans", &segment.ID,
		map[string]any{"vlan_id": segment.VlanID, "name": segment.Name}, actor.Origin)
	return segment, nil
}

func (s *PolicyService) UpdateSegment(ctx context.Context, actor Actor, id int64, input SegmentInput) (*domain.Segment, error) {
	segment, err := segmentFromInput(input)
	if err != nil {
		return nil, err
	}
	segment.ID = id
	if err := s.store.UpdateSegment(ctx, segment); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUpdate, "vlans", &id,
		map[string]any{"vlan_id": segment.VlanID, "name": segment.Name}, actor.Origin)
	return segment, nil
}

// DeleteSegment removes a segment. Devices in it become unsegmented,
// rules naming it disappear, and ports using it as PVID lose the PVID.
func (s *PolicyService) DeleteSegment(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteSegment(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "vlans", &id, nil, actor.Origin)
	return nil
}

func segmentFromInput(input SegmentInput) (*domain.Segment, error) {
	if err := domain.ValidateVlanID(input.VlanID); err != nil {
		return nil, err
	}
	name, err := domain.SanitizeText(input.Name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.Validation("name", "is required")
	}
	description, err := domain.SanitizeText(input.Description)
	if err != nil {
		return nil, err
	}
	prefix, err := domain.SanitizeText(input.NetworkPrefix)
	if err != nil {
		return nil, err
	}

	return &domain.Segment{
		VlanID:        input.VlanID,
		Name:          name,
		Description:   description,
		WanAccess:     input.WanAccess,
		NetworkPrefix: prefix,
	}, nil
}

// --- Devices ---

func (s *PolicyService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, storage(err)
	}
	return devices, nil
}

func (s *PolicyService) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	device, err := s.store.GetDevice(ctx, id)
	if err != nil {
		return nil, storage(err)
	}
	return device, nil
}

func (s *PolicyService) CreateDevice(ctx context.Context, actor Actor, input DeviceInput) (*domain.Device, error) {
	device, err := deviceFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateDevice(ctx, device); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "devices", &device.ID,
		map[string]any{"ip": device.IP, "mac": device.MAC}, actor.Origin)
	return device, nil
}

func (s *PolicyService) UpdateDevice(ctx context.Context, actor Actor, id int64, input DeviceInput) (*domain.Device, error) {
	device, err := deviceFromInput(input)
	if err != nil {
		return nil, err
	}
	device.ID = id
	if err := s.store.UpdateDevice(ctx, device); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUpdate, "devices", &id,
		map[string]any{"ip": device.IP, "mac": device.MAC}, actor.Origin)
	return device, nil
}

func (s *PolicyService) DeleteDevice(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteDevice(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "devices", &id, nil, actor.Origin)
	return nil
}

func deviceFromInput(input DeviceInput) (*domain.Device, error) {
	ip, err := domain.ValidateIP(input.IP)
	if err != nil {
		return nil, err
	}
	mac, err := domain.CanonicalMAC(input.MAC)
	if err != nil {
		return nil, err
	}
	if input.VlanID != nil {
		if err := domain.ValidateVlanID(*input.VlanID); err != nil {
			return nil, err
		}
	}
	kind, err := domain.ValidateInterface(input.Interface)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateDevicePorts(input.Ports); err != nil {
		return nil, err
	}
	description, err := domain.SanitizeText(input.Description)
	if err != nil {
		return nil, err
	}

	return &domain.Device{
		IP:          ip,
		MAC:         mac,
		VlanID:      input.VlanID,
		WanAccess:   input.WanAccess,
		Interface:   kind,
		Ports:       input.Ports,
		Description: description,
	}, nil
}

// --- Communication rules ---

func (s *PolicyService) ListRules(ctx context.Context) ([]domain.CommunicationRule, error) {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return nil, storage(err)
	}
	return rules, nil
}

// SetRule commits the access type for an ordered segment pair,
// overwriting any previous rule for the same pair. Self-pairs are
// rejected: intra-segment traffic is implicitly full.
func (s *PolicyService) SetRule(ctx context.Context, actor Actor, input RuleInput) (*domain.CommunicationRule, error) {
	if err := domain.ValidateVlanID(input.SourceVlanID); err != nil {
		return nil, domain.Validation("source_vlan_id", "must be between 1 and 4094")
	}
	if err := domain.ValidateVlanID(input.TargetVlanID); err != nil {
		return nil, domain.Validation("target_vlan_id", "must be between 1 and 4094")
	}
	if input.SourceVlanID == input.TargetVlanID {
		return nil, domain.Validation("target_vlan_id", "source and target must differ")
	}
	accessType, err := domain.ValidateAccessType(input.AccessType)
	if err != nil {
		return nil, err
	}

	rule := &domain.CommunicationRule{
		SourceVlanID: input.SourceVlanID,
		TargetVlanID: input.TargetVlanID,
		AccessType:   accessType,
	}
	if err := s.store.UpsertRule(ctx, rule); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionSetVlanComm, "vlan_communication", &rule.ID,
		map[string]any{
			"source_vlan_id": rule.SourceVlanID,
			"target_vlan_id": rule.TargetVlanID,
			"access_type":    string(rule.AccessType),
		}, actor.Origin)
	return rule, nil
}

func (s *PolicyService) DeleteRule(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "vlan_communication", &id, nil, actor.Origin)
	return nil
}

func (s *PolicyService) ListLimitedDevices(ctx context.Context, ruleID int64) ([]domain.LimitedDeviceException, error) {
	exceptions, err := s.store.ListLimitedDevices(ctx, ruleID)
	if err != nil {
		return nil, storage(err)
	}
	return exceptions, nil
}

// SetLimitedDevices replaces the full exception set for a rule. An
// empty set clears all exceptions.
func (s *PolicyService) SetLimitedDevices(ctx context.Context, actor Actor, ruleID int64, deviceIDs []int64) error {
	seen := make(map[int64]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		if seen[id] {
			return domain.Validation("device_ids", "duplicate device id")
		}
		seen[id] = true
	}

	if err := s.store.ReplaceLimitedDevices(ctx, ruleID, deviceIDs); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionSetLimitedDevices, "vlan_communication", &ruleID,
		map[string]any{"device_count": len(deviceIDs)}, actor.Origin)
	return nil
}

// --- Switches and ports ---

func (s *PolicyService) ListSwitches(ctx context.Context) ([]domain.Switch, error) {
	switches, err := s.store.ListSwitches(ctx)
	if err != nil {
		return nil, storage(err)
	}
	return switches, nil
}

func (s *PolicyService) CreateSwitch(ctx context.Context, actor Actor, input SwitchInput) (*domain.Switch, error) {
	sw, err := switchFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSwitch(ctx, sw); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "switches", &sw.ID,
		map[string]any{"name": sw.Name}, actor.Origin)
	return sw, nil
}

func (s *PolicyService) UpdateSwitch(ctx context.Context, actor Actor, id int64, input SwitchInput) (*domain.Switch, error) {
	sw, err := switchFromInput(input)
	if err != nil {
		return nil, err
	}
	sw.ID = id
	if err := s.store.UpdateSwitch(ctx, sw); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUpdate, "switches", &id,
		map[string]any{"name": sw.Name}, actor.Origin)
	return sw, nil
}

func (s *PolicyService) DeleteSwitch(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteSwitch(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "switches", &id, nil, actor.Origin)
	return nil
}

func switchFromInput(input SwitchInput) (*domain.Switch, error) {
	name, err := domain.SanitizeText(input.Name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.Validation("name", "is required")
	}
	description, err := domain.SanitizeText(input.Description)
	if err != nil {
		return nil, err
	}
	ip := input.IPAddress
	if ip != "" {
		ip, err = domain.ValidateIP(ip)
		if err != nil {
			return nil, err
		}
	}

	return &domain.Switch{Name: name, Description: description, IPAddress: ip}, nil
}

func (s *PolicyService) ListSwitchPorts(ctx context.Context, switchID int64) ([]domain.SwitchPort, error) {
	ports, err := s.store.ListSwitchPorts(ctx, switchID)
	if err != nil {
		return nil, storage(err)
	}
	return ports, nil
}

func (s *PolicyService) CreateSwitchPort(ctx context.Context, actor Actor, switchID int64, input PortInput) (*domain.SwitchPort, error) {
	port, err := portFromInput(input)
	if err != nil {
		return nil, err
	}
	port.SwitchID = switchID
	if err := s.store.CreateSwitchPort(ctx, port); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "switch_ports", &port.ID,
		map[string]any{"switch_id": switchID, "port_number": port.PortNumber}, actor.Origin)
	return port, nil
}

func (s *PolicyService) UpdateSwitchPort(ctx context.Context, actor Actor, id int64, input PortInput) (*domain.SwitchPort, error) {
	existing, err := s.store.GetSwitchPort(ctx, id)
	if err != nil {
		return nil, storage(err)
	}

	port, err := portFromInput(input)
	if err != nil {
		return nil, err
	}
	port.ID = id
	port.SwitchID = existing.SwitchID
	if err := s.store.UpdateSwitchPort(ctx, port); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUpdate, "switch_ports", &id,
		map[string]any{"port_number": port.PortNumber}, actor.Origin)
	return port, nil
}

func (s *PolicyService) DeleteSwitchPort(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteSwitchPort(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "switch_ports", &id, nil, actor.Origin)
	return nil
}

func portFromInput(input PortInput) (*domain.SwitchPort, error) {
	if err := domain.ValidatePortNumber(input.PortNumber); err != nil {
		return nil, err
	}
	if input.PVID != nil {
		if err := domain.ValidateVlanID(*input.PVID); err != nil {
			return nil, domain.Validation("pvid", "must be between 1 and 4094")
		}
	}
	description, err := domain.SanitizeText(input.Description)
	if err != nil {
		return nil, err
	}

	return &domain.SwitchPort{
		PortNumber:  input.PortNumber,
		Description: description,
		PVID:        input.PVID,
	}, nil
}

// SetPortVlans replaces a port's full membership set. Segments not in
// the set fall back to not_member.
func (s *PolicyService) SetPortVlans(ctx context.Context, actor Actor, portID int64, memberships []domain.PortVlanMembership) error {
	if err := domain.ValidateMemberships(memberships); err != nil {
		return err
	}

	if err := s.store.ReplacePortVlans(ctx, portID, memberships); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionSetPortVlans, "switch_ports", &portID,
		map[string]any{"vlan_count": len(memberships)}, actor.Origin)
	return nil
}

func (s *PolicyService) GetPortVlans(ctx context.Context, portID int64) ([]domain.PortVlanMembership, error) {
	memberships, err := s.store.GetPortVlans(ctx, portID)
	if err != nil {
		return nil, storage(err)
	}
	return memberships, nil
}

// --- Reservations ---

func (s *PolicyService) ListReservations(ctx context.Context, vlanID int) ([]domain.Reservation, error) {
	reservations, err := s.store.ListReservations(ctx, vlanID)
	if err != nil {
		return nil, storage(err)
	}
	return reservations, nil
}

func (s *PolicyService) CreateReservation(ctx context.Context, actor Actor, input ReservationInput) (*domain.Reservation, error) {
	reservation, err := reservationFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateReservation(ctx, reservation); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionCreate, "reservations", &reservation.ID,
		map[string]any{"vlan_id": reservation.VlanID, "device_type": reservation.DeviceType}, actor.Origin)
	return reservation, nil
}

func (s *PolicyService) UpdateReservation(ctx context.Context, actor Actor, id int64, input ReservationInput) (*domain.Reservation, error) {
	reservation, err := reservationFromInput(input)
	if err != nil {
		return nil, err
	}
	reservation.ID = id
	if err := s.store.UpdateReservation(ctx, reservation); err != nil {
		return nil, storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUpdate, "reservations", &id,
		map[string]any{"vlan_id": reservation.VlanID}, actor.Origin)
	return reservation, nil
}

func (s *PolicyService) DeleteReservation(ctx context.Context, actor Actor, id int64) error {
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return storage(err)
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDelete, "reservations", &id, nil, actor.Origin)
	return nil
}

func reservationFromInput(input ReservationInput) (*domain.Reservation, error) {
	if err := domain.ValidateVlanID(input.VlanID); err != nil {
		return nil, err
	}
	deviceType, err := domain.SanitizeText(input.DeviceType)
	if err != nil {
		return nil, err
	}
	if deviceType == "" {
		return nil, domain.Validation("device_type", "is required")
	}
	groupRange, err := domain.SanitizeText(input.GroupRange)
	if err != nil {
		return nil, err
	}
	if groupRange == "" {
		return nil, domain.Validation("group_range", "is required")
	}

	return &domain.Reservation{
		VlanID:     input.VlanID,
		DeviceType: deviceType,
		GroupRange: groupRange,
	}, nil
}
