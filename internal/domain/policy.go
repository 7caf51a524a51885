package domain

import "time"

// AccessType is both the stored value of a communication rule and the
// verdict produced by resolving traffic between two devices.
type AccessType string

const (
	AccessFull    AccessType = "full"
	AccessLimited AccessType = "limited"
	AccessBlocked AccessType = "blocked"
)

// CommunicationRule is the directional policy for traffic from one
// segment to another, keyed by the ordered (source, target) VLAN pair.
// A->B and B->A are independent rows; self-pairs are never stored
// because intra-segment traffic is implicitly allowed.
type CommunicationRule struct {
	ID           int64      `json:"id"`
	SourceVlanID int        `json:"source_vlan_id"`
	TargetVlanID int        `json:"target_vlan_id"`
	AccessType   AccessType `json:"access_type"`
	CreatedAt    time.Time  `json:"created_at"`
}

// LimitedDeviceException exempts a device from a "limited" rule: the
// device is treated as having full access against that rule's target.
type LimitedDeviceException struct {
	ID        int64     `json:"id"`
	RuleID    int64     `json:"rule_id"`
	DeviceID  int64     `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateAccessType checks a rule's stored access value.
func ValidateAccessType(accessType string) (AccessType, error) {
	switch AccessType(accessType) {
	case AccessFull, AccessLimited, AccessBlocked:
		return AccessType(accessType), nil
	default:
		return "", Validation("access_type", "must be full, limited, or blocked")
	}
}

// ResolveAccess is the pure traffic decision. rule is the committed rule
// for the ordered (source segment, target segment) pair, or nil when no
// such rule exists; sourceExempt reports whether the source device holds
// a limited-device exception on that exact rule.
//
// Unsegmented or same-segment traffic is always Full. Absence of a rule
// is default-deny. A limited rule promotes exempted source devices to
// Full and demotes everything else to Limited.
func ResolveAccess(source, target *Device, rule *CommunicationRule, sourceExempt bool) AccessType {
	if source.VlanID == nil || target.VlanID == nil {
		return AccessFull
	}
	if *source.VlanID == *target.VlanID {
		return AccessFull
	}
	if rule == nil {
		return AccessBlocked
	}

	switch rule.AccessType {
	case AccessFull, AccessBlocked:
		return rule.AccessType
	case AccessLimited:
		if sourceExempt {
			return AccessFull
		}
		return AccessLimited
	default:
		return AccessBlocked
	}
}
