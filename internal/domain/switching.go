package domain

import "time"

// TagType is a port's relationship to a segment: carried tagged
// (trunked), untagged (native), or explicitly not a member. A missing
// membership row means not_member.
type TagType string

const (
	TagTagged    TagType = "tagged"
	TagUntagged  TagType = "untagged"
	TagNotMember TagType = "not_member"
)

// Physical switch port numbers top out at 128 on the gear this tracks.
const (
	MinPortNumber = 1
	MaxPortNumber = 128
)

// Switch is a managed switch in the inventory.
type Switch struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SwitchPort is one numbered port on a switch. PVID is the port's
// native/untagged segment, referenced by VLAN tag, and may be absent.
type SwitchPort struct {
	ID          int64     `json:"id"`
	SwitchID    int64     `json:"switch_id"`
	PortNumber  int       `json:"port_number"`
	Description string    `json:"description,omitempty"`
	PVID        *int      `json:"pvid,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Memberships joined for port listings.
	Vlans []PortVlanMembership `json:"vlans,omitempty"`
}

// PortVlanMembership maps a (port, segment) pair to a tag type.
type PortVlanMembership struct {
	VlanID  int     `json:"vlan_id"`
	TagType TagType `json:"tag_type"`
}

// ValidatePortNumber checks the physical port range.
func ValidatePortNumber(n int) error {
	if n < MinPortNumber || n > MaxPortNumber {
		return Validation("port_number", "must be between 1 and 128")
	}
	return nil
}

// ValidateTagType checks a membership's tag value.
func ValidateTagType(tagType string) (TagType, error) {
	switch TagType(tagType) {
	case TagTagged, TagUntagged, TagNotMember:
		return TagType(tagType), nil
	default:
		return "", Validation("tag_type", "must be tagged, untagged, or not_member")
	}
}

// ValidateMemberships validates a full membership replacement set. It
// rejects out-of-range tags and duplicate segments; it deliberately does
// not require the PVID segment to appear untagged in the set.
func ValidateMemberships(memberships []PortVlanMembership) error {
	seen := make(map[int]bool, len(memberships))
	for _, m := range memberships {
		if err := ValidateVlanID(m.VlanID); err != nil {
			return err
		}
		if _, err := ValidateTagType(string(m.TagType)); err != nil {
			return err
		}
		if seen[m.VlanID] {
			return Validation("vlans", "duplicate vlan_id in membership set")
		}
		seen[m.VlanID] = true
	}
	return nil
}
