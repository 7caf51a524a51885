package domain

import (
	"strings"
	"time"
)

// VLAN tag numbers are 12-bit with 0 and 4095 reserved.
const (
	MinVlanID = 1
	MaxVlanID = 4094
)

// Segment is a logical network partition (VLAN). The NetworkPrefix is
// presentation-only auto-fill text, not an enforced subnet boundary.
type Segment struct {
	ID            int64     `json:"id"`
	VlanID        int       `json:"vlan_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	WanAccess     bool      `json:"wan_access"`
	NetworkPrefix string    `json:"network_prefix"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Reservation is advisory metadata binding a device-type label and an
// address-group range to a segment. Nothing enforces it.
type Reservation struct {
	ID         int64     `json:"id"`
	VlanID     int       `json:"vlan_id"`
	DeviceType string    `json:"device_type"`
	GroupRange string    `json:"group_range"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidateVlanID checks the [1,4094] tag range.
func ValidateVlanID(id int) error {
	if id < MinVlanID || id > MaxVlanID {
		return Validation("vlan_id", "must be between 1 and 4094")
	}
	return nil
}

// SanitizeText trims free-text fields and caps their length.
func SanitizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) > 1000 {
		return "", Validation("text", "too long (max 1000 characters)")
	}
	return text, nil
}
