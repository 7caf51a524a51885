package domain

import (
	"net"
	"regexp"
	"strings"
	"time"
)

// InterfaceKind distinguishes wired and wireless devices.
type InterfaceKind string

const (
	InterfaceEth  InterfaceKind = "ETH"
	InterfaceWifi InterfaceKind = "Wi-Fi"
)

// MaxDevicePorts bounds the numbered port list carried per device.
const MaxDevicePorts = 10

// Device is a host in the inventory. VlanID references its segment by
// VLAN tag and may be absent for unsegmented devices. The (IP, VlanID)
// pair is unique: the same address may recur across segments but not
// within one.
type Device struct {
	ID          int64         `json:"id"`
	IP          string        `json:"ip"`
	MAC         string        `json:"mac"`
	VlanID      *int          `json:"vlan_id,omitempty"`
	WanAccess   bool          `json:"wan_access"`
	Interface   InterfaceKind `json:"interface"`
	Ports       []int         `json:"ports"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Joined from the segment for listings; not persisted on the device.
	VlanName      string `json:"vlan_name,omitempty"`
	NetworkPrefix string `json:"network_prefix,omitempty"`
}

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// CanonicalMAC validates a hardware address and returns its canonical
// form: six colon-separated hex octet pairs, uppercased.
func CanonicalMAC(mac string) (string, error) {
	mac = strings.TrimSpace(mac)
	if !macPattern.MatchString(mac) {
		return "", Validation("mac", "must match XX:XX:XX:XX:XX:XX")
	}
	return strings.ToUpper(mac), nil
}

// ValidateIP checks that addr parses as an IPv4 or IPv6 address and
// returns the trimmed value.
func ValidateIP(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if net.ParseIP(addr) == nil {
		return "", Validation("ip", "not a valid IP address")
	}
	return addr, nil
}

// ValidateInterface checks the interface kind.
func ValidateInterface(kind string) (InterfaceKind, error) {
	switch InterfaceKind(kind) {
	case InterfaceEth, InterfaceWifi:
		return InterfaceKind(kind), nil
	default:
		return "", Validation("interface", "must be ETH or Wi-Fi")
	}
}

// ValidateDevicePorts bounds the port list to ten entries in [1,65535].
func ValidateDevicePorts(ports []int) error {
	if len(ports) > MaxDevicePorts {
		return Validation("ports", "at most 10 ports")
	}
	for _, p := range ports {
		if p < 1 || p > 65535 {
			return Validation("ports", "port numbers must be between 1 and 65535")
		}
	}
	return nil
}
