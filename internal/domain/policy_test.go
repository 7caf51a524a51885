package domain

import "testing"

func vlanRef(id int) *int { return &id }

func TestResolveAccess(t *testing.T) {
	mgmt := vlanRef(10)
	guest := vlanRef(20)

	limited := &CommunicationRule{ID: 1, SourceVlanID: 10, TargetVlanID: 20, AccessType: AccessLimited}
	full := &CommunicationRule{ID: 2, SourceVlanID: 10, TargetVlanID: 20, AccessType: AccessFull}
	blocked := &CommunicationRule{ID: 3, SourceVlanID: 10, TargetVlanID: 20, AccessType: AccessBlocked}

	tests := []struct {
		name   string
		source *Device
		target *Device
		rule   *CommunicationRule
		exempt bool
		want   AccessType
	}{
		{
			name:   "source unsegmented",
			source: &Device{}, target: &Device{VlanID: guest},
			want: AccessFull,
		},
		{
			name:   "target unsegmented",
			source: &Device{VlanID: mgmt}, target: &Device{},
			want: AccessFull,
		},
		{
			name:   "same segment ignores rule table",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: vlanRef(10)},
			rule: blocked,
			want: AccessFull,
		},
		{
			name:   "no rule is default deny",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: guest},
			want: AccessBlocked,
		},
		{
			name:   "full rule",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: guest},
			rule: full,
			want: AccessFull,
		},
		{
			name:   "blocked rule",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: guest},
			rule: blocked,
			want: AccessBlocked,
		},
		{
			name:   "limited rule without exception",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: guest},
			rule: limited,
			want: AccessLimited,
		},
		{
			name:   "limited rule with exception",
			source: &Device{VlanID: mgmt}, target: &Device{VlanID: guest},
			rule: limited, exempt: true,
			want: AccessFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAccess(tt.source, tt.target, tt.rule, tt.exempt)
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// Exceptions only apply to the exact directional rule; the reverse pair
// resolves independently.
func TestResolveAccessIsDirectional(t *testing.T) {
	m1 := &Device{ID: 1, VlanID: vlanRef(10)}
	g1 := &Device{ID: 2, VlanID: vlanRef(20)}

	rule := &CommunicationRule{ID: 1, SourceVlanID: 10, TargetVlanID: 20, AccessType: AccessLimited}

	if got := ResolveAccess(m1, g1, rule, false); got != AccessLimited {
		t.Fatalf("forward without exception: expected limited, got %s", got)
	}
	if got := ResolveAccess(m1, g1, rule, true); got != AccessFull {
		t.Fatalf("forward with exception: expected full, got %s", got)
	}

	// No rule exists for 20->10, so reverse traffic is blocked no matter
	// what the forward rule says.
	if got := ResolveAccess(g1, m1, nil, false); got != AccessBlocked {
		t.Fatalf("reverse without rule: expected blocked, got %s", got)
	}
}
