package domain

import "testing"

func TestValidatePortNumber(t *testing.T) {
	for _, n := range []int{1, 48, 128} {
		if err := ValidatePortNumber(n); err != nil {
			t.Fatalf("port %d should be valid: %v", n, err)
		}
	}
	for _, n := range []int{0, 129, -5} {
		if err := ValidatePortNumber(n); err == nil {
			t.Fatalf("port %d should be rejected", n)
		}
	}
}

func TestValidateTagType(t *testing.T) {
	for _, tag := range []string{"tagged", "untagged", "not_member"} {
		if _, err := ValidateTagType(tag); err != nil {
			t.Fatalf("tag %q should be valid: %v", tag, err)
		}
	}
	if _, err := ValidateTagType("native"); err == nil {
		t.Fatal("expected error for unknown tag type")
	}
}

func TestValidateMemberships(t *testing.T) {
	tests := []struct {
		name    string
		input   []PortVlanMembership
		wantErr bool
	}{
		{name: "empty set", input: nil},
		{
			name: "mixed tags",
			input: []PortVlanMembership{
				{VlanID: 10, TagType: TagUntagged},
				{VlanID: 20, TagType: TagTagged},
			},
		},
		{
			name: "duplicate segment",
			input: []PortVlanMembership{
				{VlanID: 10, TagType: TagUntagged},
				{VlanID: 10, TagType: TagTagged},
			},
			wantErr: true,
		},
		{
			name:    "out of range vlan",
			input:   []PortVlanMembership{{VlanID: 5000, TagType: TagTagged}},
			wantErr: true,
		},
		{
			name:    "bad tag",
			input:   []PortVlanMembership{{VlanID: 10, TagType: "trunk"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMemberships(tt.input)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
