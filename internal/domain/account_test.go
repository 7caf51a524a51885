package domain

import (
	"testing"
	"time"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple", input: "admin", want: "admin"},
		{name: "trimmed", input: "  operator-1  ", want: "operator-1"},
		{name: "underscore and hyphen", input: "net_ops-2", want: "net_ops-2"},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: string(make([]byte, 51)), wantErr: true},
		{name: "illegal characters", input: "bad user!", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUsername(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "three classes", input: "Str0ngpass"},
		{name: "all four classes", input: "Str0ng!pass"},
		{name: "too short", input: "Ab1!", wantErr: true},
		{name: "only two classes", input: "alllowercase1", wantErr: true},
		{name: "lowercase only", input: "justletters", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	if _, err := ValidateRole("admin"); err != nil {
		t.Fatalf("admin should be valid: %v", err)
	}
	if _, err := ValidateRole("viewer"); err != nil {
		t.Fatalf("viewer should be valid: %v", err)
	}
	if _, err := ValidateRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestAccountLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        bool
	}{
		{name: "no lock", lockedUntil: nil, want: false},
		{name: "active lock", lockedUntil: &future, want: true},
		{name: "elapsed lock", lockedUntil: &past, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{LockedUntil: tt.lockedUntil}
			if got := a.Locked(now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
