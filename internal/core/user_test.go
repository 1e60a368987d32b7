package core

import (
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	good := User{
		Name:  "Mario Rossi",
		Email: "mario@example.com",
		Chart: DefaultChart(),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*User)
	}{
		{"short name", func(u *User) { u.Name = "Mo" }},
		{"name with invalid characters", func(u *User) { u.Name = "Mario <script>" }},
		{"bad email", func(u *User) { u.Email = "not-an-email" }},
		{"empty email", func(u *User) { u.Email = "" }},
		{"email with display name", func(u *User) { u.Email = "Mario Rossi <mario@example.com>" }},
		{"email with undotted domain", func(u *User) { u.Email = "mario@localhost" }},
		{"degenerate chart", func(u *User) { u.Chart.Accounts = nil }},
	}
	for _, tc := range cases {
		u := good
		tc.mutate(&u)
		if err := u.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestPasswordChangeReset(t *testing.T) {
	var pc PasswordChange
	if pc.HasPendingReset() {
		t.Fatal("fresh state should have no pending reset")
	}

	expires := time.Now().Add(10 * time.Minute)
	pc.ResetTokenDigest = "digest"
	pc.ResetTokenExpiresAt = &expires
	if !pc.HasPendingReset() {
		t.Fatal("expected a pending reset")
	}

	pc.ClearReset()
	if pc.HasPendingReset() || pc.ResetTokenDigest != "" || pc.ResetTokenExpiresAt != nil {
		t.Fatal("ClearReset should drop all token state")
	}
}
