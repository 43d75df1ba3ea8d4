package store

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"approve", "pending", true},
		{"approve", "approved", false},
		{"approve", "cancelled", false},
		{"reject", "pending", true},
		{"reject", "approved", false},
		{"cancel", "pending", true},
		{"cancel", "approved", true},
		{"cancel", "rejected", false},
		{"cancel", "cancelled", false},
		{"unknown", "pending", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestStatusForAction(t *testing.T) {
	for action, want := range map[string]string{
		"approve": "approved",
		"reject":  "rejected",
		"cancel":  "cancelled",
	} {
		got, ok := StatusForAction(action)
		if !ok || got != want {
			t.Fatalf("StatusForAction(%q) = %q, %v", action, got, ok)
		}
	}
	if _, ok := StatusForAction("complete"); ok {
		t.Fatal("unexpected action accepted")
	}
}
