package store

import (
	"testing"

	"bellatavola/internal/delivery/models"
)

func TestValidOrderTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		want   bool
	}{
		{"confirm", models.StatusPending, true},
		{"confirm", models.StatusConfirmed, false},
		{"ready", models.StatusConfirmed, true},
		{"ready", models.StatusPending, false},
		{"deliver", models.StatusReady, true},
		{"deliver", models.StatusConfirmed, false},
		{"cancel", models.StatusPending, true},
		{"cancel", models.StatusConfirmed, true},
		{"cancel", models.StatusDelivered, false},
		{"unknown", models.StatusPending, false},
	}
	for _, tt := range cases {
		if got := ValidOrderTransition(tt.action, tt.from); got != tt.want {
			t.Fatalf("ValidOrderTransition(%q, %q) = %v, want %v", tt.action, tt.from, got, tt.want)
		}
	}
}

func TestValidItemTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		want   bool
	}{
		{"start", models.ItemPending, true},
		{"start", models.ItemPreparing, false},
		{"ready", models.ItemPreparing, true},
		{"ready", models.ItemPending, false},
	}
	for _, tt := range cases {
		if got := ValidItemTransition(tt.action, tt.from); got != tt.want {
			t.Fatalf("ValidItemTransition(%q, %q) = %v, want %v", tt.action, tt.from, got, tt.want)
		}
	}
}

func TestStatusForAction(t *testing.T) {
	if status, ok := OrderStatusForAction("confirm"); !ok || status != models.StatusConfirmed {
		t.Fatalf("confirm maps to %q", status)
	}
	if _, ok := OrderStatusForAction("approve"); ok {
		t.Fatal("approve is not an order action")
	}
	if status, ok := ItemStatusForAction("start"); !ok || status != models.ItemPreparing {
		t.Fatalf("start maps to %q", status)
	}
}
