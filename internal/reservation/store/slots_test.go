package store

import "testing"

func TestConflicts(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"20:00", "20:00", true},
		{"20:00", "21:30", true},
		{"20:00", "22:00", false},
		{"23:30", "00:30", true},  // across midnight, 60 minutes apart
		{"23:00", "01:00", false}, // across midnight, 120 minutes apart
		{"19:00", "02:30", false},
	}
	for _, tt := range cases {
		if got := Conflicts(tt.a, tt.b); got != tt.want {
			t.Fatalf("Conflicts(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSlotsCoverBothWindows(t *testing.T) {
	slots := Slots()
	if slots[0] != "19:00" {
		t.Fatalf("first slot = %q", slots[0])
	}
	if slots[len(slots)-1] != "02:30" {
		t.Fatalf("last slot = %q", slots[len(slots)-1])
	}
	seen := map[string]bool{}
	for _, slot := range slots {
		if seen[slot] {
			t.Fatalf("duplicate slot %q", slot)
		}
		seen[slot] = true
	}
	if !seen["23:30"] || !seen["00:00"] {
		t.Fatal("slots must bridge midnight")
	}
}

func TestNearestSlots(t *testing.T) {
	ordered := NearestSlots("20:00")
	if len(ordered) == 0 {
		t.Fatal("no suggestions")
	}
	if ordered[0] != "19:30" && ordered[0] != "20:30" {
		t.Fatalf("nearest slot to 20:00 = %q", ordered[0])
	}
	for _, slot := range ordered {
		if slot == "20:00" {
			t.Fatal("requested slot must be excluded")
		}
	}
	if NearestSlots("25:00") != nil {
		t.Fatal("invalid time must yield no suggestions")
	}
}
