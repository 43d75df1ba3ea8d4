package store

import (
	"sort"

	"bellatavola/internal/reservation/hours"
)

// seatingMinutes is how long a table is considered occupied around a
// reservation; two reservations closer than this conflict.
const seatingMinutes = 120

const slotStep = 30

// Conflicts reports whether two HH:MM times on the same service night are
// too close for the same table to serve both.
func Conflicts(a, b string) bool {
	ma, okA := hours.ParseTime(a)
	mb, okB := hours.ParseTime(b)
	if !okA || !okB {
		return false
	}
	diff := hours.ServiceMinutes(ma) - hours.ServiceMinutes(mb)
	if diff < 0 {
		diff = -diff
	}
	return diff < seatingMinutes
}

// Slots lists every bookable HH:MM slot of a service night in order,
// from opening through the late window.
func Slots() []string {
	var slots []string
	for minutes := 19 * 60; minutes <= 23*60+30; minutes += slotStep {
		slots = append(slots, formatTime(minutes))
	}
	for minutes := 0; minutes <= 2*60+30; minutes += slotStep {
		slots = append(slots, formatTime(minutes))
	}
	return slots
}

// NearestSlots orders all slots by distance from the requested time,
// excluding the requested slot itself. Used to build alternate-time
// suggestions when no table is free.
func NearestSlots(requested string) []string {
	reqMinutes, ok := hours.ParseTime(requested)
	if !ok {
		return nil
	}
	reqService := hours.ServiceMinutes(reqMinutes)

	slots := Slots()
	type candidate struct {
		slot string
		dist int
	}
	var candidates []candidate
	for _, slot := range slots {
		minutes, _ := hours.ParseTime(slot)
		if minutes == reqMinutes {
			continue
		}
		dist := hours.ServiceMinutes(minutes) - reqService
		if dist < 0 {
			dist = -dist
		}
		candidates = append(candidates, candidate{slot: slot, dist: dist})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	ordered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c.slot)
	}
	return ordered
}

func formatTime(minutes int) string {
	hour := minutes / 60
	minute := minutes % 60
	return string([]byte{
		byte('0' + hour/10), byte('0' + hour%10),
		':',
		byte('0' + minute/10), byte('0' + minute%10),
	})
}
