// Package hours validates reservation times against the venue's operating
// windows. The dining room opens at 19:00 and serves past midnight until
// 02:30, so a day has two disjoint windows in minutes since midnight.
package hours

const (
	eveningOpen  = 19 * 60 // 19:00
	eveningClose = 23*60 + 59
	lateOpen     = 0
	lateClose    = 2*60 + 30 // 02:30 inclusive
)

// ParseTime parses a strict HH:MM string into minutes since midnight.
// Anything that is not exactly five characters of zero-padded 24h time is
// rejected, including "24:00".
func ParseTime(value string) (int, bool) {
	if len(value) != 5 || value[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return 0, false
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// InOperatingWindow reports whether the HH:MM time falls inside an operating
// window. Invalid formats are rejected before any range check.
func InOperatingWindow(value string) bool {
	minutes, ok := ParseTime(value)
	if !ok {
		return false
	}
	if minutes >= eveningOpen && minutes <= eveningClose {
		return true
	}
	return minutes >= lateOpen && minutes <= lateClose
}

// ServiceMinutes maps a time to a monotonic scale for a single service
// night: the late window counts as a continuation of the evening, so
// 00:30 sorts after 23:30. Times outside both windows map unchanged.
func ServiceMinutes(minutes int) int {
	if minutes <= lateClose {
		return minutes + 24*60
	}
	return minutes
}
