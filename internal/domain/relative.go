package domain

import (
	"strconv"
	"time"
)

// FormatRelativeTime renders t relative to now for list displays:
// "just now", "12m ago", "5h ago", "3d ago", and a short date past a week.
func FormatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h ago"
	case d < 7*24*time.Hour:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d ago"
	default:
		return t.Format("Jan 2, 15:04")
	}
}
