// Package timefmt renders message timestamps the way the SkillSwap web
// client does: coarse relative buckets that degrade to absolute dates.
package timefmt

import (
	"fmt"
	"time"
)

// Relative formats ts against now. Anything under a minute old, and
// any timestamp in the future (clock skew between client and server),
// renders as "Just now". Weeks run up to 30 days before the absolute
// date takes over.
func Relative(ts, now time.Time) string {
	diff := now.Sub(ts)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(diff.Hours()/(24*7)))
	}
	if ts.Year() == now.Year() {
		return ts.Format("Jan 2")
	}
	return ts.Format("Jan 2, 2006")
}

// Clock formats a timestamp as a short wall-clock time for the
// message thread gutter.
func Clock(ts time.Time) string {
	return ts.Format("15:04")
}
