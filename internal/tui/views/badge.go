package views

import "strconv"

// BadgeLabel renders an unread count the way the web widget does:
// hidden at zero, numeric up to 99, capped at "99+" above that.
func BadgeLabel(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	default:
		return strconv.Itoa(n)
	}
}
