package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, surface state, unread badge and clock.
type StatusBar struct {
	*tview.TextView
	profile      string
	state        string
	unread       int
	notifyUnread int
	flash        string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetState updates the surface state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetUnread updates the chat unread badge.
func (sb *StatusBar) SetUnread(n int) {
	sb.unread = n
	sb.render()
}

// SetNotifyUnread updates the notification unread badge.
func (sb *StatusBar) SetNotifyUnread(n int) {
	sb.notifyUnread = n
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	badge := ""
	if label := BadgeLabel(sb.unread); label != "" {
		badge = fmt.Sprintf(" [white:red] %s [-:-]", label)
	}
	notify := ""
	if label := BadgeLabel(sb.notifyUnread); label != "" {
		notify = fmt.Sprintf(" [black:orange] !%s [-:-]", label)
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s%s%s | %s", sb.profile, sb.state, badge, notify, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(sb.flash))
	}

	_, _ = fmt.Fprint(sb, line)
}
