package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/timefmt"
	"github.com/skillswap/swapchat/internal/tui/ui"
)

// MessageThread renders one conversation's history, oldest first.
type MessageThread struct {
	*tview.TextView
	theme *ui.Theme
	title string
}

// NewMessageThread creates the thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)

	return &MessageThread{TextView: tv, theme: theme}
}

// SetPeer updates the title with the peer's name.
func (mt *MessageThread) SetPeer(name string) {
	mt.title = name
	mt.SetTitle(fmt.Sprintf(" %s ", name))
}

// Update rerenders the thread. peerID identifies the other side of
// the conversation; every non-system message from anyone else renders
// as our own. System messages get their own color regardless of sender.
func (mt *MessageThread) Update(msgs []store.Message, peerID int64) {
	mt.Clear()

	for _, m := range msgs {
		clock := timefmt.Clock(time.UnixMilli(m.CreatedAt))
		body := tview.Escape(sanitizeForTerminal(m.Body))

		switch {
		case m.MessageType == "system":
			fmt.Fprintf(mt, "[%s]%s  ** %s **[-]\n", mt.theme.SystemMsgColor.Name(), clock, body)
		case m.SenderID != peerID:
			fmt.Fprintf(mt, "[%s]%s  you: %s[-]\n", mt.theme.OwnMsgColor.Name(), clock, body)
		default:
			name := m.SenderName
			if name == "" {
				name = fmt.Sprintf("user %d", m.SenderID)
			}
			fmt.Fprintf(mt, "[%s]%s  %s: %s[-]\n", mt.theme.PeerMsgColor.Name(), clock, tview.Escape(name), body)
		}
	}
	mt.ScrollToEnd()
}
