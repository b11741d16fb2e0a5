package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/timefmt"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	convs      []store.Conversation
	selectedFn func() (int, int)
}

// NewConversationList creates the conversation list table.
func NewConversationList() *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Conversations ")

	cl := &ConversationList{Table: table}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the table with new data.
func (cl *ConversationList) Update(convs []store.Conversation) {
	row, _ := cl.selectedFn()
	cl.convs = convs
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" With").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" When").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	now := time.Now()
	for i, c := range convs {
		r := i + 1
		name := c.OtherUserName
		if name == "" {
			name = fmt.Sprintf("user %d", c.OtherUserID)
		}
		if badge := BadgeLabel(c.UnreadCount); badge != "" {
			name = fmt.Sprintf("%s [::b](%s)[-:-:-]", name, badge)
		}

		when := ""
		if c.LastMessageAt > 0 {
			when = timefmt.Relative(time.UnixMilli(c.LastMessageAt), now)
		}

		cl.SetCell(r, 0, tview.NewTableCell(" "+name).SetMaxWidth(30).SetExpansion(1))
		cl.SetCell(r, 1, tview.NewTableCell(" "+sanitizeForTerminal(c.LastMessage)).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(r, 2, tview.NewTableCell(" "+when).SetMaxWidth(14))
	}

	if row > len(convs) {
		row = len(convs)
	}
	if row < 1 {
		row = 1
	}
	if len(convs) > 0 {
		cl.Select(row, 0)
	}
}

// SelectedConversation returns the id of the selected conversation,
// zero when nothing is selected.
func (cl *ConversationList) SelectedConversation() int64 {
	row, _ := cl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.convs) {
		return cl.convs[idx].ID
	}
	return 0
}
