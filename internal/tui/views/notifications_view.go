package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/timefmt"
	"github.com/skillswap/swapchat/internal/tui/ui"
)

// NotificationsView lists notifications newest first, with the latest
// active site announcement pinned above them.
type NotificationsView struct {
	*tview.Table
	theme        *ui.Theme
	notifs       []store.Notification
	announcement *rest.Announcement
	selectedFn   func() (int, int)
}

// NewNotificationsView creates the notifications table.
func NewNotificationsView(theme *ui.Theme) *NotificationsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Notifications ")

	nv := &NotificationsView{Table: table, theme: theme}
	nv.selectedFn = table.GetSelection
	return nv
}

// SetAnnouncement pins the latest active announcement, nil clears it.
func (nv *NotificationsView) SetAnnouncement(a *rest.Announcement) {
	nv.announcement = a
}

// SetUnread shows the unread count in the panel title.
func (nv *NotificationsView) SetUnread(n int) {
	if n > 0 {
		nv.SetTitle(fmt.Sprintf(" Notifications (%d unread) ", n))
	} else {
		nv.SetTitle(" Notifications ")
	}
}

// Update refreshes the table with new data.
func (nv *NotificationsView) Update(notifs []store.Notification) {
	nv.notifs = notifs
	nv.Clear()

	nv.SetCell(0, 0, tview.NewTableCell(" ").SetSelectable(false))
	nv.SetCell(0, 1, tview.NewTableCell(" Title").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	nv.SetCell(0, 2, tview.NewTableCell(" Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	nv.SetCell(0, 3, tview.NewTableCell(" When").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	now := time.Now()
	offset := 1
	if a := nv.announcement; a != nil {
		nv.SetCell(1, 0, tview.NewTableCell(" !").SetSelectable(false).SetTextColor(nv.theme.NotifyColor("warning")))
		nv.SetCell(1, 1, tview.NewTableCell(" "+a.Title).SetSelectable(false).SetMaxWidth(24).SetExpansion(1).SetTextColor(nv.theme.NotifyColor("warning")))
		nv.SetCell(1, 2, tview.NewTableCell(" "+sanitizeForTerminal(a.Content)).SetSelectable(false).SetMaxWidth(50).SetExpansion(2))
		nv.SetCell(1, 3, tview.NewTableCell(" "+timefmt.Relative(a.CreatedAt.Time, now)).SetSelectable(false).SetMaxWidth(14))
		offset = 2
	}

	for i, n := range notifs {
		r := i + offset
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		nv.SetCell(r, 0, tview.NewTableCell(" "+marker).SetTextColor(nv.theme.NotifyColor(n.Type)))
		nv.SetCell(r, 1, tview.NewTableCell(" "+n.Title).SetMaxWidth(24).SetExpansion(1).SetTextColor(nv.theme.NotifyColor(n.Type)))
		nv.SetCell(r, 2, tview.NewTableCell(" "+sanitizeForTerminal(n.Body)).SetMaxWidth(50).SetExpansion(2))
		nv.SetCell(r, 3, tview.NewTableCell(" "+timefmt.Relative(time.UnixMilli(n.CreatedAt), now)).SetMaxWidth(14))
	}

	if len(notifs) > 0 {
		nv.Select(offset, 0)
	}
}

// SelectedNotification returns the id of the selected row, zero if none.
func (nv *NotificationsView) SelectedNotification() int64 {
	row, _ := nv.selectedFn()
	idx := row - 1
	if nv.announcement != nil {
		idx--
	}
	if idx >= 0 && idx < len(nv.notifs) {
		return nv.notifs[idx].ID
	}
	return 0
}
