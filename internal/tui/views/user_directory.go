package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/store"
)

// UserDirectory lists members a conversation can be started with.
type UserDirectory struct {
	*tview.Table
	users      []store.User
	filter     string
	selectedFn func() (int, int)
}

// NewUserDirectory creates the directory table.
func NewUserDirectory() *UserDirectory {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" People ")

	ud := &UserDirectory{Table: table}
	ud.selectedFn = table.GetSelection
	return ud
}

// SetFilter records the active name filter for the title.
func (ud *UserDirectory) SetFilter(filter string) {
	ud.filter = filter
	if filter == "" {
		ud.SetTitle(" People ")
	} else {
		ud.SetTitle(fmt.Sprintf(" People /%s ", filter))
	}
}

// Filter returns the active name filter.
func (ud *UserDirectory) Filter() string {
	return ud.filter
}

// Update refreshes the table with new data.
func (ud *UserDirectory) Update(users []store.User) {
	ud.users = users
	ud.Clear()

	ud.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	ud.SetCell(0, 1, tview.NewTableCell(" Location").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	ud.SetCell(0, 2, tview.NewTableCell(" Bio").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, u := range users {
		r := i + 1
		ud.SetCell(r, 0, tview.NewTableCell(" "+u.Name).SetMaxWidth(28).SetExpansion(1))
		ud.SetCell(r, 1, tview.NewTableCell(" "+u.Location).SetMaxWidth(20))
		ud.SetCell(r, 2, tview.NewTableCell(" "+sanitizeForTerminal(u.Bio)).SetMaxWidth(48).SetExpansion(2))
	}

	if len(users) > 0 {
		ud.Select(1, 0)
	}
}

// SelectedUser returns the id of the selected member, zero if none.
func (ud *UserDirectory) SelectedUser() int64 {
	row, _ := ud.selectedFn()
	idx := row - 1
	if idx >= 0 && idx < len(ud.users) {
		return ud.users[idx].ID
	}
	return 0
}
