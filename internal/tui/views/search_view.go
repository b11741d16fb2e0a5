package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/timefmt"
)

// SearchView is the full-text message search page.
type SearchView struct {
	*tview.Flex
	input   *tview.InputField
	results *tview.Table
	matches []store.SearchResult
	onQuery func(query string)
}

// NewSearchView creates the search page.
func NewSearchView() *SearchView {
	input := tview.NewInputField().
		SetLabel(" search > ").
		SetFieldWidth(0)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	results.SetBorder(true).SetTitle(" Results ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		input:   input,
		results: results,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			q := input.GetText()
			if q != "" {
				sv.onQuery(q)
			}
		}
	})

	return sv
}

// SetOnQuery sets the callback when a query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// Input returns the query field for focus management.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the result table for focus management.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}

// Update renders search results.
func (sv *SearchView) Update(matches []store.SearchResult) {
	sv.matches = matches
	sv.results.Clear()

	sv.results.SetCell(0, 0, tview.NewTableCell(" From").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sv.results.SetCell(0, 1, tview.NewTableCell(" Match").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sv.results.SetCell(0, 2, tview.NewTableCell(" When").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	now := time.Now()
	for i, m := range matches {
		r := i + 1
		from := m.Message.SenderName
		if from == "" {
			from = fmt.Sprintf("user %d", m.Message.SenderID)
		}
		sv.results.SetCell(r, 0, tview.NewTableCell(" "+from).SetMaxWidth(20))
		sv.results.SetCell(r, 1, tview.NewTableCell(" "+sanitizeForTerminal(m.Snippet)).SetExpansion(2))
		sv.results.SetCell(r, 2, tview.NewTableCell(" "+timefmt.Relative(time.UnixMilli(m.Message.CreatedAt), now)).SetMaxWidth(14))
	}
	sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(matches)))
}

// SelectedConversation returns the conversation id of the selected
// result, zero if none.
func (sv *SearchView) SelectedConversation() int64 {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(sv.matches) {
		return sv.matches[idx].Message.ConversationID
	}
	return 0
}
