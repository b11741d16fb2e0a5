package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/skillswap/swapchat/internal/chat"
)

// AdminView is the broadcast and quick-message form. The server
// rejects these calls for non-admin tokens; the form stays usable so
// the error is visible rather than the feature hidden.
type AdminView struct {
	*tview.Form

	onBroadcast func(title, content string)
	onQuick     func(title, content, typ string, recipients []int64)
	onDirect    func(userID int64, message string)
	onError     func(err error)
}

// NewAdminView creates the admin form.
func NewAdminView() *AdminView {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" Admin ")

	av := &AdminView{Form: form}

	var quickType = chat.QuickMessageTypes[0]

	form.
		AddInputField("Title", "", 40, nil, nil).
		AddInputField("Content", "", 60, nil, nil).
		AddDropDown("Type", chat.QuickMessageTypes, 0, func(option string, _ int) {
			quickType = option
		}).
		AddInputField("Recipients (ids, comma separated)", "", 40, nil, nil).
		AddInputField("Direct user id", "", 12, nil, nil).
		AddInputField("Direct message", "", 60, nil, nil)

	form.AddButton("Broadcast", func() {
		if av.onBroadcast != nil {
			av.onBroadcast(av.fieldText("Title"), av.fieldText("Content"))
		}
	})
	form.AddButton("Quick Send", func() {
		recipients, err := parseRecipients(av.fieldText("Recipients (ids, comma separated)"))
		if err != nil {
			av.fail(err)
			return
		}
		if av.onQuick != nil {
			av.onQuick(av.fieldText("Title"), av.fieldText("Content"), quickType, recipients)
		}
	})
	form.AddButton("Direct Send", func() {
		id, err := strconv.ParseInt(strings.TrimSpace(av.fieldText("Direct user id")), 10, 64)
		if err != nil {
			av.fail(fmt.Errorf("direct user id must be numeric"))
			return
		}
		if av.onDirect != nil {
			av.onDirect(id, av.fieldText("Direct message"))
		}
	})

	return av
}

// SetOnBroadcast sets the announcement callback.
func (av *AdminView) SetOnBroadcast(fn func(title, content string)) { av.onBroadcast = fn }

// SetOnQuick sets the quick-message callback.
func (av *AdminView) SetOnQuick(fn func(title, content, typ string, recipients []int64)) {
	av.onQuick = fn
}

// SetOnDirect sets the direct system message callback.
func (av *AdminView) SetOnDirect(fn func(userID int64, message string)) { av.onDirect = fn }

// SetOnError sets the local validation error callback.
func (av *AdminView) SetOnError(fn func(err error)) { av.onError = fn }

func (av *AdminView) fail(err error) {
	if av.onError != nil {
		av.onError(err)
	}
}

func (av *AdminView) fieldText(label string) string {
	item := av.GetFormItemByLabel(label)
	if field, ok := item.(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}

// parseRecipients parses a comma-separated id list.
func parseRecipients(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("recipient %q is not a user id", part)
		}
		out = append(out, id)
	}
	return out, nil
}
