package views

import (
	"testing"

	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/tui/ui"
)

func TestSelectedNotification(t *testing.T) {
	nv := NewNotificationsView(ui.DefaultTheme())
	nv.Update([]store.Notification{
		{ID: 10, Title: "first"},
		{ID: 11, Title: "second"},
	})

	nv.selectedFn = func() (int, int) { return 2, 0 }
	if got := nv.SelectedNotification(); got != 11 {
		t.Errorf("selected = %d, want 11", got)
	}

	nv.selectedFn = func() (int, int) { return 0, 0 }
	if got := nv.SelectedNotification(); got != 0 {
		t.Errorf("header row selected = %d, want 0", got)
	}
}

// A pinned announcement shifts every notification row down by one; the
// selection math has to follow.
func TestSelectedNotificationWithAnnouncement(t *testing.T) {
	nv := NewNotificationsView(ui.DefaultTheme())
	nv.SetAnnouncement(&rest.Announcement{ID: 1, Title: "Maintenance", Content: "tonight"})
	nv.Update([]store.Notification{
		{ID: 10, Title: "first"},
		{ID: 11, Title: "second"},
	})

	nv.selectedFn = func() (int, int) { return 2, 0 }
	if got := nv.SelectedNotification(); got != 10 {
		t.Errorf("selected = %d, want 10", got)
	}

	nv.selectedFn = func() (int, int) { return 1, 0 }
	if got := nv.SelectedNotification(); got != 0 {
		t.Errorf("announcement row selected = %d, want 0", got)
	}
}
