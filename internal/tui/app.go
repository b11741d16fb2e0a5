// Package tui implements the terminal chat surface: conversation list,
// message thread, member directory, notifications and the admin form.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/chat"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/shell"
	"github.com/skillswap/swapchat/internal/tui/keys"
	"github.com/skillswap/swapchat/internal/tui/model"
	"github.com/skillswap/swapchat/internal/tui/ui"
	"github.com/skillswap/swapchat/internal/tui/views"
)

// Page names.
const (
	pageConversations = "conversations"
	pageThread        = "thread"
	pageUsers         = "users"
	pageNotifications = "notifications"
	pageAdmin         = "admin"
	pageSearch        = "search"
	pageMinimized     = "minimized"
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	pages    *ui.Pages
	theme    *ui.Theme
	vm       *model.ViewModel
	session  *chat.Session
	machine  *shell.Machine
	bus      *bus.Bus
	logger   *zap.Logger
	registry *keys.Registry
	flash    *ui.FlashModel
	admin    bool

	convList  *views.ConversationList
	thread    *views.MessageThread
	composer  *views.Composer
	directory *views.UserDirectory
	dirFilter *tview.InputField
	notifView *views.NotificationsView
	adminView *views.AdminView
	searchV   *views.SearchView
	statusBar *views.StatusBar
	flashBar  *ui.FlashBar
	minimized *tview.TextView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application. The admin surface is only
// mounted when admin is set; the server rejects admin calls from
// non-admin tokens either way.
func NewApp(vm *model.ViewModel, session *chat.Session, machine *shell.Machine, b *bus.Bus, profile string, admin bool, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		theme:     theme,
		vm:        vm,
		session:   session,
		machine:   machine,
		bus:       b,
		logger:    logger,
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		admin:     admin,
		convList:  views.NewConversationList(),
		thread:    views.NewMessageThread(theme),
		composer:  views.NewComposer(),
		directory: views.NewUserDirectory(),
		dirFilter: tview.NewInputField().SetLabel(" /").SetFieldWidth(0),
		notifView: views.NewNotificationsView(theme),
		adminView: views.NewAdminView(),
		searchV:   views.NewSearchView(),
		statusBar: views.NewStatusBar(),
		flashBar:  ui.NewFlashBar(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.quit() },
	})
	a.registry.AddGlobal("minimize", &keys.Action{
		Rune: 'm', Key: tcell.KeyRune,
		Description: "m:minimize", Visible: true,
		Handler: func() { a.minimize() },
	})
	a.registry.AddGlobal("conversations", &keys.Action{
		Rune: '1', Key: tcell.KeyRune,
		Description: "1:chats", Visible: true,
		Handler: func() { a.switchTo(pageConversations) },
	})
	a.registry.AddGlobal("users", &keys.Action{
		Rune: '2', Key: tcell.KeyRune,
		Description: "2:people", Visible: true,
		Handler: func() { a.switchTo(pageUsers) },
	})
	a.registry.AddGlobal("notifications", &keys.Action{
		Rune: '3', Key: tcell.KeyRune,
		Description: "3:notify", Visible: true,
		Handler: func() { a.switchTo(pageNotifications) },
	})
	if a.admin {
		a.registry.AddGlobal("admin", &keys.Action{
			Rune: '4', Key: tcell.KeyRune,
			Description: "4:admin", Visible: true,
			Handler: func() { a.switchTo(pageAdmin) },
		})
	}
	a.registry.AddGlobal("search", &keys.Action{
		Rune: 's', Key: tcell.KeyRune,
		Description: "s:search", Visible: true,
		Handler: func() { a.showSearch() },
	})

	a.registry.AddView(pageNotifications, "read", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:mark read", Visible: true,
		Handler: func() { a.markNotification(false) },
	})
	a.registry.AddView(pageNotifications, "read_all", &keys.Action{
		Rune: 'a', Key: tcell.KeyRune,
		Description: "a:mark all", Visible: true,
		Handler: func() { a.markNotification(true) },
	})
	a.registry.AddView(pageNotifications, "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() { a.deleteNotification() },
	})
	a.registry.AddView(pageUsers, "filter", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:filter", Visible: true,
		Handler: func() { a.app.SetFocus(a.dirFilter) },
	})
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(row, col int) {
		if id := a.convList.SelectedConversation(); id != 0 {
			a.openConversation(id)
		}
	})

	a.directory.SetSelectedFunc(func(row, col int) {
		userID := a.directory.SelectedUser()
		if userID == 0 {
			return
		}
		go func() {
			convID, err := a.session.StartWith(a.ctx, userID)
			if err != nil {
				a.flashErr(err)
				return
			}
			a.openConversation(convID)
		}()
	})

	a.composer.SetOnSend(func(text string) {
		convID := a.vm.ActiveConversation()
		if convID == 0 {
			return
		}
		go func() {
			if _, err := a.session.Send(a.ctx, convID, text); err != nil {
				// Failed sends keep the composed text for a retry.
				a.app.QueueUpdateDraw(func() {
					a.composer.SetText(text)
				})
				a.flashErr(err)
				return
			}
			if err := a.vm.LoadMessages(convID); err != nil {
				a.flashErr(err)
			}
			a.redraw()
		}()
	})

	a.adminView.SetOnBroadcast(func(title, content string) {
		go func() {
			if err := a.session.Broadcast(a.ctx, title, content); err != nil {
				a.flashErr(err)
				return
			}
			a.flashInfo("Announcement published")
		}()
	})
	a.adminView.SetOnQuick(func(title, content, typ string, recipients []int64) {
		go func() {
			if err := a.session.QuickMessage(a.ctx, title, content, typ, recipients); err != nil {
				a.flashErr(err)
				return
			}
			a.flashInfo(fmt.Sprintf("Sent to %d recipient(s)", len(recipients)))
		}()
	})
	a.adminView.SetOnDirect(func(userID int64, message string) {
		go func() {
			if err := a.session.AdminDirectMessage(a.ctx, userID, message); err != nil {
				a.flashErr(err)
				return
			}
			a.flashInfo("System message delivered")
		}()
	})
	a.adminView.SetOnError(func(err error) { a.flashErr(err) })

	a.dirFilter.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter && key != tcell.KeyEscape {
			return
		}
		filter := a.dirFilter.GetText()
		if key == tcell.KeyEscape {
			filter = ""
			a.dirFilter.SetText("")
		}
		a.directory.SetFilter(filter)
		if err := a.vm.LoadUsers(filter); err != nil {
			a.flashErr(err)
		}
		a.app.SetFocus(a.directory)
		a.redraw()
	})

	a.searchV.SetOnQuery(func(query string) {
		go func() {
			results, err := a.session.Search(query, 0, 50)
			if err != nil {
				a.flashErr(err)
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.searchV.Update(results)
				a.app.SetFocus(a.searchV.Results())
			})
		}()
	})
}

func (a *App) setupLayout() {
	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages.AddPage(pageConversations, a.convList, true, false)
	a.pages.AddPage(pageThread, threadFlex, true, false)

	usersFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.directory, 0, 1, true).
		AddItem(a.dirFilter, 1, 0, false)
	a.pages.AddPage(pageUsers, usersFlex, true, false)

	a.pages.AddPage(pageNotifications, a.notifView, true, false)
	if a.admin {
		a.pages.AddPage(pageAdmin, a.adminView, true, false)
	}
	a.pages.AddPage(pageSearch, a.searchV, true, false)

	a.minimized = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	a.pages.AddPage(pageMinimized, a.minimized, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.pages.Reset(pageConversations)
	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		current := a.pages.Current()

		if current == pageMinimized {
			if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
				a.quit()
				return nil
			}
			a.unminimize()
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			if current == pageThread {
				a.closeThread()
				return nil
			}
			if current != pageConversations {
				a.switchTo(pageConversations)
				return nil
			}
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}
		if _, ok := focused.(*tview.Button); ok {
			return event
		}
		if current == pageAdmin {
			return event
		}

		// 'i' focuses the composer when reading a thread.
		if current == pageThread && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(current, event) {
			return nil
		}
		return event
	})
}

func (a *App) switchTo(page string) {
	if page == pageAdmin && !a.admin {
		return
	}
	a.pages.Reset(page)
	if page != pageThread {
		a.session.CloseConversation()
		a.vm.ClearMessages()
	}
	switch page {
	case pageConversations:
		a.app.SetFocus(a.convList)
	case pageUsers:
		if err := a.vm.LoadUsers(a.directory.Filter()); err != nil {
			a.flashErr(err)
		}
		a.app.SetFocus(a.directory)
	case pageNotifications:
		a.session.RefreshNotifications()
		if err := a.vm.LoadNotifications(); err != nil {
			a.flashErr(err)
		}
		a.app.SetFocus(a.notifView)
	case pageAdmin:
		a.app.SetFocus(a.adminView)
	}
	a.render()
}

func (a *App) openConversation(id int64) {
	go func() {
		_, _, err := a.session.Open(a.ctx, id)
		if err != nil {
			a.flashErr(err)
			return
		}
		if err := a.vm.LoadConversations(); err != nil {
			a.flashErr(err)
			return
		}
		if err := a.vm.LoadMessages(id); err != nil {
			a.flashErr(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			if peer := a.vm.ActivePeer(); peer != nil {
				a.thread.SetPeer(peer.OtherUserName)
			}
			a.thread.Update(a.vm.Messages(), a.peerID())
			a.pages.Push(pageThread)
			a.app.SetFocus(a.composer.InputField)
		})
	}()
}

func (a *App) closeThread() {
	a.session.CloseConversation()
	a.vm.ClearMessages()
	a.pages.Pop()
	a.switchTo(pageConversations)
}

func (a *App) minimize() {
	if err := a.machine.Transition(shell.Minimized); err != nil {
		return
	}
	a.session.CloseConversation()
	a.pages.Push(pageMinimized)
	a.render()
}

func (a *App) unminimize() {
	if err := a.machine.Transition(shell.Open); err != nil {
		return
	}
	a.pages.Pop()
	a.render()
}

func (a *App) showSearch() {
	a.pages.Push(pageSearch)
	a.app.SetFocus(a.searchV.Input())
}

func (a *App) markNotification(all bool) {
	go func() {
		var err error
		if all {
			err = a.session.MarkAllNotificationsRead(a.ctx)
		} else {
			id := a.notifView.SelectedNotification()
			if id == 0 {
				return
			}
			err = a.session.MarkNotificationRead(a.ctx, id)
		}
		if err != nil {
			a.flashErr(err)
			return
		}
		if err := a.vm.LoadNotifications(); err != nil {
			a.flashErr(err)
		}
		a.redraw()
	}()
}

func (a *App) deleteNotification() {
	id := a.notifView.SelectedNotification()
	if id == 0 {
		return
	}
	go func() {
		if err := a.session.DeleteNotification(a.ctx, id); err != nil {
			a.flashErr(err)
			return
		}
		if err := a.vm.LoadNotifications(); err != nil {
			a.flashErr(err)
		}
		a.redraw()
	}()
}

func (a *App) quit() {
	// Best effort: Minimized and Open both allow Closed.
	_ = a.machine.Transition(shell.Closed)
	a.cancel()
	a.app.Stop()
}

func (a *App) peerID() int64 {
	if peer := a.vm.ActivePeer(); peer != nil {
		return peer.OtherUserID
	}
	return 0
}

func (a *App) flashErr(err error) {
	a.logger.Warn("ui action failed", zap.Error(err))
	a.flash.Err(err)
	a.redraw()
}

func (a *App) flashInfo(msg string) {
	a.flash.Info(msg)
	a.redraw()
}

// redraw schedules a repaint. Queued from a fresh goroutine so it is
// safe to call from UI event handlers as well as background work.
func (a *App) redraw() {
	go a.app.QueueUpdateDraw(a.render)
}

// render repaints every view from the current model snapshot.
func (a *App) render() {
	a.convList.Update(a.vm.Conversations())
	a.directory.Update(a.vm.Users())
	a.notifView.SetAnnouncement(a.vm.Announcement())
	a.notifView.SetUnread(a.vm.NotifyUnread())
	a.notifView.Update(a.vm.Notifications())
	if a.vm.ActiveConversation() != 0 {
		a.thread.Update(a.vm.Messages(), a.peerID())
	}

	a.statusBar.SetState(string(a.machine.Current()))
	a.statusBar.SetUnread(a.vm.Unread())
	a.statusBar.SetNotifyUnread(a.vm.NotifyUnread())
	a.flashBar.Update(a.flash.GetMessage())

	a.minimized.Clear()
	label := views.BadgeLabel(a.vm.Unread())
	if label == "" {
		fmt.Fprint(a.minimized, "\n\n[gray]no unread messages, press any key to open[-]")
	} else {
		fmt.Fprintf(a.minimized, "\n\n[white:red] %s unread [-:-] press any key to open", label)
	}
}

// watchBus reloads model snapshots when the polling engine or the chat
// session publish changes.
func (a *App) watchBus() {
	ch, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			switch evt.Kind {
			case bus.KindUnreadChanged:
				if n, ok := evt.Payload.(int); ok {
					a.vm.SetUnread(n)
				}
			case bus.KindConversationsUpdated:
				if err := a.vm.LoadConversations(); err != nil {
					a.logger.Warn("reload conversations", zap.Error(err))
				}
			case bus.KindMessageAppended:
				if id := a.vm.ActiveConversation(); id != 0 {
					if err := a.vm.LoadMessages(id); err != nil {
						a.logger.Warn("reload messages", zap.Error(err))
					}
				}
			case bus.KindUsersUpdated:
				if err := a.vm.LoadUsers(a.directory.Filter()); err != nil {
					a.logger.Warn("reload users", zap.Error(err))
				}
			case bus.KindNotificationsUpdated:
				if err := a.vm.LoadNotifications(); err != nil {
					a.logger.Warn("reload notifications", zap.Error(err))
				}
			case bus.KindAnnouncementsUpdated:
				ann, _ := evt.Payload.(*rest.Announcement)
				a.vm.SetAnnouncement(ann)
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the TUI application and blocks until quit.
func (a *App) Run() error {
	if err := a.machine.Transition(shell.Open); err != nil {
		return err
	}

	go a.watchBus()

	// Repaint on model refresh signals and on a slow ticker for the
	// clock and flash expiry.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-a.vm.RefreshCh():
				a.redraw()
			case <-ticker.C:
				a.redraw()
			case <-a.ctx.Done():
				return
			}
		}
	}()

	// Initial paint from whatever the mirror already holds.
	if err := a.vm.LoadConversations(); err != nil {
		a.logger.Warn("initial conversations load", zap.Error(err))
	}
	if err := a.vm.LoadNotifications(); err != nil {
		a.logger.Warn("initial notifications load", zap.Error(err))
	}
	a.render()

	defer a.cancel()
	return a.app.Run()
}
