package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/app"
	"github.com/skillswap/swapchat/internal/chat"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/session"
	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/timefmt"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	params, err := app.LoadConfig(*profileFlag)
	if err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	token, err := session.Token(params.Paths)
	if err != nil {
		fail(err)
	}
	client := rest.NewClient(params.Config.BaseURL, token, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, client, params, *jsonFlag)
	case "unread":
		cmdUnread(ctx, client, *jsonFlag)
	case "conversations":
		cmdConversations(ctx, client, *jsonFlag)
	case "open":
		requireArgs(args, 2, "swapctl open <conversation_id>")
		cmdOpen(ctx, client, parseID(args[1]), *jsonFlag)
	case "send":
		requireArgs(args, 3, "swapctl send <conversation_id> <message>")
		cmdSend(ctx, client, parseID(args[1]), strings.Join(args[2:], " "), *jsonFlag)
	case "users":
		cmdUsers(ctx, client, *jsonFlag)
	case "start":
		requireArgs(args, 2, "swapctl start <user_id>")
		cmdStart(ctx, client, parseID(args[1]), *jsonFlag)
	case "notifications":
		cmdNotifications(ctx, client, args[1:], *jsonFlag)
	case "announcements":
		cmdAnnouncements(ctx, client, *jsonFlag)
	case "broadcast":
		requireArgs(args, 3, "swapctl broadcast <title> <content>")
		cmdBroadcast(ctx, client, args[1], strings.Join(args[2:], " "))
	case "quick":
		requireArgs(args, 5, "swapctl quick <type> <title> <content> <id,id,...>")
		cmdQuick(ctx, client, args[1], args[2], args[3], args[4])
	case "search":
		requireArgs(args, 2, "swapctl search <query>")
		cmdSearch(params, strings.Join(args[1:], " "), *jsonFlag)
	case "sendlog":
		var convID int64
		if len(args) > 1 {
			convID = parseID(args[1])
		}
		cmdSendlog(params, convID, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: swapctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                                Show profile, client and unread status")
	fmt.Fprintln(os.Stderr, "  unread                                Show total unread message count")
	fmt.Fprintln(os.Stderr, "  conversations                         List conversations")
	fmt.Fprintln(os.Stderr, "  open <conversation_id>                Show a conversation (marks it read)")
	fmt.Fprintln(os.Stderr, "  send <conversation_id> <message>      Send a message")
	fmt.Fprintln(os.Stderr, "  users                                 List members available for chat")
	fmt.Fprintln(os.Stderr, "  start <user_id>                       Start (or reuse) a conversation")
	fmt.Fprintln(os.Stderr, "  notifications [read <id>|read-all|delete <id>]")
	fmt.Fprintln(os.Stderr, "  announcements                         Show site announcements")
	fmt.Fprintln(os.Stderr, "  broadcast <title> <content>           Publish an announcement (admin)")
	fmt.Fprintln(os.Stderr, "  quick <type> <title> <content> <ids>  Send a quick notification (admin)")
	fmt.Fprintln(os.Stderr, "  search <query>                        Full-text search the local mirror")
	fmt.Fprintln(os.Stderr, "  sendlog [conversation_id]             Show journaled send attempts")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: "+usage)
		os.Exit(1)
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fail(fmt.Errorf("%q is not a numeric id", s))
	}
	return id
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(err)
	}
}

func cmdStatus(ctx context.Context, c *rest.Client, params app.Params, jsonOut bool) {
	// The lock file is only present while a client holds the profile.
	running := false
	if _, err := os.Stat(params.Paths.LockPath); err == nil {
		running = true
	}

	chatUnread, err := c.UnreadCount(ctx)
	if err != nil {
		fail(err)
	}
	notifyUnread, err := c.NotificationUnreadCount(ctx)
	if err != nil {
		fail(err)
	}

	if jsonOut {
		outputJSON(map[string]any{
			"profile":             params.Profile,
			"base_url":            params.Config.BaseURL,
			"client_running":      running,
			"unread_count":        chatUnread,
			"notify_unread_count": notifyUnread,
		})
		return
	}
	fmt.Printf("Profile:              %s\n", params.Profile)
	fmt.Printf("Base URL:             %s\n", params.Config.BaseURL)
	fmt.Printf("Client running:       %v\n", running)
	fmt.Printf("Unread messages:      %d\n", chatUnread)
	fmt.Printf("Unread notifications: %d\n", notifyUnread)
}

func cmdUnread(ctx context.Context, c *rest.Client, jsonOut bool) {
	n, err := c.UnreadCount(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]int{"unread_count": n})
		return
	}
	fmt.Printf("Unread: %d\n", n)
}

func cmdConversations(ctx context.Context, c *rest.Client, jsonOut bool) {
	convs, err := c.Conversations(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(convs)
		return
	}
	now := time.Now()
	for _, conv := range convs {
		badge := ""
		if conv.UnreadCount > 0 {
			badge = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
		}
		fmt.Printf("%6d  %-24s %-40s %s%s\n",
			conv.ID, conv.OtherUserName, truncate(conv.LastMessage, 40),
			timefmt.Relative(conv.LastMessageAt.Time, now), badge)
	}
}

func cmdOpen(ctx context.Context, c *rest.Client, id int64, jsonOut bool) {
	conv, msgs, err := c.Conversation(ctx, id)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]any{"conversation": conv, "messages": msgs})
		return
	}
	fmt.Printf("Conversation %d with %s\n\n", conv.ID, conv.OtherUserName)
	for _, m := range msgs {
		prefix := m.SenderName
		if m.MessageType == "system" {
			prefix = "[system]"
		}
		fmt.Printf("%s  %-16s %s\n", m.CreatedAt.Format("2006-01-02 15:04"), prefix, m.Body)
	}
}

func cmdSend(ctx context.Context, c *rest.Client, id int64, text string, jsonOut bool) {
	if strings.TrimSpace(text) == "" {
		fail(chat.ErrEmptyMessage)
	}
	msg, err := c.SendMessage(ctx, id, strings.TrimSpace(text))
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msg)
		return
	}
	fmt.Printf("Sent message %d to conversation %d\n", msg.ID, msg.ConversationID)
}

func cmdUsers(ctx context.Context, c *rest.Client, jsonOut bool) {
	users, err := c.Users(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(users)
		return
	}
	for _, u := range users {
		fmt.Printf("%6d  %-24s %-20s %s\n", u.ID, u.Name, u.Location, truncate(u.Bio, 50))
	}
}

func cmdStart(ctx context.Context, c *rest.Client, userID int64, jsonOut bool) {
	id, err := c.StartConversation(ctx, userID)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]int64{"conversation_id": id})
		return
	}
	fmt.Printf("Conversation: %d\n", id)
}

func cmdNotifications(ctx context.Context, c *rest.Client, args []string, jsonOut bool) {
	if len(args) > 0 {
		switch args[0] {
		case "read":
			requireArgs(args, 2, "swapctl notifications read <id>")
			if err := c.MarkNotificationRead(ctx, parseID(args[1])); err != nil {
				fail(err)
			}
			fmt.Println("ok")
			return
		case "read-all":
			if err := c.MarkAllNotificationsRead(ctx); err != nil {
				fail(err)
			}
			fmt.Println("ok")
			return
		case "delete":
			requireArgs(args, 2, "swapctl notifications delete <id>")
			if err := c.DeleteNotification(ctx, parseID(args[1])); err != nil {
				fail(err)
			}
			fmt.Println("ok")
			return
		default:
			fmt.Fprintln(os.Stderr, "usage: swapctl notifications [read <id>|read-all|delete <id>]")
			os.Exit(1)
		}
	}

	notifs, err := c.Notifications(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(notifs)
		return
	}
	now := time.Now()
	for _, n := range notifs {
		marker := " "
		if !bool(n.IsRead) {
			marker = "*"
		}
		fmt.Printf("%s %6d  %-8s %-24s %-40s %s\n",
			marker, n.ID, n.Type, n.Title, truncate(n.Body, 40),
			timefmt.Relative(n.CreatedAt.Time, now))
	}
}

func cmdAnnouncements(ctx context.Context, c *rest.Client, jsonOut bool) {
	latest, older, err := c.Announcements(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]any{"latest": latest, "older": older})
		return
	}
	if latest == nil {
		fmt.Println("No active announcements.")
		return
	}
	fmt.Printf("== %s (%s)\n%s\n", latest.Title, latest.CreatedAt.Format("2006-01-02"), latest.Content)
	for _, a := range older {
		fmt.Printf("\n-- %s (%s)\n%s\n", a.Title, a.CreatedAt.Format("2006-01-02"), a.Content)
	}
}

func cmdBroadcast(ctx context.Context, c *rest.Client, title, content string) {
	if err := c.Broadcast(ctx, title, content); err != nil {
		fail(err)
	}
	fmt.Println("Announcement published.")
}

func cmdQuick(ctx context.Context, c *rest.Client, typ, title, content, ids string) {
	var recipients []int64
	for _, part := range strings.Split(ids, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		recipients = append(recipients, parseID(part))
	}
	if len(recipients) == 0 {
		fail(fmt.Errorf("at least one recipient id is required"))
	}
	if err := c.QuickMessage(ctx, title, content, typ, recipients); err != nil {
		fail(err)
	}
	fmt.Printf("Sent to %d recipient(s).\n", len(recipients))
}

func cmdSearch(params app.Params, query string, jsonOut bool) {
	db := openMirror(params)
	defer func() { _ = db.Close() }()

	results, err := db.SearchMessages(query, 0, 50)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	for _, r := range results {
		fmt.Printf("conv %d  %-16s %s\n", r.Message.ConversationID, r.Message.SenderName, r.Snippet)
	}
}

func cmdSendlog(params app.Params, convID int64, jsonOut bool) {
	db := openMirror(params)
	defer func() { _ = db.Close() }()

	attempts, err := db.ListSendAttempts(convID, 50)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(attempts)
		return
	}
	for _, a := range attempts {
		line := fmt.Sprintf("%s  conv %d  %-7s %s",
			time.UnixMilli(a.CreatedAt).Format("2006-01-02 15:04:05"),
			a.ConversationID, a.Status, truncate(a.Body, 50))
		if a.ErrorMessage != "" {
			line += "  (" + a.ErrorMessage + ")"
		}
		fmt.Println(line)
	}
}

func openMirror(params app.Params) *store.DB {
	db, err := store.Open(params.Paths.DBPath)
	if err != nil {
		fail(err)
	}
	if _, err := db.Migrate(); err != nil {
		_ = db.Close()
		fail(err)
	}
	return db
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
