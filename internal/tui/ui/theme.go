package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorBg    tcell.Color
	BadgeFg          tcell.Color
	BadgeBg          tcell.Color
	SystemMsgColor   tcell.Color
	OwnMsgColor      tcell.Color
	PeerMsgColor     tcell.Color
	TitleColor       tcell.Color
	FlashInfoColor   tcell.Color
	FlashWarnColor   tcell.Color
	FlashErrColor    tcell.Color
	NotifyInfoColor  tcell.Color
	NotifySuccess    tcell.Color
	NotifyWarning    tcell.Color
	NotifyError      tcell.Color
}

// DefaultTheme returns the dark theme used across the client.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TableHeaderFg:    tcell.ColorWhite,
		TableCursorBg:    tcell.ColorAqua,
		BadgeFg:          tcell.ColorWhite,
		BadgeBg:          tcell.ColorOrangeRed,
		SystemMsgColor:   tcell.ColorKhaki,
		OwnMsgColor:      tcell.ColorLightGreen,
		PeerMsgColor:     tcell.ColorWhite,
		TitleColor:       tcell.ColorFuchsia,
		FlashInfoColor:   tcell.ColorNavajoWhite,
		FlashWarnColor:   tcell.ColorOrange,
		FlashErrColor:    tcell.ColorOrangeRed,
		NotifyInfoColor:  tcell.ColorDodgerBlue,
		NotifySuccess:    tcell.ColorLightGreen,
		NotifyWarning:    tcell.ColorOrange,
		NotifyError:      tcell.ColorOrangeRed,
	}
}

// NotifyColor maps a notification type to its theme color.
func (t *Theme) NotifyColor(typ string) tcell.Color {
	switch typ {
	case "success":
		return t.NotifySuccess
	case "warning":
		return t.NotifyWarning
	case "error":
		return t.NotifyError
	default:
		return t.NotifyInfoColor
	}
}
