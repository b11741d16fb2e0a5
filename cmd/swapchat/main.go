package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/app"
	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/chat"
	"github.com/skillswap/swapchat/internal/shell"
	"github.com/skillswap/swapchat/internal/store"
	"github.com/skillswap/swapchat/internal/tui"
	"github.com/skillswap/swapchat/internal/tui/model"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	params, err := app.LoadConfig(*profileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var ui *tui.App
	fxApp := fx.New(
		app.Module(params),
		fx.Provide(
			func(db *store.DB) *model.ViewModel {
				return model.NewViewModel(db)
			},
			func(vm *model.ViewModel, session *chat.Session, machine *shell.Machine, b *bus.Bus, logger *zap.Logger) *tui.App {
				return tui.NewApp(vm, session, machine, b, params.Profile, params.Config.Admin, logger)
			},
		),
		fx.Populate(&ui),
		// fx's own log lines would corrupt the terminal UI.
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := ui.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
