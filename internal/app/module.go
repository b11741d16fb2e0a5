// Package app composes the chat client: config, store, polling engine,
// chat session and the surrounding infrastructure.
package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/chat"
	"github.com/skillswap/swapchat/internal/config"
	"github.com/skillswap/swapchat/internal/lock"
	"github.com/skillswap/swapchat/internal/logging"
	"github.com/skillswap/swapchat/internal/poll"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/session"
	"github.com/skillswap/swapchat/internal/shell"
	"github.com/skillswap/swapchat/internal/store"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Paths   session.Paths
	Config  *config.Config
	// ConsoleLog tees logs to stderr. Off for the TUI.
	ConsoleLog bool
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("swapchat",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideShellMachine,
			provideLock,
			provideStore,
			provideRESTClient,
			provideEngine,
			provideSession,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(filepath.Join(p.Paths.LogsDir, "swapchat.log"), p.Profile, p.ConsoleLog)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideShellMachine(b *bus.Bus) *shell.Machine {
	return shell.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(p.Paths.ProfileDir)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	db, err := store.Open(p.Paths.DBPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", p.Paths.DBPath))
	return db, nil
}

func provideRESTClient(p Params, logger *zap.Logger) (*rest.Client, error) {
	token, err := session.Token(p.Paths)
	if err != nil {
		return nil, err
	}
	return rest.NewClient(p.Config.BaseURL, token, logger), nil
}

func provideEngine(p Params, client *rest.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *poll.Engine {
	return poll.NewEngine(client, db, b, logger, poll.Intervals{
		Unread:        time.Duration(p.Config.Poll.UnreadSeconds) * time.Second,
		Conversations: time.Duration(p.Config.Poll.ConversationsSeconds) * time.Second,
		Notifications: time.Duration(p.Config.Poll.UnreadSeconds) * time.Second,
	})
}

func provideSession(client *rest.Client, db *store.DB, b *bus.Bus, engine *poll.Engine, logger *zap.Logger) *chat.Session {
	return chat.NewSession(client, db, b, engine, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, engine *poll.Engine, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start(context.Background())
			logger.Info("client started",
				zap.String("profile", p.Profile),
				zap.String("base_url", p.Config.BaseURL),
				zap.Int("pid", os.Getpid()),
			)
			return nil
		},
		OnStop: func(_ context.Context) error {
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}

// LoadConfig resolves the profile and loads configuration for a
// command-line entry point. Missing config falls back to defaults; env
// overrides are applied last.
func LoadConfig(profileFlag string) (Params, error) {
	root, err := session.DefaultRoot()
	if err != nil {
		return Params{}, err
	}

	cfg, err := config.Load(filepath.Join(root, "config.toml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return Params{}, err
		}
		cfg = config.Default()
	}
	config.ApplyEnv(cfg)

	profile, err := session.Resolve(profileFlag, cfg.DefaultProfile)
	if err != nil {
		return Params{}, err
	}

	paths := session.For(root, profile)
	if err := paths.Ensure(); err != nil {
		return Params{}, err
	}

	return Params{
		Profile: profile,
		Paths:   paths,
		Config:  cfg,
	}, nil
}
