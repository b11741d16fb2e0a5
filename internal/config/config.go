package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Poll holds the refresh cadences, in seconds. The server exposes no push
// channel, so these drive everything the client knows about remote state.
type Poll struct {
	UnreadSeconds        int `toml:"unread_seconds"`
	ConversationsSeconds int `toml:"conversations_seconds"`
}

// Config represents the global ~/.swapchat/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	BaseURL        string `toml:"base_url"`
	// Admin enables the admin tab and commands. Off by default; the
	// server rejects admin calls from non-admin tokens regardless.
	Admin bool `toml:"admin"`
	Poll  Poll `toml:"poll"`
}

// Default returns the built-in configuration: local SkillSwap server,
// 10s unread cadence, 5s conversation cadence.
func Default() *Config {
	return &Config{
		BaseURL: "http://localhost:5000",
		Poll: Poll{
			UnreadSeconds:        10,
			ConversationsSeconds: 5,
		},
	}
}

// Load reads config from the given path, layered over Default.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ApplyEnv overlays environment overrides onto cfg. A .env file in the
// working directory is honored first (missing file is not an error):
//
//	SKILLSWAP_BASE_URL             server base URL
//	SKILLSWAP_PROFILE              profile name
//	SKILLSWAP_ADMIN                "1"/"true" shows the admin surface
//	SKILLSWAP_POLL_UNREAD          unread cadence, seconds
//	SKILLSWAP_POLL_CONVERSATIONS   conversation cadence, seconds
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("SKILLSWAP_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SKILLSWAP_ADMIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Admin = b
		}
	}
	if v := os.Getenv("SKILLSWAP_PROFILE"); v != "" {
		cfg.DefaultProfile = v
	}
	if v := os.Getenv("SKILLSWAP_POLL_UNREAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Poll.UnreadSeconds = n
		}
	}
	if v := os.Getenv("SKILLSWAP_POLL_CONVERSATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Poll.ConversationsSeconds = n
		}
	}
}
