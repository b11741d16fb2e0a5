package session

import (
	"os"
	"path/filepath"
)

// Paths describes the on-disk layout for one profile:
//
//	~/.swapchat/
//	  config.toml
//	  profiles/<name>/
//	    chat.db
//	    token
//	    LOCK
//	    logs/
type Paths struct {
	Root       string
	ConfigPath string
	ProfileDir string
	DBPath     string
	TokenPath  string
	LockPath   string
	LogsDir    string
}

// DefaultRoot returns ~/.swapchat, honoring SWAPCHAT_HOME for tests
// and nonstandard setups.
func DefaultRoot() (string, error) {
	if v := os.Getenv("SWAPCHAT_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".swapchat"), nil
}

// For computes the path layout for the named profile under root.
func For(root, profile string) Paths {
	dir := filepath.Join(root, "profiles", profile)
	return Paths{
		Root:       root,
		ConfigPath: filepath.Join(root, "config.toml"),
		ProfileDir: dir,
		DBPath:     filepath.Join(dir, "chat.db"),
		TokenPath:  filepath.Join(dir, "token"),
		LockPath:   filepath.Join(dir, "LOCK"),
		LogsDir:    filepath.Join(dir, "logs"),
	}
}

// Ensure creates the profile directory tree.
func (p Paths) Ensure() error {
	return os.MkdirAll(p.LogsDir, 0700)
}
