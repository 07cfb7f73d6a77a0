// Package paths provides XDG-compliant path resolution for Grove tools.
//
// Resolution order:
// 1. GROVE_HOME (portable root) → $GROVE_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/grove
// 3. Platform defaults → ~/.config/grove, ~/.local/state/grove
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if groveHome := os.Getenv("GROVE_HOME"); groveHome != "" {
		return filepath.Join(groveHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if groveHome := os.Getenv("GROVE_HOME"); groveHome != "" {
		return filepath.Join(groveHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the Grove configuration directory.
// Used for the global spawn.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "grove")
}

// StateDir returns the Grove state directory.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "grove")
}

// SessionLogDir returns the default root for persisted session logs.
// GROVE_SPAWN_LOG_DIR overrides it for demos and tests.
func SessionLogDir() string {
	if dir := os.Getenv("GROVE_SPAWN_LOG_DIR"); dir != "" {
		return dir
	}
	state := StateDir()
	if state == "" {
		return filepath.Join(os.TempDir(), "grove-spawn", "sessions")
	}
	return filepath.Join(state, "spawn", "sessions")
}
