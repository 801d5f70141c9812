package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// CodeagentHome returns the per-user codeagent directory.
// Priority order:
//  1. CODEAGENT_HOME environment variable (if set)
//  2. ~/.codeagent
//
// The directory is created if it doesn't exist.
func CodeagentHome() (string, error) {
	home := os.Getenv("CODEAGENT_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".codeagent")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create codeagent home directory: %w", err)
	}
	return home, nil
}

// DefaultHistoryDBPath returns $CODEAGENT_HOME/history/attempts.db.
// The history directory is created; the database file is not.
func DefaultHistoryDBPath() (string, error) {
	home, err := CodeagentHome()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, "history")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}
	return filepath.Join(dir, "attempts.db"), nil
}
