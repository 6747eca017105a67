// Package config turns viper settings into the typed configuration each
// component takes.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the config and data directories.
const AppName = "tally"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml and the Sheets token live.
func ConfigDir() string {
	return ExpandPath(filepath.Join("~", ".config", AppName))
}

// DataDir is where the database and its backups live.
func DataDir() string {
	return ExpandPath(filepath.Join("~", ".local", "share", AppName))
}
