package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is the configuration file looked up by Resolve.
const FileName = "fgbio-mcp.yaml"

// EnvConfigPath overrides the search path when set.
const EnvConfigPath = "FGBIO_MCP_CONFIG"

// SearchPaths returns the candidate locations in lookup order:
// $XDG_CONFIG_HOME/fgbio-mcp, ~/.config/fgbio-mcp, then the working
// directory.
func SearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "fgbio-mcp", FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "fgbio-mcp", FileName))
	}
	return append(paths, FileName)
}

// Resolve returns the configuration file to load. An explicit path, or
// $FGBIO_MCP_CONFIG, must exist. Otherwise the first existing entry of
// SearchPaths wins, and "" means none was found.
func Resolve(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}

	for _, p := range SearchPaths() {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config: %w", err)
		}
	}
	return "", nil
}
