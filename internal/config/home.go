package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the outcmp home directory.
const HomeEnv = "OUTCMP_HOME"

// GetHome returns the outcmp home directory
// Priority order:
//  1. OUTCMP_HOME environment variable (if set)
//  2. the nearest existing .outcmp directory above the working directory
//  3. .outcmp in the current working directory (created)
func GetHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if found := findHome(cwd); found != "" {
		return found, nil
	}

	home := filepath.Join(cwd, ".outcmp")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create outcmp home directory: %w", err)
	}
	return home, nil
}

// findHome walks up from dir looking for an .outcmp directory.
func findHome(dir string) string {
	current := dir
	for {
		candidate := filepath.Join(current, ".outcmp")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// ProjectDir returns the directory holding the home directory, which is
// where relative paths in the configuration are resolved.
func ProjectDir(home string) string {
	return filepath.Dir(home)
}

// ResolvePath makes a configured path absolute relative to the project
// directory of home.
func ResolvePath(home, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ProjectDir(home), path)
}

// Load reads the configuration of the current home directory.
func Load() (*Config, string, error) {
	home, err := GetHome()
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadConfig(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, "", err
	}
	return cfg, home, nil
}
