package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ConfigFileName is the project-local config file.
	ConfigFileName = "flatbridge.yaml"

	// DefaultBaseURL is where the ingestion backend listens by default.
	DefaultBaseURL = "http://localhost:8080"

	BaseURLEnv = "FLATBRIDGE_BASE_URL"
)

// FindConfigFile tries to find the flatbridge config file in the current directory
// or any parent directory, falling back to the global config if needed
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %v", err)
	}
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached root directory
		}
		dir = parent
	}

	globalConfig, err := GlobalConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(globalConfig); err == nil {
		return globalConfig, nil
	}

	return "", fmt.Errorf("no config file found in project or ~/.flatbridge/config.yaml")
}

// GlobalConfigPath returns ~/.flatbridge/config.yaml.
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %v", err)
	}
	return filepath.Join(homeDir, ".flatbridge", "config.yaml"), nil
}

// GetBaseURL returns the backend base URL: the environment wins over the
// configured value, which wins over the default.
func GetBaseURL(configured string) string {
	if env := os.Getenv(BaseURLEnv); env != "" {
		return strings.TrimRight(env, "/")
	}
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	return DefaultBaseURL
}
