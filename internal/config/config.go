package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/utils"
	"gopkg.in/yaml.v3"
)

const DefaultTimeout = 60 * time.Second

// Config is the content of flatbridge.yaml.
type Config struct {
	Server  Server  `yaml:"server"`
	Session Session `yaml:",inline"`
}

type Server struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			BaseURL: utils.DefaultBaseURL,
			Timeout: DefaultTimeout.String(),
		},
		Session: Session{
			Source:    model.SourceDatabase,
			Direction: model.DatabaseToFile,
			Database: DatabaseInput{
				Host:     "localhost",
				Port:     "9000",
				Database: "default",
				User:     "default",
			},
			File: FileInput{Delimiter: model.DefaultDelimiter},
		},
	}
}

// Load reads a config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if _, err := cfg.RequestTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the discovered config file, or the defaults when there is
// none. The returned path is empty in the latter case.
func LoadDefault() (*Config, string, error) {
	path, err := utils.FindConfigFile()
	if err != nil {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// BaseURL resolves the backend address.
func (c *Config) BaseURL() string {
	return utils.GetBaseURL(c.Server.BaseURL)
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Server.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.timeout %q: %w", c.Server.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid server.timeout %q: must be positive", c.Server.Timeout)
	}
	return d, nil
}

var ErrConfigExists = errors.New("config file already exists")

const starterHeader = `# flatbridge configuration
#
# source:    clickhouse | flatfile
# direction: clickhouse_to_flatfile | flatfile_to_clickhouse
# Any value can be overridden with the matching command-line flag.
`

// WriteStarter writes a starter config file. An existing file is only
// replaced when force is set.
func WriteStarter(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	yamlData, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("creating yaml: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append([]byte(starterHeader), yamlData...), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
