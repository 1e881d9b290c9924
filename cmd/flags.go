package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/KazanKK/flatbridge/internal/client"
	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/KazanKK/flatbridge/internal/utils"
	"github.com/KazanKK/flatbridge/internal/workflow"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const (
	categoryServer = "Backend"
	categorySource = "Source"
	categoryTarget = "Target"
)

// GlobalFlags are shared by every command. Connection flags override the
// matching value of the config file.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the config file (default: nearest " + utils.ConfigFileName + ")",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log remote calls",
		},

		&cli.StringFlag{
			Name:     "base-url",
			Category: categoryServer,
			Usage:    "Ingestion backend address (or set " + utils.BaseURLEnv + ")",
		},
		&cli.StringFlag{
			Name:     "api-token",
			Category: categoryServer,
			Usage:    "Bearer token for the backend (or set FLATBRIDGE_API_TOKEN)",
			EnvVars:  []string{"FLATBRIDGE_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:     "timeout",
			Category: categoryServer,
			Usage:    "Per-request timeout, e.g. 30s",
		},

		&cli.StringFlag{Name: "source", Category: categorySource, Usage: "Source kind: clickhouse or flatfile"},
		&cli.StringFlag{Name: "host", Category: categorySource, Usage: "ClickHouse host", EnvVars: []string{"FLATBRIDGE_HOST"}},
		&cli.StringFlag{Name: "port", Category: categorySource, Usage: "ClickHouse port", EnvVars: []string{"FLATBRIDGE_PORT"}},
		&cli.StringFlag{Name: "database", Category: categorySource, Usage: "ClickHouse database", EnvVars: []string{"FLATBRIDGE_DATABASE"}},
		&cli.StringFlag{Name: "user", Category: categorySource, Usage: "ClickHouse user", EnvVars: []string{"FLATBRIDGE_USER"}},
		&cli.StringFlag{
			Name:     "token",
			Category: categorySource,
			Usage:    "ClickHouse JWT token (or set FLATBRIDGE_JWT_TOKEN)",
			EnvVars:  []string{"FLATBRIDGE_JWT_TOKEN"},
		},
		&cli.BoolFlag{Name: "secure", Category: categorySource, Usage: "Use TLS for ClickHouse"},
		&cli.BoolFlag{Name: "ask-token", Category: categorySource, Usage: "Prompt for the JWT token when it is empty"},
		&cli.StringFlag{Name: "file", Category: categorySource, Usage: "Flat file path"},
		&cli.StringFlag{Name: "delimiter", Category: categorySource, Usage: "Flat file delimiter (default \",\")"},

		&cli.StringFlag{Name: "direction", Category: categoryTarget, Usage: "clickhouse_to_flatfile or flatfile_to_clickhouse"},
		&cli.StringFlag{Name: "target-file", Category: categoryTarget, Usage: "Output file for database to file transfers"},
		&cli.StringFlag{Name: "target-database", Category: categoryTarget, Usage: "Destination database (default: --database)"},
		&cli.StringFlag{Name: "target-table", Category: categoryTarget, Usage: "Destination table for file to database transfers"},
	}
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %v", err)
	}

	if c.IsSet("base-url") {
		cfg.Server.BaseURL = c.String("base-url")
	}
	if c.IsSet("api-token") {
		cfg.Server.APIToken = c.String("api-token")
	}
	if c.IsSet("timeout") {
		cfg.Server.Timeout = c.String("timeout")
	}

	for _, field := range config.Fields {
		if !c.IsSet(field) {
			continue
		}
		value := c.String(field)
		if field == "secure" {
			value = strconv.FormatBool(c.Bool(field))
		}
		if err := cfg.Session.Set(field, value); err != nil {
			return nil, fmt.Errorf("--%s: %v", field, err)
		}
	}

	if c.Bool("ask-token") && cfg.Session.Database.Token == "" {
		token, err := promptToken(c)
		if err != nil {
			return nil, err
		}
		cfg.Session.Database.Token = token
	}
	return cfg, nil
}

func promptToken(c *cli.Context) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--ask-token needs an interactive terminal")
	}
	fmt.Fprint(c.App.ErrWriter, "ClickHouse JWT token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(c.App.ErrWriter)
	if err != nil {
		return "", fmt.Errorf("reading token: %v", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// newController wires a controller to the backend named by cfg.
func newController(c *cli.Context, cfg *config.Config) (*workflow.Controller, error) {
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL()
	if c.IsSet("base-url") {
		baseURL = c.String("base-url")
	}
	backend := client.New(client.Options{
		BaseURL:  baseURL,
		APIToken: cfg.Server.APIToken,
		Timeout:  timeout,
	})
	return workflow.New(cfg.Session, backend, newReporter(c.App.Writer)), nil
}

// exitReported turns an error the reporter already printed into a bare
// non-zero exit. Local precondition errors are returned as they are.
func exitReported(err error) error {
	if err == nil || workflow.IsLocal(err) {
		return err
	}
	return cli.Exit("", 1)
}
