package cmd

import (
	"errors"
	"fmt"

	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/KazanKK/flatbridge/internal/utils"
	"github.com/urfave/cli/v2"
)

func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize flatbridge configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Where to write the config file",
				Value: utils.ConfigFileName,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")

			if err := config.WriteStarter(path, c.Bool("force")); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}

			fmt.Fprintf(c.App.Writer, "Created %s with backend %s\n", path, utils.DefaultBaseURL)
			return nil
		},
	}
}
