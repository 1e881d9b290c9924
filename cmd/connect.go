package cmd

import (
	"github.com/urfave/cli/v2"
)

func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Test the source connection and list its tables",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctl, err := newController(c, cfg)
			if err != nil {
				return err
			}

			if err := ctl.Connect(c.Context); err != nil {
				return exitReported(err)
			}
			renderTables(c.App.Writer, ctl.Tables(), ctl.SelectedTable())
			return nil
		},
	}
}
