package cmd

import (
	"github.com/urfave/cli/v2"
)

func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Show sample rows of a table",
		Flags: []cli.Flag{tableFlag(), columnsFlag()},
		Action: func(c *cli.Context) error {
			ctl, err := discover(c)
			if err != nil {
				return err
			}

			preview, err := ctl.LoadPreview(c.Context)
			if err != nil {
				return exitReported(err)
			}
			renderPreview(c.App.Writer, preview)
			return nil
		},
	}
}
