package cmd

import (
	"github.com/urfave/cli/v2"
)

func IngestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Transfer a table between ClickHouse and a flat file",
		Description: "The transfer runs on the backend. Use --direction with --target-file\n" +
			"(clickhouse_to_flatfile) or --target-table (flatfile_to_clickhouse).",
		Flags: []cli.Flag{
			tableFlag(),
			columnsFlag(),
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Show sample rows before transferring",
			},
		},
		Action: func(c *cli.Context) error {
			ctl, err := discover(c)
			if err != nil {
				return err
			}

			if c.Bool("preview") {
				preview, err := ctl.LoadPreview(c.Context)
				if err != nil {
					return exitReported(err)
				}
				renderPreview(c.App.Writer, preview)
			}

			if _, err := ctl.Ingest(c.Context); err != nil {
				return exitReported(err)
			}
			return nil
		},
	}
}
