package cmd

import (
	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/workflow"
	"github.com/urfave/cli/v2"
)

func tableFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "table",
		Aliases: []string{"t"},
		Usage:   "Table to use (default: first table; ignored for flat files)",
	}
}

func columnsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "columns",
		Usage: "Comma-separated columns to keep (default: all)",
	}
}

func ColumnsCommand() *cli.Command {
	return &cli.Command{
		Name:  "columns",
		Usage: "List the columns of a table",
		Flags: []cli.Flag{tableFlag()},
		Action: func(c *cli.Context) error {
			ctl, err := discover(c)
			if err != nil {
				return err
			}
			renderColumns(c.App.Writer, ctl.Columns(), ctl.SelectedColumns())
			return nil
		},
	}
}

// discover walks a fresh controller to ColumnsLoaded using the --table and
// --columns flags of c.
func discover(c *cli.Context) (*workflow.Controller, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	ctl, err := newController(c, cfg)
	if err != nil {
		return nil, err
	}

	if err := ctl.Connect(c.Context); err != nil {
		return nil, exitReported(err)
	}
	if table := c.String("table"); table != "" && cfg.Session.Source == model.SourceDatabase {
		if err := ctl.SelectTable(table); err != nil {
			return nil, err
		}
	}
	if err := ctl.LoadColumns(c.Context); err != nil {
		return nil, exitReported(err)
	}

	if columns := c.StringSlice("columns"); len(columns) > 0 {
		if err := ctl.SelectColumns(columns); err != nil {
			return nil, err
		}
	}
	return ctl, nil
}
