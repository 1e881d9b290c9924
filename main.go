package main

import (
	"os"

	"github.com/KazanKK/flatbridge/cmd"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	app := &cli.App{
		Name:  "flatbridge",
		Usage: "Move tables between ClickHouse and flat files through an ingestion backend",
		Flags: cmd.GlobalFlags(),
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.ConnectCommand(),
			cmd.ColumnsCommand(),
			cmd.PreviewCommand(),
			cmd.IngestCommand(),
			cmd.SessionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
