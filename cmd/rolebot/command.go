package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "rolebot"
	s.app.Usage = "Grant guild roles to members reacting on a tracked message"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path of an optional TOML config file",
			EnvVars: []string{"ROLEBOT_CONFIG"},
		},
	}
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startBot,
			Name:        "start",
			Usage:       "Start the bot",
			Category:    "Bot",
			Description: `Connect to the Discord gateway, reconcile the tracked message and serve commands and reactions.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database",
			Category:    "Database",
			Description: `Apply the pending database migrations and exit.`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "auto",
					Usage: "Create the schema from the latest models instead of running each version",
				},
				&cli.StringFlag{
					Name:  "version",
					Usage: "Run the migrator of this version again after the pending ones",
				},
			},
		},
	}
}
