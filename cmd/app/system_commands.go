package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/playready-proxy/cmd/app/commands"
	"github.com/allisson/playready-proxy/internal/app"
	"github.com/allisson/playready-proxy/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create the api_keys table of a SQL api key store",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if !cfg.UsesSQLStore() {
					return commands.ErrNoSQLStore
				}
				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
	}
}
