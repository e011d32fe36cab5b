package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/playready-proxy/cmd/app/commands"
	"github.com/allisson/playready-proxy/internal/app"
	"github.com/allisson/playready-proxy/internal/config"
)

func getDeviceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-devices",
			Usage: "List the configured CDM devices",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				catalogue, err := container.DeviceCatalogue()
				if err != nil {
					return err
				}

				return commands.RunListDevices(catalogue, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
	}
}
