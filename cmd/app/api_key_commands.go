package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/playready-proxy/cmd/app/commands"
	"github.com/allisson/playready-proxy/internal/app"
	"github.com/allisson/playready-proxy/internal/config"
)

func usernameFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "username",
		Aliases:  []string{"u"},
		Required: true,
		Usage:    usage,
	}
}

func getAPIKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-api-key",
			Usage: "Issue an API key for a user, replacing any previous key",
			Flags: []cli.Flag{usernameFlag("Owner of the new key"), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Delete the API key of a user",
			Flags: []cli.Flag{usernameFlag("Owner of the key to delete"), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-api-keys",
			Usage: "List issued API keys with the secret part masked",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAPIKeys(
					ctx,
					apiKeyUseCase,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
