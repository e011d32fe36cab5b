package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	authUseCase "github.com/allisson/playready-proxy/internal/auth/usecase"
)

type apiKeyOutput struct {
	Username string `json:"username"`
	APIKey   string `json:"apikey"`
}

// RunCreateAPIKey issues a key for username and prints it once. Any previous
// key of the user stops working.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	w io.Writer,
	username, format string,
) error {
	apiKey, err := apiKeyUseCase.Issue(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	logger.Info("api key issued", slog.String("username", apiKey.Username))

	if format == "json" {
		return writeJSON(w, apiKeyOutput{Username: apiKey.Username, APIKey: apiKey.Key})
	}

	_, err = fmt.Fprintf(w, "API key for %s: %s\nStore it now, it will not be shown again.\n",
		apiKey.Username, apiKey.Key)
	return err
}

// RunRevokeAPIKey deletes the key of username.
func RunRevokeAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	w io.Writer,
	username, format string,
) error {
	if err := apiKeyUseCase.Revoke(ctx, username); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	logger.Info("api key revoked", slog.String("username", username))

	if format == "json" {
		return writeJSON(w, map[string]any{"username": username, "revoked": true})
	}

	_, err := fmt.Fprintf(w, "API key for %s revoked\n", username)
	return err
}

// RunListAPIKeys prints every user with a masked key.
func RunListAPIKeys(ctx context.Context, apiKeyUseCase authUseCase.APIKeyUseCase, w io.Writer, format string) error {
	keys, err := apiKeyUseCase.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	out := make([]apiKeyOutput, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyOutput{Username: k.Username, APIKey: k.Masked()})
	}

	if format == "json" {
		return writeJSON(w, out)
	}

	if len(out) == 0 {
		_, err := fmt.Fprintln(w, "No API keys issued")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USERNAME\tAPIKEY")
	for _, k := range out {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", k.Username, k.APIKey)
	}
	return tw.Flush()
}
