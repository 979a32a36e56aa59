package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/amax-emu/amax-updater/internal/config"
	"github.com/amax-emu/amax-updater/internal/display"
	"github.com/amax-emu/amax-updater/internal/update"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether a newer version is published",
		Long: `Compare the version published on the update server with the one
recorded in amax/version. Nothing is downloaded or changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			root, err := findRoot(cfg, logger, false)
			if err != nil {
				return err
			}
			client, err := httpClient(cfg)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, client, logger, root)
		},
	}
}

func runCheck(ctx context.Context, w io.Writer, cfg *config.Config, client *http.Client, logger *log.Logger, root string) error {
	resolver := update.NewResolver(cfg.Endpoint,
		update.WithResolverHTTPClient(client),
		update.WithResolverUserAgent(cfg.UserAgent),
		update.WithResolverLogger(logger))

	remote, err := resolver.Remote(ctx)
	if err != nil {
		return err
	}

	local, err := update.ReadLocal(root)
	if err != nil && !errors.Is(err, update.ErrVersionRead) {
		return err
	}
	shown := local
	if shown == "" {
		shown = "none"
	}

	fmt.Fprintf(w, "Installation:   %s\n", root)
	fmt.Fprintf(w, "Remote version: %s\n", remote)
	fmt.Fprintf(w, "Local version:  %s\n", shown)

	if update.NeedsUpdate(remote, local) {
		fmt.Fprintln(w, display.Info("Update available"))
	} else {
		fmt.Fprintln(w, display.Success("Up to date"))
	}
	return nil
}
