package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amax-emu/amax-updater/internal/display"
	"github.com/amax-emu/amax-updater/internal/update"
)

// NewRestoreCmd creates the restore subcommand.
func NewRestoreCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put the files saved by the last update back",
		Long: `Move everything in .amax_bak back into the installation, replacing
the files installed by the last update. Only one backup generation is kept.

Only paths that were backed up are put back. Files the update added that
did not exist before, such as a loader installed for the first time, are
left in place and can be deleted by hand.`,
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

			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Restore the backup in %s? [y/N] ", root)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled.")
					return nil
				}
			}

			if err := newGameGuard(cfg.GameProcess, logger).Ensure(cmd.Context(), cfg.CloseGame); err != nil {
				return err
			}

			snap, err := update.NewBackupManager(update.WithBackupLogger(logger)).Restore(root)
			if err != nil {
				return err
			}

			version, err := update.ReadLocal(root)
			if err != nil || version == "" {
				version = "unknown"
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.Success(fmt.Sprintf("Restored %s (version %s)", strings.Join(snap.Paths, ", "), version)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}
