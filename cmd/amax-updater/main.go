package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// SetupCmd creates the root command with all subcommands registered.
func SetupCmd(version string) *cobra.Command {
	cmd := NewRootCmd()
	cmd.Version = version
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewRestoreCmd())
	cmd.AddCommand(NewConfigCmd())
	return cmd
}

func main() {
	cmd := SetupCmd(Version)

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
