package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/amax-emu/amax-updater/internal/config"
	"github.com/amax-emu/amax-updater/internal/display"
	"github.com/amax-emu/amax-updater/internal/export"
	"github.com/amax-emu/amax-updater/internal/game"
	"github.com/amax-emu/amax-updater/internal/locate"
	"github.com/amax-emu/amax-updater/internal/update"
)

const appTitle = "Amax Emu updater"

// Options holds the parsed CLI flags.
type Options struct {
	Root          string
	Endpoint      string
	Archive       string
	ConfigFile    string
	Strict        bool
	KeepWorkspace bool
	CloseGame     bool
	Simple        bool
	Verbose       bool
	DryRun        bool
	Report        string
}

// Test seams.
var (
	newHTTPClient = update.NewHTTPClient
	newGameGuard  = func(name string, logger *log.Logger) gameGuard {
		return game.NewGuard(name, game.WithLogger(logger))
	}
	promptRoot = func() (string, error) {
		return display.PromptPath("Where is Blur installed?")
	}
)

type gameGuard interface {
	Ensure(ctx context.Context, closeGame bool) error
}

// NewRootCmd creates and returns the root cobra command.
func NewRootCmd() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "amax-updater",
		Short: "Keep the Amax Emu mod for Blur up to date",
		Long: `amax-updater checks the Amax Emu update server for a newer release,
downloads it, backs up the installed files to .amax_bak and installs the new
ones. Run it from the Blur directory, point it there with --root, or leave an
UpdateDirectory.txt next to it naming the installation.

While Blur is running nothing is changed and the update fails. Pass
--close-game, or set close_game in the config file, to close the game
first; the game's own updater mode needs this.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, &opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.Root, "root", "r", "", "Game installation directory")
	pf.StringVar(&opts.Endpoint, "endpoint", "", "Update server base URL")
	pf.StringVar(&opts.Archive, "archive", "", "Archive name on the server, without .zip")
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (default: ./"+config.FileName+" or ~/.config/amax-updater/"+config.FileName+")")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "Debug logging")
	pf.BoolVar(&opts.CloseGame, "close-game", false, "Close a running game instead of refusing to update (needed when the game launches the updater)")

	f := cmd.Flags()
	f.BoolVar(&opts.Strict, "strict", false, "Abort on the first file that cannot be installed")
	f.BoolVar(&opts.KeepWorkspace, "keep-workspace", false, "Keep the temporary download directory")
	f.BoolVar(&opts.Simple, "simple", false, "Plain text output instead of the progress bar")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Only report whether an update is available")
	f.StringVar(&opts.Report, "report", "", "Write a run report to this file (.json, .csv or .txt)")

	return cmd
}

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"root":           config.KeyInstallRoot,
	"endpoint":       config.KeyEndpoint,
	"archive":        config.KeyArchiveName,
	"strict":         config.KeyStrictApply,
	"keep-workspace": config.KeyKeepWorkspace,
	"close-game":     config.KeyCloseGame,
}

// loadConfig merges configuration sources with the flags the user set.
// Flags are read by name so subcommands see the root's persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	overrides := map[string]any{}
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		overrides[config.KeyLogLevel] = "debug"
	}

	loadOpts := []config.Option{config.WithOverrides(overrides)}
	if file, _ := flags.GetString("config"); file != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(file))
	}
	return config.Load(loadOpts...)
}

func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "amax",
		Level:  cfg.Level(),
	})
}

// findRoot locates the installation, asking on the terminal as a last
// resort.
func findRoot(cfg *config.Config, logger *log.Logger, interactive bool) (string, error) {
	finder := locate.NewFinder(locate.WithGameExe(cfg.GameProcess), locate.WithLogger(logger))
	root, err := finder.Find(cfg.InstallRoot)
	if err == nil || !errors.Is(err, locate.ErrNotFound) || !interactive || cfg.InstallRoot != "" {
		return root, err
	}

	logger.Warn("could not find the Blur installation, please enter it", "err", err)
	answer, perr := promptRoot()
	if perr != nil {
		return "", fmt.Errorf("%w: %w", err, perr)
	}
	return finder.Find(answer)
}

func httpClient(cfg *config.Config) (*http.Client, error) {
	return newHTTPClient(cfg.ConnectTimeout)
}

func runUpdate(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	interactive := !opts.Simple && display.IsInteractive()

	root, err := findRoot(cfg, logger, interactive)
	if err != nil {
		return err
	}
	client, err := httpClient(cfg)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return runCheck(cmd.Context(), out, cfg, client, logger, root)
	}

	guard := newGameGuard(cfg.GameProcess, logger)
	orchOpts := update.Options{
		Endpoint:       cfg.Endpoint,
		ArchiveName:    cfg.ArchiveName,
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout,
		HTTPClient:     client,
		Policy:         cfg.Policy(),
		KeepWorkspace:  cfg.KeepWorkspace,
		Logger:         logger,
		BeforeBackup: func(ctx context.Context, _ string) error {
			return guard.Ensure(ctx, cfg.CloseGame)
		},
	}

	var res *update.Result
	work := func(ctx context.Context, rep display.Reporter) error {
		o := orchOpts
		o.OnState = func(_, to update.State) { rep.State(to.String()) }
		o.Progress = rep.Progress
		orch, err := update.NewOrchestrator(o)
		if err != nil {
			return err
		}
		res, err = orch.Run(ctx, root)
		return err
	}

	start := time.Now()
	if interactive {
		err = display.RunTUI(cmd.Context(), appTitle, work)
	} else {
		fmt.Fprintln(out, display.Title(appTitle))
		fmt.Fprintf(out, "Installation: %s\n", root)
		err = work(cmd.Context(), display.NewSimpleReporter(out))
	}
	elapsed := time.Since(start)

	if opts.Report != "" && res != nil {
		if rerr := export.ExportToFile(opts.Report, "", export.FromResult(res, start, start.Add(elapsed))); rerr != nil {
			logger.Error("could not write report", "file", opts.Report, "err", rerr)
		} else {
			logger.Debug("report written", "file", opts.Report)
		}
	}

	if err != nil {
		if needsRestore(res) {
			fmt.Fprintln(out, display.Info("The previous version is in "+update.BackupDir+"; run `amax-updater restore` to put it back."))
		}
		if res != nil && res.Session != nil && res.Session.Workspace != nil {
			fmt.Fprintln(out, display.Info("Downloaded files kept in "+res.Session.Workspace.Dir))
		}
		return err
	}

	printResult(out, res, cfg.KeepWorkspace, elapsed)
	return nil
}

// needsRestore reports whether a failed run left files in the backup
// location.
func needsRestore(res *update.Result) bool {
	if res == nil || res.Session == nil {
		return false
	}
	var serr *update.StageError
	if !errors.As(res.Err, &serr) {
		return false
	}
	switch serr.State {
	case update.Applying:
		return true
	case update.BackingUp:
		return !res.Session.Snapshot.Empty()
	}
	return false
}

func printResult(w io.Writer, res *update.Result, keptWorkspace bool, elapsed time.Duration) {
	if res == nil {
		return
	}
	sess := res.Session
	switch res.State {
	case update.UpToDate:
		fmt.Fprintln(w, display.Success(fmt.Sprintf("Already up to date (%s)", sess.Remote)))
	case update.Done:
		for _, f := range sess.Applied.Failed {
			fmt.Fprintln(w, display.Error(fmt.Sprintf("could not install %s: %v", f.Name, f.Err)))
		}
		fmt.Fprintln(w, display.Success(fmt.Sprintf("Updated to %s in %s", sess.Remote, elapsed.Round(time.Millisecond))))
		if !sess.Snapshot.Empty() {
			fmt.Fprintln(w, display.Info("Previous files saved in "+sess.Snapshot.Dir))
		}
		if keptWorkspace && sess.Workspace != nil {
			fmt.Fprintln(w, display.Info("Workspace: "+sess.Workspace.Dir))
		}
	}
}
