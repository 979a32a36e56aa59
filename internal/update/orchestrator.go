package update

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultArchiveName is the distribution archive name, without extension.
const DefaultArchiveName = "amax_client_files"

// State is a step of an update run.
type State int

const (
	Idle State = iota
	CheckingVersion
	UpToDate
	Downloading
	Extracting
	BackingUp
	Applying
	Done
	Failed
)

var stateNames = [...]string{
	Idle:            "idle",
	CheckingVersion: "checking version",
	UpToDate:        "up to date",
	Downloading:     "downloading",
	Extracting:      "extracting",
	BackingUp:       "backing up",
	Applying:        "applying",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == UpToDate || s == Done || s == Failed
}

// Session carries everything one run learns, stage by stage.
type Session struct {
	Root      string
	Workspace *Workspace
	Remote    string
	Local     string
	Artifact  *Artifact
	Extracted *ExtractedSet
	Snapshot  *Snapshot
	Applied   *ApplyResult
}

// Result is the outcome of Run.
type Result struct {
	State   State
	Session *Session
	Err     error
}

// Options configures an Orchestrator. Zero values select the defaults.
type Options struct {
	Endpoint       string
	ArchiveName    string
	UserAgent      string
	ConnectTimeout time.Duration
	// HTTPClient overrides the client built by NewHTTPClient.
	HTTPClient *http.Client
	Policy     Policy
	// KeepWorkspace leaves the temporary workspace on disk after the run.
	KeepWorkspace bool
	Logger        *log.Logger

	// OnState is called on every transition.
	OnState func(from, to State)
	// Progress receives download progress.
	Progress ProgressFunc
	// BeforeBackup runs right before the installation is first modified.
	// An error fails the run with nothing touched.
	BeforeBackup func(ctx context.Context, root string) error
}

// Orchestrator runs the update pipeline: resolve, download, extract, back
// up, apply.
type Orchestrator struct {
	opts       Options
	logger     *log.Logger
	resolver   *Resolver
	downloader *Downloader
	extractor  *Extractor
	backups    *BackupManager
	applier    *Applier
	state      State
}

// NewOrchestrator wires the pipeline components from opts.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = DefaultArchiveName
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.HTTPClient == nil {
		c, err := NewHTTPClient(opts.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		opts.HTTPClient = c
	}

	l := opts.Logger
	return &Orchestrator{
		opts:   opts,
		logger: l,
		resolver: NewResolver(opts.Endpoint,
			WithResolverHTTPClient(opts.HTTPClient),
			WithResolverUserAgent(opts.UserAgent),
			WithResolverLogger(l)),
		downloader: NewDownloader(
			WithDownloaderHTTPClient(opts.HTTPClient),
			WithDownloaderUserAgent(opts.UserAgent),
			WithDownloaderLogger(l)),
		extractor: NewExtractor(WithExtractorLogger(l)),
		backups:   NewBackupManager(WithBackupLogger(l)),
		applier:   NewApplier(WithPolicy(opts.Policy), WithApplierLogger(l)),
	}, nil
}

// Resolver returns the version resolver used by the pipeline.
func (o *Orchestrator) Resolver() *Resolver {
	return o.resolver
}

// ArchiveURL returns the URL of the distribution archive.
func (o *Orchestrator) ArchiveURL() string {
	return o.resolver.endpoint + "/" + o.opts.ArchiveName + ".zip"
}

// Run brings the installation at root up to the published version. The
// returned error, if any, is a *StageError and is also set on the Result.
func (o *Orchestrator) Run(ctx context.Context, root string) (*Result, error) {
	o.state = Idle
	sess := &Session{Root: root}

	fail := func(err error) (*Result, error) {
		serr := &StageError{State: o.state, Err: err}
		if ws := sess.Workspace; ws != nil {
			ws.Keep()
			o.logger.Warn("keeping workspace for diagnosis", "dir", ws.Dir)
		}
		o.transition(Failed)
		return &Result{State: Failed, Session: sess, Err: serr}, serr
	}

	o.transition(CheckingVersion)

	abs, err := filepath.Abs(root)
	if err != nil {
		return fail(err)
	}
	sess.Root = abs

	remote, err := o.resolver.Remote(ctx)
	if err != nil {
		return fail(err)
	}
	sess.Remote = remote

	local, err := ReadLocal(abs)
	if err != nil {
		o.logger.Warn("no local version, treating as fresh install", "err", err)
	} else if _, perr := ParseVersion(local); perr != nil {
		o.logger.Warn("unreadable local version, treating as fresh install", "local", local)
	}
	sess.Local = local

	o.logger.Info("version check", "remote", remote, "local", local)
	if !NeedsUpdate(remote, local) {
		o.transition(UpToDate)
		return &Result{State: UpToDate, Session: sess}, nil
	}

	ws, err := NewWorkspace()
	if err != nil {
		return fail(err)
	}
	sess.Workspace = ws
	if o.opts.KeepWorkspace {
		ws.Keep()
		o.logger.Info("keeping workspace", "dir", ws.Dir)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			o.logger.Warn("could not remove workspace", "dir", ws.Dir, "err", err)
		}
	}()

	o.transition(Downloading)
	art, err := o.downloader.Fetch(ctx, o.ArchiveURL(), ws.ArchivePath(o.opts.ArchiveName), o.opts.Progress)
	if err != nil {
		return fail(err)
	}
	sess.Artifact = art

	o.transition(Extracting)
	set, err := o.extractor.Extract(art.Path, ws.StagingDir())
	if err != nil {
		return fail(err)
	}
	sess.Extracted = set
	if err := checkRelease(set); err != nil {
		return fail(err)
	}

	o.transition(BackingUp)
	if o.opts.BeforeBackup != nil {
		if err := o.opts.BeforeBackup(ctx, abs); err != nil {
			return fail(err)
		}
	}
	snap, err := o.backups.Snapshot(abs)
	sess.Snapshot = snap
	if err != nil {
		return fail(err)
	}

	o.transition(Applying)
	applied, err := o.applier.Apply(abs, ws.StagingDir(), set.TopLevel, remote)
	sess.Applied = applied
	if err != nil {
		return fail(err)
	}

	o.transition(Done)
	return &Result{State: Done, Session: sess}, nil
}

// checkRelease rejects archives that would leave the installation without
// a managed directory or overwrite the backup location.
func checkRelease(set *ExtractedSet) error {
	if len(set.TopLevel) == 0 {
		return fmt.Errorf("%w: archive is empty", ErrExtract)
	}
	if !slices.Contains(set.TopLevel, ManagedDir) {
		return fmt.Errorf("%w: archive has no %s directory", ErrExtract, ManagedDir)
	}
	if slices.Contains(set.TopLevel, BackupDir) {
		return fmt.Errorf("%w: archive contains reserved entry %s", ErrExtract, BackupDir)
	}
	return nil
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	o.logger.Debug("state", "from", from, "to", to)
	if o.opts.OnState != nil {
		o.opts.OnState(from, to)
	}
}
