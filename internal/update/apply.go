package update

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Policy controls how the Applier reacts to a failed entry.
type Policy int

const (
	// BestEffort logs failed entries, keeps going and still records the
	// new version.
	BestEffort Policy = iota
	// Strict stops at the first failed entry and leaves the marker alone.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "best-effort"
}

// EntryFailure is a top-level entry that could not be placed.
type EntryFailure struct {
	Name string
	Err  error
}

// ApplyResult reports what Apply placed into the installation.
type ApplyResult struct {
	Placed  []string
	Failed  []EntryFailure
	Version string
}

// Applier moves staged files into an installation root.
type Applier struct {
	policy Policy
	logger *log.Logger
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithPolicy sets the partial-failure policy.
func WithPolicy(p Policy) ApplierOption {
	return func(a *Applier) {
		a.policy = p
	}
}

// WithApplierLogger sets the logger.
func WithApplierLogger(l *log.Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = l
	}
}

// NewApplier creates an Applier. The default policy is BestEffort.
func NewApplier(opts ...ApplierOption) *Applier {
	a := &Applier{policy: BestEffort}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = discardLogger()
	}
	return a
}

// Apply moves every top-level entry of stagingDir into root, replacing
// same-named paths, then records remote as the installed version.
func (a *Applier) Apply(root, stagingDir string, topLevel []string, remote string) (*ApplyResult, error) {
	res := &ApplyResult{}

	for _, name := range topLevel {
		if err := place(root, stagingDir, name); err != nil {
			if a.policy == Strict {
				return res, fmt.Errorf("%w: %s: %w", ErrApply, name, err)
			}
			a.logger.Warn("could not place entry", "entry", name, "err", err)
			res.Failed = append(res.Failed, EntryFailure{Name: name, Err: err})
			continue
		}
		res.Placed = append(res.Placed, name)
		a.logger.Debug("placed", "entry", name)
	}

	if err := WriteMarker(root, remote); err != nil {
		return res, err
	}
	res.Version = remote
	return res, nil
}

// place moves one staged entry into root. The backup location is never
// replaced.
func place(root, stagingDir, name string) error {
	if name == BackupDir {
		return errors.New("name is reserved for the backup location")
	}
	return replacePath(filepath.Join(stagingDir, name), filepath.Join(root, name))
}

// WriteMarker records version under root, creating the managed directory
// when needed.
func WriteMarker(root, version string) error {
	if err := os.MkdirAll(filepath.Join(root, ManagedDir), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrApply, ManagedDir, err)
	}
	if err := os.WriteFile(MarkerPath(root), []byte(version), 0o644); err != nil {
		return fmt.Errorf("%w: write marker: %w", ErrApply, err)
	}
	return nil
}
