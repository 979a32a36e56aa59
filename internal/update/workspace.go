package update

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a private temporary directory holding the downloaded
// archive and the extraction staging area for one run.
type Workspace struct {
	Dir  string
	keep bool
}

// NewWorkspace creates a fresh workspace under the system temp directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "amax-updater-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	for _, sub := range []string{"download", "staging"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o700); err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}
	return &Workspace{Dir: dir}, nil
}

// ArchivePath is where the archive named name (without extension) is
// downloaded to.
func (w *Workspace) ArchivePath(name string) string {
	return filepath.Join(w.Dir, "download", name+".zip")
}

// StagingDir is the extraction target.
func (w *Workspace) StagingDir() string {
	return filepath.Join(w.Dir, "staging")
}

// Keep makes Close leave the workspace on disk.
func (w *Workspace) Keep() {
	w.keep = true
}

// Close removes the workspace unless Keep was called.
func (w *Workspace) Close() error {
	if w == nil || w.keep {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
