package update

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// BackupDir is the single-generation backup location under the
// installation root.
const BackupDir = ".amax_bak"

// LoaderFiles are the root-level files the mod installs next to the game
// executable.
var LoaderFiles = []string{"d3d9.dll", "lua5.1.dll", "discord-rpc.dll"}

// Snapshot records what a backup relocated.
type Snapshot struct {
	// Dir is the absolute backup location.
	Dir string
	// Paths are root-relative names moved into Dir.
	Paths []string
}

// Empty reports whether nothing was backed up.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Paths) == 0
}

// BackupManager moves the managed files aside before an update and can
// put them back.
type BackupManager struct {
	logger *log.Logger
}

// BackupOption configures a BackupManager.
type BackupOption func(*BackupManager)

// WithBackupLogger sets the logger.
func WithBackupLogger(l *log.Logger) BackupOption {
	return func(b *BackupManager) {
		b.logger = l
	}
}

// NewBackupManager creates a BackupManager.
func NewBackupManager(opts ...BackupOption) *BackupManager {
	b := &BackupManager{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = discardLogger()
	}
	return b
}

// Snapshot moves the managed directory and loader files under root into
// the backup location, replacing any earlier backup. When root has no
// managed directory the installation is left alone and an empty snapshot
// is returned.
func (b *BackupManager) Snapshot(root string) (*Snapshot, error) {
	dir := filepath.Join(root, BackupDir)
	snap := &Snapshot{Dir: dir}

	managed := filepath.Join(root, ManagedDir)
	ok, err := exists(managed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackup, err)
	}
	if !ok {
		b.logger.Debug("nothing to back up", "root", root)
		return snap, nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("%w: clear %s: %w", ErrBackup, dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrBackup, dir, err)
	}

	// The version marker lives inside the managed directory and moves
	// with it.
	if err := movePath(managed, filepath.Join(dir, ManagedDir)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackup, err)
	}
	snap.Paths = append(snap.Paths, ManagedDir)

	for _, name := range LoaderFiles {
		src := filepath.Join(root, name)
		ok, err := exists(src)
		if err != nil {
			return snap, fmt.Errorf("%w: %w", ErrBackup, err)
		}
		if !ok {
			continue
		}
		if err := movePath(src, filepath.Join(dir, name)); err != nil {
			return snap, fmt.Errorf("%w: %w", ErrBackup, err)
		}
		snap.Paths = append(snap.Paths, name)
	}

	b.logger.Info("backed up installation", "dir", dir, "paths", snap.Paths)
	return snap, nil
}

// Restore moves the contents of the backup location back into root,
// replacing what is there, and removes the emptied backup location.
func (b *BackupManager) Restore(root string) (*Snapshot, error) {
	dir := filepath.Join(root, BackupDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, ErrNoBackup
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrBackup, dir, err)
	}
	if len(entries) == 0 {
		return nil, ErrNoBackup
	}

	snap := &Snapshot{Dir: dir}
	for _, e := range entries {
		name := e.Name()
		if err := replacePath(filepath.Join(dir, name), filepath.Join(root, name)); err != nil {
			return snap, fmt.Errorf("%w: restore %s: %w", ErrBackup, name, err)
		}
		snap.Paths = append(snap.Paths, name)
		b.logger.Debug("restored", "path", name)
	}

	if err := os.Remove(dir); err != nil {
		return snap, fmt.Errorf("%w: remove %s: %w", ErrBackup, dir, err)
	}
	b.logger.Info("restored backup", "paths", snap.Paths)
	return snap, nil
}
