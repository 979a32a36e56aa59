// Package locate finds the game installation the updater works on.
package locate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
)

const (
	// PointerFile, when present in the working directory, holds the path
	// of the installation to update.
	PointerFile = "UpdateDirectory.txt"

	// DefaultGameExe marks a directory as a game installation.
	DefaultGameExe = "Blur.exe"
)

// ErrNotFound is returned when no installation could be located.
var ErrNotFound = errors.New("installation not found")

// Finder resolves the installation root.
type Finder struct {
	workingDir string
	gameExe    string
	logger     *log.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithWorkingDir overrides the directory searched for PointerFile and the
// game executable.
func WithWorkingDir(dir string) Option {
	return func(f *Finder) {
		f.workingDir = dir
	}
}

// WithGameExe overrides the executable name that marks an installation.
func WithGameExe(name string) Option {
	return func(f *Finder) {
		f.gameExe = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Finder) {
		f.logger = l
	}
}

// NewFinder creates a Finder.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{gameExe: DefaultGameExe}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Find returns the absolute installation root. Candidates are tried in
// order: explicit, the path named by PointerFile, the working directory
// when it contains the game executable.
func (f *Finder) Find(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return checkDir(explicit)
	}

	wd := f.workingDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
	}

	pointer := filepath.Join(wd, PointerFile)
	data, err := os.ReadFile(pointer)
	switch {
	case err == nil:
		target := strings.TrimSpace(string(data))
		if target == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrNotFound, pointer)
		}
		f.logger.Info("found pointer file", "file", pointer, "root", target)
		if !filepath.IsAbs(target) && !strings.HasPrefix(target, "~") {
			target = filepath.Join(wd, target)
		}
		return checkDir(target)
	case !os.IsNotExist(err):
		return "", fmt.Errorf("read %s: %w", pointer, err)
	}

	if _, err := os.Stat(filepath.Join(wd, f.gameExe)); err == nil {
		f.logger.Info("found game executable", "dir", wd)
		return filepath.Abs(wd)
	}

	return "", fmt.Errorf("%w: no %s or %s in %s", ErrNotFound, PointerFile, f.gameExe, wd)
}

func checkDir(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotFound, abs)
	}
	return abs, nil
}
