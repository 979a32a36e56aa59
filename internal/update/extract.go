package update

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// creatorUnix is the "version made by" host id for UNIX in zip headers.
const creatorUnix = 3

var (
	errAbsolutePath  = errors.New("absolute path")
	errPathTraversal = errors.New("path escapes destination")
)

// ExtractedSet lists what an extraction produced. Paths are relative to
// the destination directory, slash-separated and in archive order.
type ExtractedSet struct {
	Entries []string
	Dirs    []string
	Files   []string
	// TopLevel names the items directly under the destination directory.
	// These are what the Applier moves into the installation root.
	TopLevel []string
}

// Extractor unpacks zip archives into a staging directory.
type Extractor struct {
	logger *log.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger.
func WithExtractorLogger(l *log.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	return e
}

type pendingDir struct {
	path string
	file *zip.File
}

// Extract unpacks archivePath into destDir. An entry whose path would land
// outside destDir aborts the extraction before anything is written for it.
func (e *Extractor) Extract(archivePath, destDir string) (*ExtractedSet, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrExtract, archivePath, err)
	}
	defer func() { _ = r.Close() }()

	destDir, err = filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrExtract, destDir, err)
	}

	set := &ExtractedSet{}
	seenTop := make(map[string]bool)
	var dirs []pendingDir

	for i, f := range r.File {
		rel, isDir, err := entryPath(f.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d %q: %w", ErrExtract, i, f.Name, err)
		}
		if rel == "" {
			continue
		}
		target, err := safeJoin(destDir, rel)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d %q: %w", ErrExtract, i, f.Name, err)
		}

		if f.Comment != "" {
			e.logger.Debug("entry comment", "entry", rel, "comment", f.Comment)
		}

		switch {
		case f.Mode()&fs.ModeSymlink != 0:
			e.logger.Warn("skipping symlink entry", "entry", rel)
			continue

		case isDir || f.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create directory %s: %w", ErrExtract, rel, err)
			}
			dirs = append(dirs, pendingDir{path: target, file: f})
			set.Dirs = append(set.Dirs, rel)
			e.logger.Debug("extracted directory", "entry", rel)

		default:
			if err := writeEntry(f, target); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrExtract, rel, err)
			}
			if err := restoreMode(target, f); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrExtract, rel, err)
			}
			set.Files = append(set.Files, rel)
			e.logger.Debug("extracted file", "entry", rel, "bytes", f.UncompressedSize64)
		}

		set.Entries = append(set.Entries, rel)
		if top := topLevelName(rel); !seenTop[top] {
			seenTop[top] = true
			set.TopLevel = append(set.TopLevel, top)
		}
	}

	// Directory modes go last so a read-only directory cannot block
	// writing its own children. Deepest first.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := restoreMode(dirs[i].path, dirs[i].file); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtract, err)
		}
	}

	return set, nil
}

// entryPath normalises an archive entry name to a clean, slash-separated
// relative path. It returns "" for entries naming the archive root.
func entryPath(name string) (rel string, isDir bool, err error) {
	name = strings.ReplaceAll(name, `\`, "/")
	isDir = strings.HasSuffix(name, "/")

	if path.IsAbs(name) || hasDriveLetter(name) {
		return "", isDir, errAbsolutePath
	}

	clean := path.Clean(name)
	if clean == "." {
		return "", isDir, nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", isDir, errPathTraversal
	}
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", isDir, errPathTraversal
	}
	return clean, isDir, nil
}

func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// safeJoin joins rel onto destDir and verifies the result stays inside it.
func safeJoin(destDir, rel string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", errPathTraversal
	}
	return target, nil
}

// topLevelName returns the first component of a relative slash path.
func topLevelName(rel string) string {
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return rel
}

// writeEntry streams a single file entry to target. archive/zip rejects
// content that runs past the declared size or fails its checksum.
func writeEntry(f *zip.File, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: bounded by the declared size, enforced by archive/zip
	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
