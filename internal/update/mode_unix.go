//go:build !windows

package update

import (
	"archive/zip"
	"os"
)

// restoreMode applies the permission bits recorded for f when the archive
// was produced on a UNIX host. Directories always keep owner rwx so the
// tree stays manageable by the updater.
func restoreMode(path string, f *zip.File) error {
	if f.CreatorVersion>>8 != creatorUnix {
		return nil
	}
	perm := f.Mode().Perm()
	if perm == 0 {
		return nil
	}
	if f.Mode().IsDir() {
		perm |= 0o700
	}
	return os.Chmod(path, perm)
}
