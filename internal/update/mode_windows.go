//go:build windows

package update

import "archive/zip"

// Windows has no UNIX permission bits to restore.
func restoreMode(string, *zip.File) error {
	return nil
}
