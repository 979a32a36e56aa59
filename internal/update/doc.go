// Package update keeps an Amax installation in step with the version
// published on the update server.
//
// A run resolves the remote and local versions, and when the remote one is
// newer downloads the distribution archive into a private workspace,
// extracts it, moves the current managed files aside into a single backup
// generation and places the new files into the installation root. The
// installation is either left as it was or ends up at the new version with
// the old one recoverable through BackupManager.Restore.
package update
