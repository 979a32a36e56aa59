package update

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBackupManager_Snapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, MarkerPath(root), "1.0.0.0")
	writeFile(t, filepath.Join(root, ManagedDir, "scripts", "init.lua"), "lua")
	writeFile(t, filepath.Join(root, "d3d9.dll"), "d3d9")
	writeFile(t, filepath.Join(root, "lua5.1.dll"), "lua")
	writeFile(t, filepath.Join(root, "Blur.exe"), "game")

	snap, err := NewBackupManager().Snapshot(root)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	wantPaths := []string{ManagedDir, "d3d9.dll", "lua5.1.dll"}
	if !reflect.DeepEqual(snap.Paths, wantPaths) {
		t.Errorf("Paths = %v, want %v", snap.Paths, wantPaths)
	}
	if snap.Empty() {
		t.Error("snapshot should not be empty")
	}

	for _, p := range wantPaths {
		if _, err := os.Stat(filepath.Join(root, p)); !os.IsNotExist(err) {
			t.Errorf("%s still present in root", p)
		}
	}
	if got := readFile(t, filepath.Join(root, BackupDir, ManagedDir, MarkerName)); got != "1.0.0.0" {
		t.Errorf("backed up marker = %q", got)
	}
	if got := readFile(t, filepath.Join(root, BackupDir, ManagedDir, "scripts", "init.lua")); got != "lua" {
		t.Errorf("backed up script = %q", got)
	}
	if got := readFile(t, filepath.Join(root, BackupDir, "d3d9.dll")); got != "d3d9" {
		t.Errorf("backed up loader = %q", got)
	}
	if got := readFile(t, filepath.Join(root, "Blur.exe")); got != "game" {
		t.Error("unmanaged file was touched")
	}
}

func TestBackupManager_Snapshot_NothingInstalled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d3d9.dll"), "other mod")

	snap, err := NewBackupManager().Snapshot(root)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Empty() {
		t.Errorf("expected empty snapshot, got %v", snap.Paths)
	}
	if _, err := os.Stat(filepath.Join(root, BackupDir)); !os.IsNotExist(err) {
		t.Error("backup location created with nothing to back up")
	}
	if got := readFile(t, filepath.Join(root, "d3d9.dll")); got != "other mod" {
		t.Error("loader moved without a managed directory")
	}
}

func TestBackupManager_Snapshot_ReplacesOldGeneration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, BackupDir, "stale.txt"), "old")
	writeFile(t, MarkerPath(root), "1.0")

	if _, err := NewBackupManager().Snapshot(root); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, BackupDir, "stale.txt")); !os.IsNotExist(err) {
		t.Error("previous backup generation survived")
	}
}

func TestBackupManager_Restore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, MarkerPath(root), "1.0.0.0")
	writeFile(t, filepath.Join(root, "discord-rpc.dll"), "rpc")

	b := NewBackupManager()
	if _, err := b.Snapshot(root); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	// A half-applied update.
	writeFile(t, MarkerPath(root), "2.0.0.0")

	snap, err := b.Restore(root)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(snap.Paths) != 2 {
		t.Errorf("restored %v, want 2 paths", snap.Paths)
	}
	if got := readFile(t, MarkerPath(root)); got != "1.0.0.0" {
		t.Errorf("marker = %q, want 1.0.0.0", got)
	}
	if got := readFile(t, filepath.Join(root, "discord-rpc.dll")); got != "rpc" {
		t.Errorf("loader = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, BackupDir)); !os.IsNotExist(err) {
		t.Error("backup location not removed")
	}
}

func TestBackupManager_Restore_NoBackup(t *testing.T) {
	root := t.TempDir()
	if _, err := NewBackupManager().Restore(root); !errors.Is(err, ErrNoBackup) {
		t.Errorf("expected ErrNoBackup, got %v", err)
	}

	if err := os.Mkdir(filepath.Join(root, BackupDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBackupManager().Restore(root); !errors.Is(err, ErrNoBackup) {
		t.Errorf("empty backup: expected ErrNoBackup, got %v", err)
	}
}
