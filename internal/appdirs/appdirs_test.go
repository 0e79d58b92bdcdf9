package appdirs

import (
	"path/filepath"
	"testing"
)

func TestBaseDirHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NUTRIAI_HOME", dir+string(filepath.Separator))

	got, err := BaseDir()
	if err != nil {
		t.Fatalf("BaseDir: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Fatalf("expected %q, got %q", dir, got)
	}

	path, err := ProfilesPath()
	if err != nil {
		t.Fatalf("ProfilesPath: %v", err)
	}
	if path != filepath.Join(dir, "profiles.json") {
		t.Fatalf("unexpected profiles path %q", path)
	}
}

func TestBaseDirFallsBackToConfigDir(t *testing.T) {
	t.Setenv("NUTRIAI_HOME", "")
	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AppData", cfg)

	got, err := BaseDir()
	if err != nil {
		t.Fatalf("BaseDir: %v", err)
	}
	if filepath.Base(got) != "nutriai" {
		t.Fatalf("expected nutriai directory, got %q", got)
	}
}
