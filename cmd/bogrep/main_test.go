package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigDirExplicitHome(t *testing.T) {
	dir, err := resolveConfigDir("/tmp/explicit")
	if err != nil {
		t.Fatalf("resolveConfigDir() error = %v", err)
	}
	if dir != "/tmp/explicit" {
		t.Fatalf("resolveConfigDir() = %q, want %q", dir, "/tmp/explicit")
	}
}

func TestResolveConfigDirEnvOverride(t *testing.T) {
	t.Setenv("BOGREP_HOME", "/tmp/from-env")
	dir, err := resolveConfigDir("")
	if err != nil {
		t.Fatalf("resolveConfigDir() error = %v", err)
	}
	if dir != "/tmp/from-env" {
		t.Fatalf("resolveConfigDir() = %q, want %q", dir, "/tmp/from-env")
	}
}

func TestResolveConfigDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BOGREP_HOME", "")

	dir, err := resolveConfigDir("")
	if err != nil {
		t.Fatalf("resolveConfigDir() error = %v", err)
	}
	want := filepath.Join(home, ".bogrep")
	if dir != want {
		t.Fatalf("resolveConfigDir() = %q, want %q", dir, want)
	}
}

func TestRunEndToEnd(t *testing.T) {
	configDir := t.TempDir()

	if code := run([]string{"--home", configDir, "init"}); code != exitOK {
		t.Fatalf("init exit code = %d, want %d", code, exitOK)
	}

	sourceDir := t.TempDir()
	sourcePath := filepath.Join(sourceDir, "Bookmarks")
	if err := os.WriteFile(sourcePath, []byte(`{"roots":{"bookmark_bar":{"name":"Bookmarks bar","type":"folder","children":[]}}}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if code := run([]string{"--home", configDir, "config", "--source", sourcePath}); code != exitOK {
		t.Fatalf("config exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "import"}); code != exitOK {
		t.Fatalf("import exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "add", "https://manual.example.com/x"}); code != exitOK {
		t.Fatalf("add exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "add", "https://manual.example.com/noted"}); code != exitOK {
		t.Fatalf("add (for note) exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "note", "https://manual.example.com/noted", "worth", "revisiting"}); code != exitOK {
		t.Fatalf("note set exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "note", "https://manual.example.com/noted"}); code != exitOK {
		t.Fatalf("note show exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "note", "--clear", "https://manual.example.com/noted"}); code != exitOK {
		t.Fatalf("note clear exit code = %d, want %d", code, exitOK)
	}

	if code := run([]string{"--home", configDir, "remove", "https://manual.example.com/x"}); code != exitOK {
		t.Fatalf("remove exit code = %d, want %d", code, exitOK)
	}
}
