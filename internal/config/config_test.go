package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knot.yaml")
	data := "prompt: \"k> \"\npreload:\n  - lib.kn\ngc_trace: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "k> " {
		t.Errorf("Prompt = %q", cfg.Prompt)
	}
	if len(cfg.Preload) != 1 || cfg.Preload[0] != "lib.kn" {
		t.Errorf("Preload = %v", cfg.Preload)
	}
	if !cfg.GCTrace {
		t.Errorf("GCTrace = false")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knot.yaml")
	if err := os.WriteFile(path, []byte("gc_trace: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != Default().Prompt {
		t.Errorf("partial config lost the default prompt: %q", cfg.Prompt)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadDefaultFallsBack(t *testing.T) {
	t.Setenv("KNOT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	cfg := LoadDefault()
	if cfg.Prompt == "" {
		t.Fatalf("fallback config has no prompt")
	}
}

func TestLoadDefaultHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("prompt: \"env> \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KNOT_CONFIG", path)
	if cfg := LoadDefault(); cfg.Prompt != "env> " {
		t.Fatalf("Prompt = %q, want env> ", cfg.Prompt)
	}
}
