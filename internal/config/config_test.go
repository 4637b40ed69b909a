package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Fatalf("listen got %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Fatalf("data dir got %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.Recurrence.MaxOccurrences != DefaultMaxOccurrences {
		t.Fatalf("max occurrences got %d, want %d", cfg.Recurrence.MaxOccurrences, DefaultMaxOccurrences)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenda.yaml")
	raw := "listen: \":9000\"\ntimezone: America/Sao_Paulo\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("listen got %q", cfg.Listen)
	}
	if cfg.Timezone != "America/Sao_Paulo" {
		t.Fatalf("timezone got %q", cfg.Timezone)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Fatalf("data dir got %q, want default", cfg.DataDir)
	}
	if cfg.Recurrence.MaxOccurrences != DefaultMaxOccurrences {
		t.Fatalf("max occurrences got %d, want default", cfg.Recurrence.MaxOccurrences)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenda.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLocationEmptyMeansLocal(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location failed: %v", err)
	}
	if loc == nil {
		t.Fatal("expected a location")
	}
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Atlantis"}
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected an error for an unknown zone")
	}
}
