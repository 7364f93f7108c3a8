package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file was not created: %v", err)
	}

	cfg := m.Get()
	if cfg.Resolve.VisitBudget != 10 {
		t.Errorf("VisitBudget = %d, want 10", cfg.Resolve.VisitBudget)
	}
	if cfg.Cache.Backend != "snapshot" {
		t.Errorf("Backend = %q, want snapshot", cfg.Cache.Backend)
	}
	if m.ParseError() != nil {
		t.Errorf("ParseError = %v", m.ParseError())
	}
}

func TestLoadFrom_ReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "cache": {"backend": "sqlite", "expireDays": 7},
  "resolve": {"visitBudget": 4, "batchSize": 2},
  "logging": {"level": "debug", "format": "json"}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	cfg := m.Get()
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.ExpireDays != 7 {
		t.Errorf("cache section wrong: %+v", cfg.Cache)
	}
	if cfg.Resolve.VisitBudget != 4 || cfg.Resolve.BatchSize != 2 {
		t.Errorf("resolve section wrong: %+v", cfg.Resolve)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging section wrong: %+v", cfg.Logging)
	}
}

func TestLoadFrom_MalformedRunsOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatalf("malformed config must not fail the load: %v", err)
	}
	if m.ParseError() == nil {
		t.Error("ParseError not recorded")
	}
	if got := m.Get().Resolve.VisitBudget; got != 10 {
		t.Errorf("defaults not applied, VisitBudget = %d", got)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatal(err)
	}
	m.config.Resolve.BatchSize = 9
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := NewManager()
	if err := m2.LoadFrom(path); err != nil {
		t.Fatal(err)
	}
	if got := m2.Get().Resolve.BatchSize; got != 9 {
		t.Errorf("BatchSize after reload = %d, want 9", got)
	}
}
