package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("WINCOM_CONFIG_PATH", filepath.Join(t.TempDir(), "config.enc"))

	cfg, err := Load("passphrase")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Options.Keywords) == 0 {
		t.Fatalf("expected default keywords to be seeded")
	}
	if cfg.Options.RefreshSeconds <= 0 {
		t.Fatalf("expected positive default refresh interval")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("WINCOM_CONFIG_PATH", filepath.Join(t.TempDir(), "config.enc"))

	saved := &Config{Options: Options{
		Keywords:        []string{"fen", "fenster"},
		RefreshSeconds:  5,
		IncludeMinimize: true,
		MaxResults:      25,
	}}
	if err := Save(saved, "passphrase"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load("passphrase")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(loaded.Options.Keywords) != 2 || loaded.Options.Keywords[0] != "fen" {
		t.Fatalf("unexpected keywords: %#v", loaded.Options.Keywords)
	}
	if loaded.Options.MaxResults != 25 {
		t.Fatalf("expected MaxResults 25, got %d", loaded.Options.MaxResults)
	}
}

func TestLoadWrongPassphraseFails(t *testing.T) {
	t.Setenv("WINCOM_CONFIG_PATH", filepath.Join(t.TempDir(), "config.enc"))

	if err := Save(&Config{Options: DefaultOptions()}, "correct"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := Load("wrong"); err == nil {
		t.Fatalf("expected decryption failure with wrong passphrase")
	}
}

func TestLoadRequiresPassphrase(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty passphrase")
	}
}

func TestNormalizeBackfillsInvalidValues(t *testing.T) {
	opts := Options{RefreshSeconds: -3, MaxResults: -1}
	opts.Normalize()
	if opts.RefreshSeconds <= 0 {
		t.Fatalf("expected refresh interval backfill, got %d", opts.RefreshSeconds)
	}
	if opts.MaxResults != 0 {
		t.Fatalf("expected MaxResults clamp to 0, got %d", opts.MaxResults)
	}
	if len(opts.Keywords) == 0 {
		t.Fatalf("expected keyword backfill")
	}
}
