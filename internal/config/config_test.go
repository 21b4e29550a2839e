package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LocalDiskName != "local" {
		t.Errorf("LocalDiskName = %q", cfg.LocalDiskName)
	}
	if !cfg.HumanReadableSize || !cfg.HumanReadableTime {
		t.Error("human readable flags should default on")
	}
	if cfg.FileAnalysis {
		t.Error("file analysis should default off")
	}
	if cfg.URLSigning {
		t.Error("URL signing should default off")
	}
	if cfg.URLSigningUnit != "minutes" || cfg.URLSigningValue != 30 {
		t.Errorf("signing defaults = %s/%d", cfg.URLSigningUnit, cfg.URLSigningValue)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("FILE_ANALYSIS", "true")
	t.Setenv("HUMAN_READABLE_SIZE", "false")
	t.Setenv("URL_SIGNING", "true")
	t.Setenv("URL_SIGNING_SECRET", "sekrit")
	t.Setenv("URL_SIGNING_UNIT", "hours")
	t.Setenv("URL_SIGNING_VALUE", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if !cfg.FileAnalysis {
		t.Error("FileAnalysis should be on")
	}
	if cfg.HumanReadableSize {
		t.Error("HumanReadableSize should be off")
	}
	if cfg.SigningTTL() != 2*time.Hour {
		t.Errorf("SigningTTL = %v, want 2h", cfg.SigningTTL())
	}
}

func TestSigningRequiresSecret(t *testing.T) {
	t.Setenv("URL_SIGNING", "true")
	t.Setenv("URL_SIGNING_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when signing enabled without secret")
	}
}

func TestRejectsBadSigningUnit(t *testing.T) {
	t.Setenv("URL_SIGNING_UNIT", "fortnights")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown signing unit")
	}
}

func TestSigningTTLUnits(t *testing.T) {
	tests := []struct {
		unit  string
		value int
		want  time.Duration
	}{
		{"seconds", 45, 45 * time.Second},
		{"minutes", 30, 30 * time.Minute},
		{"hours", 2, 2 * time.Hour},
		{"days", 1, 24 * time.Hour},
	}

	for _, tt := range tests {
		cfg := &Config{URLSigningUnit: tt.unit, URLSigningValue: tt.value}
		if got := cfg.SigningTTL(); got != tt.want {
			t.Errorf("SigningTTL(%d %s) = %v, want %v", tt.value, tt.unit, got, tt.want)
		}
	}
}
