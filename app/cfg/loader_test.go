package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Concurrency != 20 {
		t.Errorf("Expected concurrency 20, got %d", cfg.Concurrency)
	}
	if cfg.FetchTimeoutDuration() != 8*time.Second {
		t.Errorf("Expected fetch timeout 8s, got %v", cfg.FetchTimeoutDuration())
	}
	if cfg.ProbeTimeoutDuration() != 3*time.Second {
		t.Errorf("Expected probe timeout 3s, got %v", cfg.ProbeTimeoutDuration())
	}
	if cfg.CacheTTLDuration() != 300*time.Second {
		t.Errorf("Expected cache TTL 300s, got %v", cfg.CacheTTLDuration())
	}
	if cfg.EntriesPerFeed != 15 {
		t.Errorf("Expected entries per feed 15, got %d", cfg.EntriesPerFeed)
	}
	if cfg.SectionCap != 20 {
		t.Errorf("Expected section cap 20, got %d", cfg.SectionCap)
	}
	if cfg.BreakingWindowDuration() != 2*time.Hour {
		t.Errorf("Expected breaking window 2h, got %v", cfg.BreakingWindowDuration())
	}
	if cfg.SampleSize != 35 {
		t.Errorf("Expected sample size 35, got %d", cfg.SampleSize)
	}
	if Get() != cfg {
		t.Error("Expected Get to return the parsed configuration")
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]string{
		"--concurrency", "4",
		"--cache-ttl", "60",
		"--sample-size", "0",
		"--sources-file", "/tmp/feeds.txt",
		"--warm-schedule", "@every 4m",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.CacheTTL != 60 {
		t.Errorf("Expected cache TTL 60, got %d", cfg.CacheTTL)
	}
	if cfg.SampleSize != 0 {
		t.Errorf("Expected sample size 0, got %d", cfg.SampleSize)
	}
	if cfg.SourcesFile != "/tmp/feeds.txt" {
		t.Errorf("Expected sources file '/tmp/feeds.txt', got '%s'", cfg.SourcesFile)
	}
	if cfg.WarmSchedule != "@every 4m" {
		t.Errorf("Expected warm schedule '@every 4m', got '%s'", cfg.WarmSchedule)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := [][]string{
		{"--concurrency", "0"},
		{"--fetch-timeout", "-1"},
		{"--cache-ttl", "-5"},
		{"--sample-size", "-1"},
		{"--section-cap", "0"},
	}

	for _, args := range tests {
		if _, err := Parse(args); err == nil {
			t.Errorf("Expected error for args %v", args)
		}
	}
}
