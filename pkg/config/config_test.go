package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphgen.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
  write_timeout: 45s
log_level: debug
renderer:
  max_concurrent_renders: 2
  timeout_ms: 5000
limits:
  max_body_mb: 8
  allowed_origins: ["http://localhost:3000"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	want.Server.Addr = ":8080"
	want.Server.WriteTimeout = 45 * time.Second
	want.LogLevel = "debug"
	want.Renderer.MaxConcurrentRenders = 2
	want.Renderer.TimeoutMS = 5000
	want.Limits.MaxBodyMB = 8
	want.Limits.AllowedOrigins = []string{"http://localhost:3000"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Level() != log.Debug {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":8080\"\n")
	t.Setenv(EnvAddr, ":9090")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMaxConcurrentRenders, "1")
	t.Setenv(EnvMaxBodyMB, "64")
	t.Setenv(EnvAllowedOrigins, "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Level() != log.Warn {
		t.Errorf("level = %v, want warn", cfg.Level())
	}
	if cfg.Renderer.MaxConcurrentRenders != 1 || cfg.Limits.MaxBodyMB != 64 {
		t.Errorf("renderer/limits = %+v %+v", cfg.Renderer, cfg.Limits)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Limits.AllowedOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		env           map[string]string
		errorContains string
		invalid       bool
	}{
		{
			name:          "unknown field",
			content:       "renderer:\n  workers: 3\n",
			errorContains: "workers",
		},
		{
			name:          "zero workers",
			content:       "renderer:\n  max_concurrent_renders: 0\n",
			errorContains: "max_concurrent_renders",
			invalid:       true,
		},
		{
			name:          "bad log level",
			content:       "log_level: loud\n",
			errorContains: "loud",
			invalid:       true,
		},
		{
			name:          "non numeric env",
			env:           map[string]string{EnvMaxBodyMB: "lots"},
			errorContains: EnvMaxBodyMB,
			invalid:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("error %q does not contain %q", err, tt.errorContains)
			}
			if tt.invalid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v is not ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
