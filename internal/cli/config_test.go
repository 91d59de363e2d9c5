package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	appDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadConfigAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := LoadConfig()
	if cfg == nil {
		t.Fatal("LoadConfig() returned nil")
	}
	if cfg.Render.Width != 0 || cfg.Serve.Addr != "" {
		t.Errorf("absent config should be zero-valued: %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	writeConfig(t, `
[render]
width = 1280
height = 720
fps = 24
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"

[serve]
addr = ":9090"
redis_addr = "localhost:6379"
`)

	cfg := LoadConfig()
	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 || cfg.Render.FPS != 24 {
		t.Errorf("render config not applied: %+v", cfg.Render)
	}
	if cfg.Render.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg path = %q", cfg.Render.FFmpeg)
	}
	if cfg.Serve.Addr != ":9090" || cfg.Serve.RedisAddr != "localhost:6379" {
		t.Errorf("serve config not applied: %+v", cfg.Serve)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	writeConfig(t, `[render
width = "not an int"`)

	cfg := LoadConfig()
	if cfg == nil {
		t.Fatal("malformed config should still return defaults")
	}
	if cfg.Render.Width != 0 {
		t.Errorf("malformed config should be discarded: %+v", cfg)
	}
}
