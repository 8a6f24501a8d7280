package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `
port: 9090
database:
  type: sqlite
  connectionString: ":memory:"
storage:
  type: redis
  address: "redis:6379"
camera:
  type: mjpeg
  streamUrl: "http://cam.local/stream"
  openAttempts: 50
  attemptInterval: 100ms
  loadTimeout: 10s
capture:
  countdownFrom: 3
  tick: 1s
  pause: 1.5s
thumbnailWidth: 256
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if config.Port != 9090 {
		t.Errorf("port = %d, want 9090", config.Port)
	}
	if config.Camera.StreamURL != "http://cam.local/stream" {
		t.Errorf("stream url = %q", config.Camera.StreamURL)
	}
	if config.Camera.AttemptInterval.Std() != 100*time.Millisecond {
		t.Errorf("attempt interval = %v", config.Camera.AttemptInterval)
	}
	if config.Capture.Pause.Std() != 1500*time.Millisecond {
		t.Errorf("pause = %v", config.Capture.Pause)
	}
	if config.ThumbnailWidth != 256 {
		t.Errorf("thumbnail width = %d", config.ThumbnailWidth)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: fake
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if config.Port != 8080 {
		t.Errorf("default port = %d, want 8080", config.Port)
	}
	if config.Database.Type != "sqlite" || config.Database.ConnectionString != "gobooth.db" {
		t.Errorf("database defaults wrong: %+v", config.Database)
	}
	if config.Storage.Type != "redis" || config.Storage.Address != "localhost:6379" {
		t.Errorf("storage defaults wrong: %+v", config.Storage)
	}
	if config.ThumbnailWidth != 320 {
		t.Errorf("default thumbnail width = %d, want 320", config.ThumbnailWidth)
	}
}

func TestLoadConfig_MJPEGRequiresStreamURL(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: mjpeg
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for mjpeg camera without streamUrl")
	}
}

func TestLoadConfig_UnsupportedCamera(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: v4l2
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unsupported camera type")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "port: [not a number")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}
