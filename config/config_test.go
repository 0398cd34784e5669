package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"flightdelay/ml"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Http.Port != 8080 {
		t.Errorf("port = %d, want 8080", c.Http.Port)
	}
	if c.Model.Checkpoint != ml.DefaultCheckpoint {
		t.Errorf("checkpoint = %q", c.Model.Checkpoint)
	}
	if c.DelayThreshold() != 15*time.Minute {
		t.Errorf("threshold = %v", c.DelayThreshold())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
  read_timeout: 5s
log:
  level: debug
model:
  checkpoint: /tmp/model.json
training:
  test_ratio: 0.2
registry:
  path: runs.db
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Http.Port != 9000 || c.Http.ReadTimeout != 5*time.Second {
		t.Errorf("http section not applied: %+v", c.Http)
	}
	if c.Http.WriteTimeout != 30*time.Second {
		t.Errorf("unset field lost its default: %v", c.Http.WriteTimeout)
	}
	if c.Log.Level != "debug" || c.Model.Checkpoint != "/tmp/model.json" || c.Registry.Path != "runs.db" {
		t.Errorf("unexpected config: %+v", c)
	}
	if c.Training.TestRatio != 0.2 || c.Training.Seed != 42 {
		t.Errorf("training section: %+v", c.Training)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "http:\n  port: 70000\n"},
		{"test ratio", "training:\n  test_ratio: 1.5\n"},
		{"syntax", "http: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
