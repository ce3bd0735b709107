// File: internal/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// withTempDirs points config and data lookups at a temp dir
func withTempDirs(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	origConfigDir := getUserConfigDir
	origDataDir := getUserDataDir
	t.Cleanup(func() {
		getUserConfigDir = origConfigDir
		getUserDataDir = origDataDir
	})

	getUserConfigDir = func() (string, error) {
		return filepath.Join(tempDir, "config"), nil
	}
	getUserDataDir = func() (string, error) {
		return filepath.Join(tempDir, "data"), nil
	}

	for _, key := range []string{
		"XSELQ_CONFIG_DIR", "XSELQ_DATA_DIR", "XSELQ_DISPLAY", "XSELQ_SELECTIONS",
		"XSELQ_POLL_ATTEMPTS", "XSELQ_POLL_DELAY_MS", "XSELQ_COLOR",
		"XSELQ_LOG_LEVEL", "XSELQ_HISTORY",
	} {
		t.Setenv(key, "")
	}
	return tempDir
}

func TestLoadDefaults(t *testing.T) {
	tempDir := withTempDirs(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !reflect.DeepEqual(cfg.Selections, []string{"PRIMARY", "SECONDARY", "CLIPBOARD"}) {
		t.Errorf("Expected default selections, got %v", cfg.Selections)
	}
	if cfg.Poll.Attempts != 5 || cfg.Poll.Delay() != 100*time.Millisecond {
		t.Errorf("Expected 5 attempts 100ms apart, got %d / %v", cfg.Poll.Attempts, cfg.Poll.Delay())
	}
	if want := filepath.Join(tempDir, "config", "xselq", "config.yaml"); cfg.SystemPaths.ConfigFile != want {
		t.Errorf("Expected ConfigFile %s, got %s", want, cfg.SystemPaths.ConfigFile)
	}
	if want := filepath.Join(tempDir, "data", "xselq", "history.db"); cfg.History.DBPath != want {
		t.Errorf("Expected DBPath %s, got %s", want, cfg.History.DBPath)
	}

	// loading must not create anything
	if _, err := os.Stat(filepath.Join(tempDir, "config")); !os.IsNotExist(err) {
		t.Errorf("Load() created the config directory")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := withTempDirs(t)
	path := filepath.Join(tempDir, "custom", "config.yaml")

	cfg := DefaultConfig()
	cfg.Display = ":1"
	cfg.Selections = []string{"CLIPBOARD"}
	cfg.Poll = PollConfig{Attempts: 10, DelayMs: 20}
	cfg.Owner.NameFallback = true
	cfg.Log.Level = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	cfg.SystemPaths.ConfigFile = path
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("Loaded config doesn't match saved config. Got %+v, want %+v", loaded, cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	tempDir := withTempDirs(t)
	path := filepath.Join(tempDir, "config.yaml")

	content := "poll:\n  attempts: 2\nowner:\n  name_fallback: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Poll.Attempts != 2 {
		t.Errorf("Expected attempts 2, got %d", cfg.Poll.Attempts)
	}
	if cfg.Poll.DelayMs != 100 {
		t.Errorf("Expected default delay to survive, got %d", cfg.Poll.DelayMs)
	}
	if !cfg.Owner.NameFallback {
		t.Errorf("Expected name_fallback true")
	}
	if len(cfg.Selections) != 3 {
		t.Errorf("Expected default selections, got %v", cfg.Selections)
	}
}

func TestLoadInvalid(t *testing.T) {
	tempDir := withTempDirs(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"Malformed", "poll: [", "failed to parse"},
		{"ZeroAttempts", "poll:\n  attempts: 0\n", "poll.attempts"},
		{"NegativeDelay", "poll:\n  delay_ms: -5\n", "poll.delay_ms"},
		{"BadColor", "output:\n  color: rainbow\n", "output.color"},
		{"BadLogFormat", "log:\n  format: xml\n", "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err == nil {
				err = cfg.Validate()
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load()+Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDoesNotValidate(t *testing.T) {
	tempDir := withTempDirs(t)
	path := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(path, []byte("poll:\n  attempts: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Poll.Attempts != 0 {
		t.Errorf("Expected file value to be kept, got %d", cfg.Poll.Attempts)
	}

	// an override repairs the value before validation
	cfg.Poll.Attempts = 3
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after override failed: %v", err)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	withTempDirs(t)

	t.Setenv("XSELQ_DISPLAY", ":7")
	t.Setenv("XSELQ_SELECTIONS", "CLIPBOARD, PRIMARY")
	t.Setenv("XSELQ_POLL_ATTEMPTS", "9")
	t.Setenv("XSELQ_POLL_DELAY_MS", "250")
	t.Setenv("XSELQ_COLOR", "never")
	t.Setenv("XSELQ_LOG_LEVEL", "debug")
	t.Setenv("XSELQ_HISTORY", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Display != ":7" {
		t.Errorf("Display = %q", cfg.Display)
	}
	if !reflect.DeepEqual(cfg.Selections, []string{"CLIPBOARD", "PRIMARY"}) {
		t.Errorf("Selections = %v", cfg.Selections)
	}
	if cfg.Poll.Attempts != 9 || cfg.Poll.DelayMs != 250 {
		t.Errorf("Poll = %+v", cfg.Poll)
	}
	if cfg.Output.Color != "never" || cfg.Log.Level != "debug" || !cfg.History.Enabled {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvDirs(t *testing.T) {
	tempDir := withTempDirs(t)
	t.Setenv("XSELQ_CONFIG_DIR", filepath.Join(tempDir, "cfg"))
	t.Setenv("XSELQ_DATA_DIR", filepath.Join(tempDir, "dat"))

	paths, err := GetConfigPaths()
	if err != nil {
		t.Fatal(err)
	}
	if paths.ConfigFile != filepath.Join(tempDir, "cfg", "config.yaml") {
		t.Errorf("ConfigFile = %s", paths.ConfigFile)
	}
	if paths.DBFile != filepath.Join(tempDir, "dat", "history.db") {
		t.Errorf("DBFile = %s", paths.DBFile)
	}
}

func TestSplitSelections(t *testing.T) {
	got := SplitSelections("PRIMARY,CLIPBOARD  SECONDARY,,")
	want := []string{"PRIMARY", "CLIPBOARD", "SECONDARY"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSelections() = %v, want %v", got, want)
	}
}
