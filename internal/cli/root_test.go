package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigExplicitInvalidIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("thresholds:\n  hysteresis_margin: 3.0\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configFile = path
	defer func() { configFile = "" }()

	if _, err := loadConfig(); err == nil {
		t.Fatal("invalid --config file should fail, not fall back to defaults")
	}
}

func TestLoadConfigMissingFilesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	projectDir = t.TempDir()
	defer func() { projectDir = "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Thresholds.FallbackConfidence != 0.30 {
		t.Errorf("fallback_confidence = %v, want default", cfg.Thresholds.FallbackConfidence)
	}
}
