package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".intentlens"
	configFileName = "config.yaml"
)

// Loader loads and merges configuration from the global and project files.
type Loader struct {
	globalPath  string
	projectPath string
}

// NewLoader creates a loader rooted at projectDir (cwd when empty).
func NewLoader(projectDir string) (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	return &Loader{
		globalPath:  filepath.Join(homeDir, configDirName, configFileName),
		projectPath: filepath.Join(projectDir, configDirName, configFileName),
	}, nil
}

// Load merges defaults, the global file and the project file, in that order,
// and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{l.globalPath, l.projectPath} {
		layer, err := l.loadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = merge(cfg, layer)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads and validates a single configuration file, merged over
// defaults.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	layer, err := l.loadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg := merge(DefaultConfig(), layer)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// merge overlays override on base; zero values in override keep the base.
func merge(base, override *Config) *Config {
	result := *base
	if override.Version != "" {
		result.Version = override.Version
	}
	if override.Settings.LogLevel != "" {
		result.Settings.LogLevel = override.Settings.LogLevel
	}
	if override.Settings.LogFile != "" {
		result.Settings.LogFile = override.Settings.LogFile
	}
	if override.Thresholds.HysteresisMargin != 0 {
		result.Thresholds.HysteresisMargin = override.Thresholds.HysteresisMargin
	}
	if override.Thresholds.FallbackConfidence != 0 {
		result.Thresholds.FallbackConfidence = override.Thresholds.FallbackConfidence
	}
	if override.Thresholds.HighSalience != 0 {
		result.Thresholds.HighSalience = override.Thresholds.HighSalience
	}
	if len(override.Priority) > 0 {
		result.Priority = append([]string(nil), override.Priority...)
	}
	if len(override.Rules) > 0 {
		merged := make(map[string]RuleSettings, len(result.Rules)+len(override.Rules))
		for id, rs := range result.Rules {
			merged[id] = rs
		}
		for id, rs := range override.Rules {
			merged[id] = rs
		}
		result.Rules = merged
	}
	if len(override.Extractors) > 0 {
		merged := make(map[string]ExtractorFlags, len(result.Extractors)+len(override.Extractors))
		for name, xf := range result.Extractors {
			merged[name] = xf
		}
		for name, xf := range override.Extractors {
			merged[name] = xf
		}
		result.Extractors = merged
	}
	if override.Store.Enabled {
		result.Store.Enabled = true
	}
	if override.Store.Path != "" {
		result.Store.Path = override.Store.Path
	}
	if override.Store.SessionTTL != "" {
		result.Store.SessionTTL = override.Store.SessionTTL
	}
	return &result
}

// GlobalConfigPath returns the path of the global config file.
func (l *Loader) GlobalConfigPath() string { return l.globalPath }

// ProjectConfigPath returns the path of the project config file.
func (l *Loader) ProjectConfigPath() string { return l.projectPath }
