package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"filescript/internal/extract"
)

// RuntimeConfig tunes script execution.
type RuntimeConfig struct {
	// TextChunkLines is the page size used when chunking plain-text files.
	TextChunkLines int `yaml:"text_chunk_lines"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Log     LogConfig     `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/filescript/config.yaml.
// If neither exists, it writes defaults to ~/.config/filescript/config.yaml
// and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "filescript", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Runtime: RuntimeConfig{TextChunkLines: extract.DefaultTextChunkLines},
		Log:     LogConfig{Level: "info", Console: false},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Runtime.TextChunkLines <= 0 {
		cfg.Runtime.TextChunkLines = extract.DefaultTextChunkLines
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
