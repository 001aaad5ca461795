package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked for in the working directory.
const DefaultFile = "bookkeep.yaml"

// Config represents the top-level bookkeep.yaml configuration.
type Config struct {
	Dirs   DirsConfig   `yaml:"dirs"`
	Vault  VaultConfig  `yaml:"vault"`
	Limits LimitsConfig `yaml:"limits"`
	// RulesFile points to an optional parsing ruleset that overrides the
	// built-in tables.
	RulesFile string `yaml:"rules_file,omitempty"`
}

// DirsConfig names the statement input and CSV output directories.
type DirsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// VaultConfig locates the password store and its key file.
type VaultConfig struct {
	Store string `yaml:"store"`
	Key   string `yaml:"key"`
}

// LimitsConfig bounds resource use during extraction.
type LimitsConfig struct {
	// MaxTextBytes caps recovered text per document; 0 uses the built-in
	// limit.
	MaxTextBytes int `yaml:"max_text_bytes,omitempty"`
}

// Load reads a bookkeep.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Dirs: DirsConfig{
			Input:  "statements",
			Output: "out",
		},
		Vault: VaultConfig{
			Store: "vault.json",
			Key:   "vault.key",
		},
	}
}
