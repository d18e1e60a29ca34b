package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable consulted before the standard
// config locations.
const EnvConfig = "SCENETOOL_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	return cfg, nil
}

// findConfigFile returns the first existing candidate: $SCENETOOL_CONFIG,
// ./scenetool.yaml, then the user config directory.
func findConfigFile() string {
	var candidates []string
	if env := os.Getenv(EnvConfig); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates,
		"scenetool.yaml",
		filepath.Join(ConfigDir(), "scenetool.yaml"),
	)

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "GLTFScene")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "GLTFScene")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "gltf-scene")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gltf-scene")
	}
}

// loadFromFile merges a YAML file into cfg and validates the result.
// Relative scene and asset paths in the file are taken relative to the
// file's own directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if file.Scene.Path != "" {
		cfg.Scene.Path = relativeTo(dir, file.Scene.Path)
	}
	if file.Assets.Roots != nil {
		cfg.Assets.Roots = make([]string, len(file.Assets.Roots))
		for i, root := range file.Assets.Roots {
			cfg.Assets.Roots[i] = relativeTo(dir, root)
		}
	}
	return cfg.Validate()
}

func relativeTo(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
