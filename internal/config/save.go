package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "scenetool.yaml"))
}

// SaveTo validates the config and writes it to path. Scene and asset paths
// below the file's directory are stored relative to it.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	out := *c
	out.Scene.Path = storedPath(dir, c.Scene.Path)
	out.Assets.Roots = make([]string, len(c.Assets.Roots))
	for i, root := range c.Assets.Roots {
		out.Assets.Roots[i] = storedPath(dir, root)
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func storedPath(dir, path string) string {
	if path == "" || !filepath.IsAbs(path) {
		return path
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
