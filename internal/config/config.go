// Package config handles scenetool configuration loading and management.
package config

import "time"

// Config holds all scenetool settings.
type Config struct {
	Scene    SceneConfig    `yaml:"scene"`
	Lighting LightingConfig `yaml:"lighting"`
	Camera   CameraConfig   `yaml:"camera"`
	Assets   AssetsConfig   `yaml:"assets"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SceneConfig selects what to load and how to play it back.
type SceneConfig struct {
	Path      string  `yaml:"path"`      // Document to open when none is given on the command line
	Index     int     `yaml:"index"`     // Scene to transform, -1 for the document default
	Animation int     `yaml:"animation"` // Animation to play, -1 for none
	Speed     float32 `yaml:"speed"`     // Playback speed multiplier
	FrameRate int     `yaml:"frame_rate"`
	Frames    int     `yaml:"frames"` // Frames simulated by "play"
}

// LightingConfig holds light projection settings.
type LightingConfig struct {
	SpotNear              float32 `yaml:"spot_near"`
	DefaultFar            float32 `yaml:"default_far"`
	DirectionalHalfExtent float32 `yaml:"directional_half_extent"`
}

// CameraConfig holds camera settings.
type CameraConfig struct {
	AspectRatio float32 `yaml:"aspect_ratio"` // Used when a camera does not define one
}

// AssetsConfig holds asset lookup settings.
type AssetsConfig struct {
	Roots []string `yaml:"roots"` // Extra directories searched for buffers
	Cache bool     `yaml:"cache"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Index:     -1,
			Animation: 0,
			Speed:     1,
			FrameRate: 60,
			Frames:    120,
		},
		Lighting: LightingConfig{
			SpotNear:              0.1,
			DefaultFar:            100,
			DirectionalHalfExtent: 50,
		},
		Camera: CameraConfig{
			AspectRatio: 16.0 / 9.0,
		},
		Assets: AssetsConfig{
			Cache: true,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// FrameTime returns the simulated time step of one frame in seconds.
func (s SceneConfig) FrameTime() float32 {
	if s.FrameRate <= 0 {
		return 0
	}
	return s.Speed / float32(s.FrameRate)
}
