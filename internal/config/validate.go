package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks value ranges after loading.
func (c *Config) Validate() error {
	switch {
	case c.Scene.Speed < 0:
		return fmt.Errorf("%w: scene.speed must not be negative, got %v", ErrInvalidConfig, c.Scene.Speed)
	case c.Scene.FrameRate <= 0:
		return fmt.Errorf("%w: scene.frame_rate must be positive, got %d", ErrInvalidConfig, c.Scene.FrameRate)
	case c.Lighting.SpotNear <= 0:
		return fmt.Errorf("%w: lighting.spot_near must be positive, got %v", ErrInvalidConfig, c.Lighting.SpotNear)
	case c.Lighting.DefaultFar <= c.Lighting.SpotNear:
		return fmt.Errorf("%w: lighting.default_far must exceed spot_near", ErrInvalidConfig)
	case c.Lighting.DirectionalHalfExtent <= 0:
		return fmt.Errorf("%w: lighting.directional_half_extent must be positive", ErrInvalidConfig)
	case c.Camera.AspectRatio <= 0:
		return fmt.Errorf("%w: camera.aspect_ratio must be positive, got %v", ErrInvalidConfig, c.Camera.AspectRatio)
	case c.Watch.Debounce < 0:
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	return nil
}
