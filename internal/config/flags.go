package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagScene     = flag.Int("scene", -1, "Scene index to transform")
	flagAnimation = flag.Int("anim", -2, "Animation index to play (-1 for none)")
	flagSpeed     = flag.Float64("speed", 0, "Playback speed multiplier")
	flagFrames    = flag.Int("frames", 0, "Number of frames to simulate")
	flagFPS       = flag.Int("fps", 0, "Simulated frame rate")
	flagNoCache   = flag.Bool("no-cache", false, "Disable the asset cache")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene >= 0 {
		cfg.Scene.Index = *flagScene
	}
	if *flagAnimation >= -1 {
		cfg.Scene.Animation = *flagAnimation
	}
	if *flagSpeed > 0 {
		cfg.Scene.Speed = float32(*flagSpeed)
	}
	if *flagFrames > 0 {
		cfg.Scene.Frames = *flagFrames
	}
	if *flagFPS > 0 {
		cfg.Scene.FrameRate = *flagFPS
	}
	if *flagNoCache {
		cfg.Assets.Cache = false
	}
}
