// scenetool is a CLI utility for inspecting and playing back glTF scenes.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/gltf-scene/internal/assets"
	"github.com/Faultbox/gltf-scene/internal/config"
	"github.com/Faultbox/gltf-scene/internal/logger"
	"github.com/Faultbox/gltf-scene/pkg/scene"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	if command == "help" {
		printUsage()
		return
	}

	path := cfg.Scene.Path
	if len(args) > 1 {
		path = args[1]
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "Usage: scenetool %s <file.gltf|file.glb>\n", command)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.loader.Close()

	switch command {
	case "info":
		err = a.cmdInfo(path)
	case "play":
		err = a.cmdPlay(path)
	case "bounds":
		err = a.cmdBounds(path)
	case "watch":
		err = a.cmdWatch(path)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - glTF scene inspection and playback

Usage:
  scenetool [flags] <command> [file]

Commands:
  info <file>     Show table counts, scenes, animations and lights
  play <file>     Simulate animation playback and print the final pose
  bounds <file>   Show primitive bounding centers and radii
  watch <file>    Reload the scene whenever it or its buffers change

The file defaults to scene.path from the config.

Flags:
  -config <path>  Config file (default: ./scenetool.yaml)
  -debug          Enable debug logging
  -scene <n>      Scene to transform
  -anim <n>       Animation to play (-1 for none)
  -speed <x>      Playback speed multiplier
  -frames <n>     Frames to simulate
  -fps <n>        Simulated frame rate
  -no-cache       Disable the asset cache

Examples:
  scenetool info models/fox.glb
  scenetool -anim 2 -frames 240 play models/fox.glb
  scenetool -debug watch scene.gltf`)
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	loader *assets.Loader
}

func newApp(cfg *config.Config) (*app, error) {
	loader := assets.NewLoader(cfg.Assets.Cache, logger.Component("assets"))
	for _, root := range cfg.Assets.Roots {
		if err := loader.AddRoot(root); err != nil {
			return nil, err
		}
	}
	return &app{cfg: cfg, loader: loader}, nil
}

func (a *app) open(path string) (*scene.Document, error) {
	doc, err := scene.LoadFile(path,
		scene.WithLoader(a.loader),
		scene.WithLogger(logger.Component("scene")),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("document loaded", zap.String("path", path), zap.Stringer("doc", doc))
	return doc, nil
}

func (a *app) newState(doc *scene.Document) *scene.State {
	l := a.cfg.Lighting
	return scene.NewState(doc,
		scene.WithLighting(scene.LightingConfig{
			SpotNear:              l.SpotNear,
			DefaultFar:            l.DefaultFar,
			DirectionalHalfExtent: l.DirectionalHalfExtent,
		}),
		scene.WithAspectRatio(a.cfg.Camera.AspectRatio),
	)
}

// sceneIndex resolves the configured scene, falling back to the document default.
func (a *app) sceneIndex(doc *scene.Document) (int, error) {
	idx := a.cfg.Scene.Index
	if idx < 0 {
		idx = doc.DefaultScene()
	}
	if idx >= len(doc.Scenes) {
		return 0, fmt.Errorf("scene %d out of range, document has %d", idx, len(doc.Scenes))
	}
	return idx, nil
}
