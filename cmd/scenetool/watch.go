package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/gltf-scene/internal/logger"
	"github.com/Faultbox/gltf-scene/internal/watch"
	"github.com/Faultbox/gltf-scene/pkg/math"
	"github.com/Faultbox/gltf-scene/pkg/scene"
)

func (a *app) cmdWatch(path string) error {
	doc, err := a.open(path)
	if err != nil {
		return err
	}
	defer func() { doc.Close() }()

	w, err := watch.New(a.cfg.Watch.Debounce, logger.Component("watch"))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := track(w, doc); err != nil {
		return err
	}
	fmt.Printf("Watching %s (%d files), Ctrl+C to stop\n", path, len(w.Files()))
	fmt.Println(doc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx, func(changed []string) {
		for _, f := range changed {
			a.loader.Invalidate(f)
		}

		next, err := a.open(path)
		if err != nil {
			logger.Warn("reload failed, keeping previous document", zap.Strings("changed", changed), zap.Error(err))
			return
		}

		if len(next.Scenes) > 0 {
			if err := a.newState(next).TransformScene(next.DefaultScene(), math.Identity()); err != nil {
				logger.Warn("reloaded scene does not transform", zap.Error(err))
				next.Close()
				return
			}
		}

		doc.Close()
		doc = next
		w.Reset()
		if err := track(w, doc); err != nil {
			logger.Warn("re-tracking files failed", zap.Error(err))
		}
		logger.Info("scene reloaded", zap.Strings("changed", changed))
		fmt.Println(doc)
	})
}

func track(w *watch.Watcher, doc *scene.Document) error {
	if err := w.Add(doc.Path); err != nil {
		return err
	}
	for _, f := range doc.Files {
		if err := w.Add(f); err != nil {
			return err
		}
	}
	return nil
}
