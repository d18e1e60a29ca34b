package main

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/gltf-scene/internal/logger"
	"github.com/Faultbox/gltf-scene/pkg/math"
	"github.com/Faultbox/gltf-scene/pkg/scene"
)

func fmtVec(v math.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func nodeName(doc *scene.Document, n int) string {
	if name := doc.Nodes[n].Name; name != "" {
		return name
	}
	return fmt.Sprintf("#%d", n)
}

func (a *app) cmdInfo(path string) error {
	doc, err := a.open(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	p := message.NewPrinter(language.English)

	var bufferBytes int
	for _, b := range doc.Buffers {
		bufferBytes += len(b)
	}

	p.Printf("Document: %s\n", path)
	p.Printf("Buffers:  %d (%d bytes)\n", len(doc.Buffers), bufferBytes)
	p.Printf("Nodes:    %d\n", len(doc.Nodes))
	p.Printf("Meshes:   %d\n", len(doc.Meshes))
	p.Printf("Skins:    %d\n", len(doc.Skins))
	p.Printf("Cameras:  %d\n", len(doc.Cameras))
	p.Printf("Lights:   %d placed, %d defined\n", len(doc.LightInstances), len(doc.Lights))
	fmt.Println()

	fmt.Println("Scenes:")
	for i, s := range doc.Scenes {
		marker := " "
		if i == doc.DefaultScene() {
			marker = "*"
		}
		p.Printf(" %s %d %-20s %d roots\n", marker, i, s.Name, len(s.Nodes))
	}

	if len(doc.Animations) > 0 {
		fmt.Println()
		fmt.Println("Animations:")
		for i, an := range doc.Animations {
			p.Printf("  %d %-20s %.3fs, %d nodes\n", i, an.Name, an.Duration, len(an.Channels))
		}
	}

	if len(doc.LightInstances) > 0 {
		fmt.Println()
		fmt.Println("Lights:")
		for i, inst := range doc.LightInstances {
			l := doc.Lights[inst.Light]
			p.Printf("  %d %-12s %-20s at %s, intensity %.2f\n",
				i, l.Type, l.Name, nodeName(doc, inst.Node), l.Intensity)
		}
	}
	return nil
}

func (a *app) cmdPlay(path string) error {
	doc, err := a.open(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	sceneIdx, err := a.sceneIndex(doc)
	if err != nil {
		return err
	}

	animIdx := a.cfg.Scene.Animation
	if animIdx >= len(doc.Animations) {
		if len(doc.Animations) > 0 || animIdx > 0 {
			return fmt.Errorf("animation %d out of range, document has %d", animIdx, len(doc.Animations))
		}
		animIdx = -1
	}

	var targets []int
	if animIdx >= 0 {
		targets = doc.Animations[animIdx].Targets()
	}

	st := a.newState(doc)
	dt := a.cfg.Scene.FrameTime()
	log := logger.Component("play")

	var lights []scene.LightParams
	for f := 0; f < a.cfg.Scene.Frames; f++ {
		t := float32(f) * dt
		if animIdx >= 0 {
			if err := st.SetAnimationTime(animIdx, t); err != nil {
				return err
			}
		}
		if err := st.TransformScene(sceneIdx, math.Identity()); err != nil {
			return err
		}
		if lights, err = st.UpdatePerFrameLights(); err != nil {
			return err
		}

		view, err := st.Current()
		if err != nil {
			return err
		}
		for _, n := range targets {
			w, err := view.World(n)
			if err != nil {
				return err
			}
			log.Debug("node", zap.Int("frame", f), zap.String("node", nodeName(doc, n)),
				zap.String("translation", fmtVec(w.Translation())))
		}
		log.Debug("frame", zap.Int("frame", f), zap.Float32("time", t),
			zap.Int("skins", view.SkinCount()), zap.Int("lights", len(lights)))
	}

	if a.cfg.Scene.Frames == 0 {
		return nil
	}

	view, err := st.Current()
	if err != nil {
		return err
	}

	fmt.Printf("Scene %d after %d frames:\n", sceneIdx, a.cfg.Scene.Frames)
	for _, n := range targets {
		w, _ := view.World(n)
		fmt.Printf("  %-20s %s\n", nodeName(doc, n), fmtVec(w.Translation()))
	}
	for _, l := range lights {
		fmt.Printf("  light %d %-12s pos %s dir %s\n", l.Instance, l.Type, fmtVec(l.Position), fmtVec(l.Direction))
	}
	if len(doc.Cameras) > 0 {
		cam, err := st.Camera(0)
		if err != nil {
			return err
		}
		fmt.Printf("  camera 0 eye %s yaw %.3f pitch %.3f\n", fmtVec(cam.Eye), cam.Yaw, cam.Pitch)
	}
	return nil
}

func (a *app) cmdBounds(path string) error {
	doc, err := a.open(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	for i, m := range doc.Meshes {
		fmt.Printf("Mesh %d %s\n", i, m.Name)
		for j, prim := range m.Primitives {
			fmt.Printf("  %d center %s radius %s\n", j, fmtVec(prim.Center.XYZ()), fmtVec(prim.RadiusVec.XYZ()))
		}
	}
	return nil
}
