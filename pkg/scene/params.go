package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/gltf-scene/pkg/math"
)

// forward is the glTF view axis of cameras and lights in node space.
var forward = math.Vec3{Z: -1}

// LightParams is the per-instance light block handed to a renderer.
type LightParams struct {
	Instance  int
	Node      int
	Type      LightType
	Color     math.Vec3
	Intensity float32
	Range     float32

	Position  math.Vec3 // World translation of the node
	Direction math.Vec3 // World -Z of the node, normalized

	InnerConeCos float32
	OuterConeCos float32

	View       math.Mat4
	Projection math.Mat4 // Identity for point lights
	ViewProj   math.Mat4
}

// CameraParams is the camera block handed to a renderer.
type CameraParams struct {
	Index      int
	Eye        math.Vec3
	Forward    math.Vec3
	View       math.Mat4
	Projection math.Mat4
	ViewProj   math.Mat4
	Yaw        float32 // Radians around +Y, 0 looking down -Z
	Pitch      float32 // Radians above the horizon
	Near       float32
	Far        float32 // 0 for an infinite perspective
}

// UpdatePerFrameLights rebuilds the light block from the current snapshot.
// Instances whose light type is unknown never exist, so the block length is
// the number of typed light instances.
func (s *State) UpdatePerFrameLights() ([]LightParams, error) {
	if s.frameStale {
		return nil, ErrStaleFrame
	}

	world := s.frames[s.cur].World
	s.lights = s.lights[:0]
	for i, inst := range s.doc.LightInstances {
		light := s.doc.Lights[inst.Light]
		w := world[inst.Node]

		p := LightParams{
			Instance:     i,
			Node:         inst.Node,
			Type:         light.Type,
			Color:        light.Color,
			Intensity:    light.Intensity,
			Range:        light.Range,
			Position:     w.Translation(),
			Direction:    w.TransformDirection(forward).Normalize(),
			InnerConeCos: math32.Cos(light.InnerConeAngle),
			OuterConeCos: math32.Cos(light.OuterConeAngle),
			View:         w.Inverse(),
			Projection:   math.Identity(),
		}

		switch light.Type {
		case LightSpot:
			far := light.Range
			if far <= 0 {
				far = s.lighting.DefaultFar
			}
			p.Projection = math.Perspective(2*light.OuterConeAngle, 1, s.lighting.SpotNear, far)
			p.ViewProj = p.Projection.Mul(p.View)
		case LightDirectional:
			h := s.lighting.DirectionalHalfExtent
			p.Projection = math.Ortho(-h, h, -h, h, -h, h)
			p.ViewProj = p.Projection.Mul(p.View)
		default:
			p.ViewProj = math.Identity()
		}

		s.lights = append(s.lights, p)
	}

	s.lightsStale = false
	return s.lights, nil
}

// Lights returns the block built by the last UpdatePerFrameLights. The slice
// is reused on the next update.
func (s *State) Lights() ([]LightParams, error) {
	if s.frameStale || s.lightsStale {
		return nil, ErrStaleFrame
	}
	return s.lights, nil
}

// Camera builds the parameter block of camera i from its node's current
// world matrix. A camera no node references sits at the origin.
func (s *State) Camera(i int) (CameraParams, error) {
	if i < 0 || i >= len(s.doc.Cameras) {
		return CameraParams{}, outOfRange("camera", i, len(s.doc.Cameras))
	}
	if s.frameStale {
		return CameraParams{}, ErrStaleFrame
	}

	cam := s.doc.Cameras[i]
	w := math.Identity()
	if n, ok := cam.Node.Get(); ok {
		w = s.frames[s.cur].World[n]
	}

	fwd := w.TransformDirection(forward).Normalize()
	p := CameraParams{
		Index:   i,
		Eye:     w.Translation(),
		Forward: fwd,
		View:    w.Inverse(),
		Yaw:     math32.Atan2(-fwd.X, -fwd.Z),
		Pitch:   math32.Asin(clamp(fwd.Y, -1, 1)),
		Near:    cam.ZNear,
		Far:     cam.ZFar,
	}

	switch cam.Projection {
	case ProjectionOrthographic:
		p.Projection = math.Ortho(-cam.XMag, cam.XMag, -cam.YMag, cam.YMag, cam.ZNear, cam.ZFar)
	default:
		aspect := cam.AspectRatio
		if aspect <= 0 {
			aspect = s.aspect
		}
		if cam.ZFar > 0 {
			p.Projection = math.Perspective(cam.YFov, aspect, cam.ZNear, cam.ZFar)
		} else {
			p.Projection = math.InfinitePerspective(cam.YFov, aspect, cam.ZNear)
		}
	}
	p.ViewProj = p.Projection.Mul(p.View)
	return p, nil
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
