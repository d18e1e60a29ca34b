// Package anim samples glTF keyframe tracks and turns them into per-node
// local transforms.
package anim

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/gltf-scene/pkg/formats"
	"github.com/Faultbox/gltf-scene/pkg/math"
)

// ErrSamplerMismatch is returned when a keyframe track's accessors disagree.
var ErrSamplerMismatch = errors.New("animation sampler mismatch")

// Interpolation selects how values between two keyframes are computed.
type Interpolation int

const (
	Linear Interpolation = iota
	Step
	CubicSpline
)

// String returns the glTF name of the interpolation mode.
func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "LINEAR"
	case Step:
		return "STEP"
	case CubicSpline:
		return "CUBICSPLINE"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// Path is the node property a sampler drives.
type Path int

const (
	Translation Path = iota
	Rotation
	Scale
)

// String returns the glTF name of the target path.
func (p Path) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// width is the vector dimension the path expects.
func (p Path) width() int {
	if p == Rotation {
		return 4
	}
	return 3
}

// Sampler is a single keyframe track: a float SCALAR timeline and a float
// VEC3 or VEC4 value stream.
type Sampler struct {
	Times         formats.Accessor
	Values        formats.Accessor
	Interpolation Interpolation
}

// NewSampler validates a time/value accessor pair for the given path.
func NewSampler(times, values formats.Accessor, interp Interpolation, path Path) (*Sampler, error) {
	if !times.IsFloat() || times.Dimension != 1 {
		return nil, fmt.Errorf("%w: time accessor must be float SCALAR", ErrSamplerMismatch)
	}
	if !values.IsFloat() || values.Dimension != path.width() {
		return nil, fmt.Errorf("%w: %s values must be float with %d components, got %d",
			ErrSamplerMismatch, path, path.width(), values.Dimension)
	}

	if times.Count == 0 {
		return nil, fmt.Errorf("%w: sampler has no keyframes", ErrSamplerMismatch)
	}

	want := times.Count
	if interp == CubicSpline {
		want *= 3
	}
	if values.Count != want {
		return nil, fmt.Errorf("%w: %d keyframes but %d values (%s)", ErrSamplerMismatch, times.Count, values.Count, interp)
	}

	for i := 1; i < times.Count; i++ {
		if times.Scalar(i) < times.Scalar(i-1) {
			return nil, fmt.Errorf("%w: keyframe %d goes back in time", ErrSamplerMismatch, i)
		}
	}

	return &Sampler{Times: times, Values: values, Interpolation: interp}, nil
}

// Len returns the keyframe count.
func (s *Sampler) Len() int {
	return s.Times.Count
}

// LastTime returns the time of the final keyframe, or 0 for an empty track.
func (s *Sampler) LastTime() float32 {
	if s.Times.Count == 0 {
		return 0
	}
	return s.Times.Scalar(s.Times.Count - 1)
}

// Wrap maps t into [0, duration). Looping is the only playback mode.
func Wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = math32.Mod(t, duration)
	if t < 0 {
		t += duration
	}
	return t
}

// Locate wraps t by duration and finds the bracketing keyframes with a
// linear scan. frac is the interpolation weight from prev to next. Times
// before the first key clamp to it, times past the last key hold the last.
func (s *Sampler) Locate(t, duration float32) (frac float32, prev, next int) {
	n := s.Times.Count
	if n == 0 {
		return 0, 0, 0
	}
	t = Wrap(t, duration)

	if t <= s.Times.Scalar(0) {
		return 0, 0, 0
	}
	for i := 1; i < n; i++ {
		t1 := s.Times.Scalar(i)
		if t < t1 {
			t0 := s.Times.Scalar(i - 1)
			if t1 > t0 {
				frac = (t - t0) / (t1 - t0)
			}
			return frac, i - 1, i
		}
	}
	return 0, n - 1, n - 1
}

// Vec3 evaluates a translation or scale track at t.
func (s *Sampler) Vec3(t, duration float32) math.Vec3 {
	frac, prev, next := s.Locate(t, duration)

	switch s.Interpolation {
	case Step:
		return s.Values.Vec3(s.valueIndex(prev))
	case CubicSpline:
		if prev == next {
			return s.Values.Vec3(s.valueIndex(prev))
		}
		dt := s.Times.Scalar(next) - s.Times.Scalar(prev)
		var out math.Vec3
		out.X = s.hermite(prev, next, 0, frac, dt)
		out.Y = s.hermite(prev, next, 1, frac, dt)
		out.Z = s.hermite(prev, next, 2, frac, dt)
		return out
	default:
		a := s.Values.Vec3(prev)
		b := s.Values.Vec3(next)
		return a.Lerp(b, frac)
	}
}

// Quat evaluates a rotation track at t. The result is normalized.
func (s *Sampler) Quat(t, duration float32) math.Quat {
	frac, prev, next := s.Locate(t, duration)

	switch s.Interpolation {
	case Step:
		return s.Values.Quat(s.valueIndex(prev)).Normalize()
	case CubicSpline:
		if prev == next {
			return s.Values.Quat(s.valueIndex(prev)).Normalize()
		}
		dt := s.Times.Scalar(next) - s.Times.Scalar(prev)
		return math.Quat{
			X: s.hermite(prev, next, 0, frac, dt),
			Y: s.hermite(prev, next, 1, frac, dt),
			Z: s.hermite(prev, next, 2, frac, dt),
			W: s.hermite(prev, next, 3, frac, dt),
		}.Normalize()
	default:
		a := s.Values.Quat(prev)
		b := s.Values.Quat(next)
		return a.Slerp(b, frac).Normalize()
	}
}

// valueIndex maps a keyframe to its value element. Cubic spline tracks store
// (in-tangent, value, out-tangent) triplets per keyframe.
func (s *Sampler) valueIndex(key int) int {
	if s.Interpolation == CubicSpline {
		return key*3 + 1
	}
	return key
}

// hermite evaluates component c of the cubic spline segment prev->next.
func (s *Sampler) hermite(prev, next, c int, t, dt float32) float32 {
	v0 := s.Values.Float(prev*3+1, c)
	b0 := s.Values.Float(prev*3+2, c) // out-tangent of prev
	v1 := s.Values.Float(next*3+1, c)
	a1 := s.Values.Float(next*3, c) // in-tangent of next

	t2 := t * t
	t3 := t2 * t
	return (2*t3-3*t2+1)*v0 + (t3-2*t2+t)*dt*b0 + (-2*t3+3*t2)*v1 + (t3-t2)*dt*a1
}
