package anim

import (
	"sort"

	"github.com/Faultbox/gltf-scene/pkg/math"
)

// TRS is a decomposed local transform. Rotation is kept as a matrix so a node
// whose static rotation came from a glTF matrix can still be animated.
type TRS struct {
	Translation math.Vec3
	Rotation    math.Mat4
	Scale       math.Vec3
}

// Matrix composes translation * rotation * scale.
func (t TRS) Matrix() math.Mat4 {
	return math.Compose(t.Translation, t.Rotation, t.Scale)
}

// Channel holds the keyframe tracks that drive one node. Any track may be nil.
type Channel struct {
	Translation *Sampler
	Rotation    *Sampler
	Scale       *Sampler
}

// Set attaches s to the given path, replacing any previous track.
func (c *Channel) Set(path Path, s *Sampler) {
	switch path {
	case Translation:
		c.Translation = s
	case Rotation:
		c.Rotation = s
	case Scale:
		c.Scale = s
	}
}

// Sample returns the channel's TRS at t. Paths with no track keep base.
func (c *Channel) Sample(t, duration float32, base TRS) TRS {
	out := base
	if c.Translation != nil {
		out.Translation = c.Translation.Vec3(t, duration)
	}
	if c.Rotation != nil {
		out.Rotation = c.Rotation.Quat(t, duration).ToMat4()
	}
	if c.Scale != nil {
		out.Scale = c.Scale.Vec3(t, duration)
	}
	return out
}

// Local returns the animated local matrix at t.
func (c *Channel) Local(t, duration float32, base TRS) math.Mat4 {
	return c.Sample(t, duration, base).Matrix()
}

// Animation groups channels by target node index.
type Animation struct {
	Name     string
	Channels map[int]*Channel
	Duration float32
}

// NewAnimation creates an empty animation.
func NewAnimation(name string) *Animation {
	return &Animation{
		Name:     name,
		Channels: make(map[int]*Channel),
	}
}

// Channel returns the channel for node, creating it on first use.
func (a *Animation) Channel(node int) *Channel {
	ch, ok := a.Channels[node]
	if !ok {
		ch = &Channel{}
		a.Channels[node] = ch
	}
	return ch
}

// AddSampler attaches s to node's path and extends Duration to cover it.
func (a *Animation) AddSampler(node int, path Path, s *Sampler) {
	a.Channel(node).Set(path, s)
	if last := s.LastTime(); last > a.Duration {
		a.Duration = last
	}
}

// Targets returns the animated node indices in ascending order.
func (a *Animation) Targets() []int {
	nodes := make([]int, 0, len(a.Channels))
	for n := range a.Channels {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	return nodes
}
