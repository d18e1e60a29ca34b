package scene

import (
	"fmt"

	"github.com/Faultbox/gltf-scene/pkg/anim"
	"github.com/Faultbox/gltf-scene/pkg/math"
)

// LightingConfig controls the projections built for light instances.
type LightingConfig struct {
	SpotNear              float32 // Near plane of spot light frusta
	DefaultFar            float32 // Far plane for spot lights with unlimited range
	DirectionalHalfExtent float32 // Half size of the directional shadow box
}

// DefaultLighting returns the lighting defaults.
func DefaultLighting() LightingConfig {
	return LightingConfig{
		SpotNear:              0.1,
		DefaultFar:            100,
		DirectionalHalfExtent: 50,
	}
}

// StateOption configures a State.
type StateOption func(*State)

// WithLighting overrides the light projection settings.
func WithLighting(cfg LightingConfig) StateOption {
	return func(s *State) {
		s.lighting = cfg
	}
}

// WithAspectRatio sets the aspect ratio used for cameras that do not define one.
func WithAspectRatio(aspect float32) StateOption {
	return func(s *State) {
		if aspect > 0 {
			s.aspect = aspect
		}
	}
}

// State owns the per-frame data of a loaded document: the animated local
// matrices and two world snapshots that swap roles on every TransformScene.
//
// State is not safe for concurrent use. A renderer reading a FrameView on
// another goroutine must synchronize with TransformScene itself. Several
// States may share a Document; nodes added through one are picked up by the
// others on their next TransformScene.
type State struct {
	doc *Document

	base   []anim.TRS
	locals []math.Mat4

	frames [2]Frame
	cur    int

	lights []LightParams

	lighting LightingConfig
	aspect   float32

	// frameStale is set initially and by structural mutations, and cleared
	// by TransformScene.
	frameStale bool
	// lightsStale is cleared by UpdatePerFrameLights.
	lightsStale bool
}

// NewState allocates both snapshots and seeds the animated locals from each
// node's static transform.
func NewState(doc *Document, opts ...StateOption) *State {
	s := &State{
		doc:         doc,
		base:        make([]anim.TRS, len(doc.Nodes)),
		locals:      make([]math.Mat4, len(doc.Nodes)),
		lighting:    DefaultLighting(),
		aspect:      16.0 / 9.0,
		frameStale:  true,
		lightsStale: true,
	}
	for i := range doc.Nodes {
		s.base[i] = doc.Nodes[i].TRS()
		s.locals[i] = s.base[i].Matrix()
	}
	s.frames[0] = newFrame(len(doc.Nodes), doc.Skins)
	s.frames[1] = newFrame(len(doc.Nodes), doc.Skins)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document returns the document this state animates.
func (s *State) Document() *Document {
	return s.doc
}

func outOfRange(what string, i, n int) error {
	return fmt.Errorf("%w: %s %d, have %d", ErrIndexOutOfRange, what, i, n)
}

// SetAnimationTime samples animation a at time t (looping) and rewrites the
// animated local matrix of every node it targets. Other nodes keep their
// current local matrix. Snapshots are untouched until TransformScene.
func (s *State) SetAnimationTime(a int, t float32) error {
	if a < 0 || a >= len(s.doc.Animations) {
		return outOfRange("animation", a, len(s.doc.Animations))
	}
	an := s.doc.Animations[a]
	for node, ch := range an.Channels {
		s.locals[node] = ch.Local(t, an.Duration, s.base[node])
	}
	return nil
}

// ResetPose restores every animated local matrix to the static transform.
func (s *State) ResetPose() {
	for i := range s.base {
		s.locals[i] = s.base[i].Matrix()
	}
}

// Local returns the animated local matrix of node n.
func (s *State) Local(n int) (math.Mat4, error) {
	if n < 0 || n >= len(s.locals) {
		return math.Mat4{}, outOfRange("node", n, len(s.locals))
	}
	return s.locals[n], nil
}

// TransformScene swaps the snapshots and recomputes the current one for
// the given scene, starting from world as the base matrix.
func (s *State) TransformScene(scene int, world math.Mat4) error {
	if scene < 0 || scene >= len(s.doc.Scenes) {
		return outOfRange("scene", scene, len(s.doc.Scenes))
	}

	s.syncNodes()

	s.cur ^= 1
	f := &s.frames[s.cur]
	f.resize(len(s.doc.Nodes), s.doc.Skins)

	propagate(s.doc.Nodes, s.locals, s.doc.Scenes[scene].Nodes, world, f.World)
	resolveSkins(s.doc.Skins, f.World, f.Skins)

	s.frameStale = false
	s.lightsStale = true
	return nil
}

// syncNodes seeds locals for nodes appended to the document since the last
// call, including those added through another State.
func (s *State) syncNodes() {
	for i := len(s.base); i < len(s.doc.Nodes); i++ {
		trs := s.doc.Nodes[i].TRS()
		s.base = append(s.base, trs)
		s.locals = append(s.locals, trs.Matrix())
	}
}

// Current returns the snapshot written by the last TransformScene.
func (s *State) Current() (FrameView, error) {
	if s.frameStale {
		return FrameView{}, ErrStaleFrame
	}
	return FrameView{f: &s.frames[s.cur]}, nil
}

// Previous returns the snapshot of the frame before the current one.
func (s *State) Previous() (FrameView, error) {
	if s.frameStale {
		return FrameView{}, ErrStaleFrame
	}
	return FrameView{f: &s.frames[s.cur^1]}, nil
}

// NodeDesc describes a node injected at runtime. A zero Rotation means
// identity and a nil Scale means (1,1,1).
type NodeDesc struct {
	Name        string
	Parent      Ref // Attach under this node
	Scene       Ref // Or add as a root of this scene
	Translation math.Vec3
	Rotation    math.Quat
	Scale       *math.Vec3
	Mesh        Ref
}

// AddNode appends a node and returns its index. The node is visible in
// frame views after the next TransformScene.
func (s *State) AddNode(desc NodeDesc) (int, error) {
	doc := s.doc
	if p, ok := desc.Parent.Get(); ok && (p < 0 || p >= len(doc.Nodes)) {
		return 0, outOfRange("parent node", p, len(doc.Nodes))
	}
	if sc, ok := desc.Scene.Get(); ok && (sc < 0 || sc >= len(doc.Scenes)) {
		return 0, outOfRange("scene", sc, len(doc.Scenes))
	}
	if m, ok := desc.Mesh.Get(); ok && (m < 0 || m >= len(doc.Meshes)) {
		return 0, outOfRange("mesh", m, len(doc.Meshes))
	}

	rot := desc.Rotation
	if rot == (math.Quat{}) {
		rot = math.QuatIdentity()
	}
	scale := math.Vec3{X: 1, Y: 1, Z: 1}
	if desc.Scale != nil {
		scale = *desc.Scale
	}

	idx := len(doc.Nodes)
	node := Node{
		Index:       idx,
		Name:        desc.Name,
		Mesh:        desc.Mesh,
		Translation: desc.Translation,
		Quat:        rot,
		Rotation:    rot.ToMat4(),
		Scale:       scale,
	}

	if p, ok := desc.Parent.Get(); ok {
		node.Parent = Some(p)
		doc.Nodes[p].Children = append(doc.Nodes[p].Children, idx)
	} else if sc, ok := desc.Scene.Get(); ok {
		doc.Scenes[sc].Nodes = append(doc.Scenes[sc].Nodes, idx)
	}

	doc.Nodes = append(doc.Nodes, node)
	s.syncNodes()
	s.frameStale = true
	return idx, nil
}

// AddLight appends a light definition and an instance of it at node. It
// returns the instance index. Lights reports ErrStaleFrame until the next
// UpdatePerFrameLights.
func (s *State) AddLight(light Light, node int) (int, error) {
	doc := s.doc
	if node < 0 || node >= len(doc.Nodes) {
		return 0, outOfRange("node", node, len(doc.Nodes))
	}
	if light.Type == LightUnknown {
		return 0, fmt.Errorf("%w: light %q has no type", ErrMalformedScene, light.Name)
	}

	doc.Lights = append(doc.Lights, light)
	doc.Nodes[node].Light = Some(len(doc.Lights) - 1)
	doc.LightInstances = append(doc.LightInstances, LightInstance{Light: len(doc.Lights) - 1, Node: node})

	s.lightsStale = true
	return len(doc.LightInstances) - 1, nil
}

// UpdateLightInstanceNode moves light instance inst to node.
func (s *State) UpdateLightInstanceNode(inst, node int) error {
	doc := s.doc
	if inst < 0 || inst >= len(doc.LightInstances) {
		return outOfRange("light instance", inst, len(doc.LightInstances))
	}
	if node < 0 || node >= len(doc.Nodes) {
		return outOfRange("node", node, len(doc.Nodes))
	}
	doc.LightInstances[inst].Node = node
	s.lightsStale = true
	return nil
}

// FrameView is a read-only view of one snapshot.
type FrameView struct {
	f *Frame
}

// NodeCount returns the number of world matrices in the snapshot.
func (v FrameView) NodeCount() int {
	return len(v.f.World)
}

// SkinCount returns the number of skins in the snapshot.
func (v FrameView) SkinCount() int {
	return len(v.f.Skins)
}

// World returns the world matrix of node n.
func (v FrameView) World(n int) (math.Mat4, error) {
	if n < 0 || n >= len(v.f.World) {
		return math.Mat4{}, outOfRange("node", n, len(v.f.World))
	}
	return v.f.World[n], nil
}

// Joint returns skinning matrix j of skin s.
func (v FrameView) Joint(s, j int) (math.Mat4, error) {
	if s < 0 || s >= len(v.f.Skins) {
		return math.Mat4{}, outOfRange("skin", s, len(v.f.Skins))
	}
	if j < 0 || j >= len(v.f.Skins[s]) {
		return math.Mat4{}, outOfRange("joint", j, len(v.f.Skins[s]))
	}
	return v.f.Skins[s][j], nil
}

// CopyWorld appends all world matrices to dst.
func (v FrameView) CopyWorld(dst []math.Mat4) []math.Mat4 {
	return append(dst, v.f.World...)
}

// CopySkin appends the skinning matrices of skin s to dst.
func (v FrameView) CopySkin(s int, dst []math.Mat4) ([]math.Mat4, error) {
	if s < 0 || s >= len(v.f.Skins) {
		return dst, outOfRange("skin", s, len(v.f.Skins))
	}
	return append(dst, v.f.Skins[s]...), nil
}
