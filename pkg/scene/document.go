// Package scene ingests glTF 2.0 documents into flat, index-addressed tables
// and turns them into per-frame world and skinning matrices.
//
// A Document is immutable after load apart from the runtime mutators on
// State. All tables are arenas: nodes, skins and light instances refer to
// each other by integer index, validated once at ingestion.
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltf-scene/pkg/anim"
	"github.com/Faultbox/gltf-scene/pkg/formats"
	"github.com/Faultbox/gltf-scene/pkg/math"
)

// Node is one entry of the scene hierarchy.
type Node struct {
	Index    int
	Name     string
	Children []int
	Parent   Ref

	Mesh   Ref
	Skin   Ref
	Camera Ref
	Light  Ref // Index into Document.Lights

	Translation math.Vec3
	Rotation    math.Mat4
	Scale       math.Vec3
	Quat        math.Quat // Static rotation as authored, identity when given as a matrix
}

// TRS returns the node's static local transform.
func (n *Node) TRS() anim.TRS {
	return anim.TRS{
		Translation: n.Translation,
		Rotation:    n.Rotation,
		Scale:       n.Scale,
	}
}

// Primitive carries the bounding information of one mesh primitive.
type Primitive struct {
	Min       math.Vec3
	Max       math.Vec3
	Center    math.Vec4 // Midpoint of Min/Max, W=1
	RadiusVec math.Vec4 // Max - Center per axis, W=0
}

// Mesh is a named list of primitives.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// Skin binds a set of joint nodes to their inverse-bind matrices.
type Skin struct {
	Name                string
	InverseBindMatrices formats.Accessor // Count is 0 when the document omits it
	Joints              []int
	Skeleton            Ref
}

// InverseBind returns the inverse-bind matrix of joint j. Skins without an
// inverse-bind accessor use identity matrices.
func (s *Skin) InverseBind(j int) math.Mat4 {
	if s.InverseBindMatrices.Count == 0 {
		return math.Identity()
	}
	return s.InverseBindMatrices.Mat4(j)
}

// LightType is the KHR_lights_punctual light type.
type LightType int

const (
	LightUnknown LightType = iota
	LightDirectional
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// ParseLightType maps a KHR_lights_punctual type string.
func ParseLightType(s string) LightType {
	switch s {
	case "directional":
		return LightDirectional
	case "point":
		return LightPoint
	case "spot":
		return LightSpot
	default:
		return LightUnknown
	}
}

// Light is a document light definition.
type Light struct {
	Name           string
	Type           LightType
	Color          math.Vec3
	Intensity      float32
	Range          float32 // 0 means unlimited
	InnerConeAngle float32
	OuterConeAngle float32
}

// LightInstance places a typed light at a node.
type LightInstance struct {
	Light int
	Node  int
}

// Projection selects the camera projection kind.
type Projection int

const (
	ProjectionPerspective Projection = iota
	ProjectionOrthographic
)

func (p Projection) String() string {
	if p == ProjectionOrthographic {
		return "orthographic"
	}
	return "perspective"
}

// Camera is a static camera definition.
type Camera struct {
	Name        string
	Node        Ref // Owning node, the last one when several reference it
	Projection  Projection
	YFov        float32
	AspectRatio float32 // 0 when the document leaves it to the viewport
	XMag        float32
	YMag        float32
	ZNear       float32
	ZFar        float32 // 0 means infinite for perspective cameras
}

// Scene lists the root nodes of one scene.
type Scene struct {
	Name  string
	Nodes []int
}

// Document holds every table produced by ingestion.
type Document struct {
	Path string
	// Files lists the external buffer files read during ingestion.
	Files []string

	Buffers        [][]byte
	Nodes          []Node
	Meshes         []Mesh
	Skins          []Skin
	Cameras        []Camera
	Lights         []Light
	LightInstances []LightInstance
	Scenes         []Scene
	Animations     []*anim.Animation
	Scene          Ref

	log *zap.Logger
}

// DefaultScene returns the document's default scene index, or 0.
func (d *Document) DefaultScene() int {
	return d.Scene.Or(0)
}

// Close releases the buffers and clears all tables.
func (d *Document) Close() {
	d.Buffers = nil
	d.Files = nil
	d.Nodes = nil
	d.Meshes = nil
	d.Skins = nil
	d.Cameras = nil
	d.Lights = nil
	d.LightInstances = nil
	d.Scenes = nil
	d.Animations = nil
	d.Scene = None
}

// FindNode returns the index of the first node with the given name.
func (d *Document) FindNode(name string) (int, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// AnimationByName returns the index of the first animation with the given name.
func (d *Document) AnimationByName(name string) (int, bool) {
	for i, a := range d.Animations {
		if a.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (d *Document) String() string {
	return fmt.Sprintf("scene.Document{nodes: %d, meshes: %d, skins: %d, cameras: %d, lights: %d/%d, scenes: %d, animations: %d}",
		len(d.Nodes), len(d.Meshes), len(d.Skins), len(d.Cameras),
		len(d.LightInstances), len(d.Lights), len(d.Scenes), len(d.Animations))
}
