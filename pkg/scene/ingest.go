package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/gltf-scene/pkg/anim"
	"github.com/Faultbox/gltf-scene/pkg/formats"
	"github.com/Faultbox/gltf-scene/pkg/math"
)

// LoadFile reads a .gltf or .glb document and everything it references.
// External buffers are resolved relative to the document's directory.
func LoadFile(path string, opts ...Option) (*Document, error) {
	o := newOptions(opts)

	data, resolved, err := load(o.loader, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentOpen, path, err)
	}

	doc, err := decode(data, filepath.Dir(resolved), o)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	doc.Path = resolved
	return doc, nil
}

// Decode ingests an in-memory glTF JSON or GLB document. dir is the base
// directory for relative buffer URIs.
func Decode(data []byte, dir string, opts ...Option) (*Document, error) {
	return decode(data, dir, newOptions(opts))
}

func decode(data []byte, dir string, o *options) (*Document, error) {
	jsonChunk := data
	var bin []byte
	if formats.IsGLB(data) {
		var err error
		jsonChunk, bin, err = formats.SplitGLB(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocumentOpen, err)
		}
	}

	src := new(gltf.Document)
	if err := json.Unmarshal(jsonChunk, src); err != nil {
		return nil, fmt.Errorf("%w: parsing json: %w", ErrDocumentOpen, err)
	}

	in := &ingestor{
		src:  src,
		dir:  dir,
		bin:  bin,
		opts: o,
		doc:  &Document{log: o.log},
	}
	if err := in.run(); err != nil {
		return nil, err
	}
	return in.doc, nil
}

// ingestor walks the parsed document once, filling the flat tables.
type ingestor struct {
	src  *gltf.Document
	dir  string
	bin  []byte
	opts *options
	doc  *Document
}

func (in *ingestor) run() error {
	steps := []func() error{
		in.buffers,
		in.meshes,
		in.lights,
		in.cameras,
		in.nodes,
		in.scenes,
		in.skins,
		in.animations,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := linkHierarchy(in.doc.Nodes); err != nil {
		return err
	}

	in.doc.Scene = optional(in.src.Scene)
	if s, ok := in.doc.Scene.Get(); ok && (s < 0 || s >= len(in.doc.Scenes)) {
		return malformed("default scene %d of %d", s, len(in.doc.Scenes))
	}

	in.opts.log.Debug("scene ingested",
		zap.Int("buffers", len(in.doc.Buffers)),
		zap.Int("nodes", len(in.doc.Nodes)),
		zap.Int("meshes", len(in.doc.Meshes)),
		zap.Int("skins", len(in.doc.Skins)),
		zap.Int("cameras", len(in.doc.Cameras)),
		zap.Int("lights", len(in.doc.Lights)),
		zap.Int("lightInstances", len(in.doc.LightInstances)),
		zap.Int("animations", len(in.doc.Animations)))
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedScene, fmt.Sprintf(format, args...))
}

func checkIndex(what string, i, n int) error {
	if i < 0 || i >= n {
		return malformed("%s %d out of range [0, %d)", what, i, n)
	}
	return nil
}

// accessor resolves index, mapping structural accessor problems to
// ErrMalformedScene. Range overruns keep ErrAccessorOutOfRange.
func (in *ingestor) accessor(index int, what string) (formats.Accessor, error) {
	acc, err := formats.Resolve(in.src, in.doc.Buffers, index)
	switch {
	case errors.Is(err, formats.ErrMalformedAccessor):
		return acc, fmt.Errorf("%w: %s: %w", ErrMalformedScene, what, err)
	case err != nil:
		return acc, fmt.Errorf("%s: %w", what, err)
	}
	return acc, nil
}

func (in *ingestor) buffers() error {
	in.doc.Buffers = make([][]byte, 0, len(in.src.Buffers))
	for i, b := range in.src.Buffers {
		data, err := in.loadBuffer(i, b)
		if err != nil {
			return fmt.Errorf("%w: buffer %d: %w", ErrBufferLoad, i, err)
		}
		if len(data) < int(b.ByteLength) {
			return fmt.Errorf("%w: buffer %d has %d bytes, declares %d", ErrBufferLoad, i, len(data), b.ByteLength)
		}
		in.doc.Buffers = append(in.doc.Buffers, data)
	}
	return nil
}

func (in *ingestor) loadBuffer(i int, b *gltf.Buffer) ([]byte, error) {
	switch {
	case len(b.Data) > 0:
		return b.Data, nil
	case b.URI == "":
		if i == 0 && in.bin != nil {
			return in.bin, nil
		}
		return nil, errors.New("no uri and no binary chunk")
	case formats.IsDataURI(b.URI):
		return formats.DecodeDataURI(b.URI)
	}

	uri, err := url.PathUnescape(b.URI)
	if err != nil {
		return nil, fmt.Errorf("bad uri %q: %w", b.URI, err)
	}
	data, resolved, err := load(in.opts.loader, filepath.Join(in.dir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, err
	}
	in.doc.Files = append(in.doc.Files, resolved)
	return data, nil
}

func (in *ingestor) meshes() error {
	in.doc.Meshes = make([]Mesh, len(in.src.Meshes))
	for i, m := range in.src.Meshes {
		mesh := Mesh{Name: m.Name, Primitives: make([]Primitive, 0, len(m.Primitives))}
		for _, p := range m.Primitives {
			var prim Primitive
			if pos, ok := p.Attributes[gltf.POSITION]; ok {
				idx := int(pos)
				if err := checkIndex(fmt.Sprintf("mesh %d POSITION accessor", i), idx, len(in.src.Accessors)); err != nil {
					return err
				}
				acc := in.src.Accessors[idx]
				prim.Min = vec3Of(acc.Min)
				prim.Max = vec3Of(acc.Max)
			}
			center := prim.Min.Add(prim.Max).Scale(0.5)
			prim.Center = center.Vec4(1)
			prim.RadiusVec = prim.Max.Sub(center).Vec4(0)
			mesh.Primitives = append(mesh.Primitives, prim)
		}
		in.doc.Meshes[i] = mesh
	}
	return nil
}

func (in *ingestor) cameras() error {
	in.doc.Cameras = make([]Camera, len(in.src.Cameras))
	for i, c := range in.src.Cameras {
		cam := Camera{Name: c.Name}
		switch {
		case c.Perspective != nil:
			p := c.Perspective
			cam.Projection = ProjectionPerspective
			cam.YFov = float32(p.Yfov)
			cam.ZNear = float32(p.Znear)
			if p.Zfar != nil {
				cam.ZFar = float32(*p.Zfar)
			}
			if p.AspectRatio != nil {
				cam.AspectRatio = float32(*p.AspectRatio)
			}
		case c.Orthographic != nil:
			o := c.Orthographic
			cam.Projection = ProjectionOrthographic
			cam.XMag = float32(o.Xmag)
			cam.YMag = float32(o.Ymag)
			cam.ZNear = float32(o.Znear)
			cam.ZFar = float32(o.Zfar)
		default:
			return malformed("camera %d has no projection", i)
		}
		in.doc.Cameras[i] = cam
	}
	return nil
}

func (in *ingestor) nodes() error {
	doc := in.doc
	doc.Nodes = make([]Node, len(in.src.Nodes))

	for i, n := range in.src.Nodes {
		node := Node{
			Index:  i,
			Name:   n.Name,
			Mesh:   optional(n.Mesh),
			Skin:   optional(n.Skin),
			Camera: optional(n.Camera),
		}
		for _, c := range n.Children {
			node.Children = append(node.Children, int(c))
		}

		if m, ok := node.Mesh.Get(); ok {
			if err := checkIndex(fmt.Sprintf("node %d mesh", i), m, len(in.src.Meshes)); err != nil {
				return err
			}
		}
		if s, ok := node.Skin.Get(); ok {
			if err := checkIndex(fmt.Sprintf("node %d skin", i), s, len(in.src.Skins)); err != nil {
				return err
			}
		}

		setTRS(&node, n)

		if c, ok := node.Camera.Get(); ok {
			if err := checkIndex(fmt.Sprintf("node %d camera", i), c, len(doc.Cameras)); err != nil {
				return err
			}
			if prev, ok := doc.Cameras[c].Node.Get(); ok {
				in.opts.log.Debug("camera referenced by several nodes",
					zap.Int("camera", c), zap.Int("previous", prev), zap.Int("node", i))
			}
			doc.Cameras[c].Node = Some(i)
		}

		var ext nodeLightExt
		found, err := extension(n.Extensions, extLightsPunctual, &ext)
		if err != nil {
			return malformed("node %d: %v", i, err)
		}
		if found && ext.Light != nil {
			l := *ext.Light
			if err := checkIndex(fmt.Sprintf("node %d light", i), l, len(doc.Lights)); err != nil {
				return err
			}
			node.Light = Some(l)
			if doc.Lights[l].Type != LightUnknown {
				doc.LightInstances = append(doc.LightInstances, LightInstance{Light: l, Node: i})
			}
		}

		doc.Nodes[i] = node
	}
	return nil
}

// setTRS fills the static transform. An authored non-identity quaternion
// wins; otherwise a non-identity matrix becomes the rotation and carries the
// whole local transform.
func setTRS(node *Node, n *gltf.Node) {
	t, sc := n.TranslationOrDefault(), n.ScaleOrDefault()
	node.Translation = vec3Of(t[:])
	node.Scale = vec3Of(sc[:])

	r := n.RotationOrDefault()
	node.Quat = math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	node.Rotation = math.Identity()

	var mat math.Mat4
	for k, v := range n.MatrixOrDefault() {
		mat[k] = float32(v)
	}

	switch {
	case node.Quat != math.QuatIdentity():
		node.Rotation = node.Quat.ToMat4()
	case !mat.IsIdentity():
		node.Rotation = mat
		node.Translation = math.Vec3{}
		node.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
	}
}

func vec3Of[E ~float32 | ~float64](v []E) math.Vec3 {
	var out [3]float32
	for i := 0; i < len(v) && i < 3; i++ {
		out[i] = float32(v[i])
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}
}

func (in *ingestor) scenes() error {
	in.doc.Scenes = make([]Scene, len(in.src.Scenes))
	for i, s := range in.src.Scenes {
		sc := Scene{Name: s.Name, Nodes: make([]int, 0, len(s.Nodes))}
		for _, n := range s.Nodes {
			if err := checkIndex(fmt.Sprintf("scene %d node", i), int(n), len(in.doc.Nodes)); err != nil {
				return err
			}
			sc.Nodes = append(sc.Nodes, int(n))
		}
		in.doc.Scenes[i] = sc
	}
	return nil
}

func (in *ingestor) skins() error {
	in.doc.Skins = make([]Skin, len(in.src.Skins))
	for i, s := range in.src.Skins {
		skin := Skin{Name: s.Name, Skeleton: optional(s.Skeleton)}

		for _, j := range s.Joints {
			if err := checkIndex(fmt.Sprintf("skin %d joint", i), int(j), len(in.doc.Nodes)); err != nil {
				return err
			}
			skin.Joints = append(skin.Joints, int(j))
		}
		if root, ok := skin.Skeleton.Get(); ok {
			if err := checkIndex(fmt.Sprintf("skin %d skeleton", i), root, len(in.doc.Nodes)); err != nil {
				return err
			}
		}

		if ibm, ok := optional(s.InverseBindMatrices).Get(); ok {
			acc, err := in.accessor(ibm, fmt.Sprintf("skin %d inverse bind matrices", i))
			if err != nil {
				return err
			}
			if !acc.IsFloat() || acc.Dimension != 16 {
				return malformed("skin %d inverse bind matrices must be float MAT4", i)
			}
			if acc.Count != len(skin.Joints) {
				return malformed("skin %d has %d joints but %d inverse bind matrices", i, len(skin.Joints), acc.Count)
			}
			skin.InverseBindMatrices = acc
		}

		in.doc.Skins[i] = skin
	}
	return nil
}

func (in *ingestor) animations() error {
	in.doc.Animations = make([]*anim.Animation, len(in.src.Animations))
	for i, a := range in.src.Animations {
		out := anim.NewAnimation(a.Name)

		for c, ch := range a.Channels {
			target, ok := optional(ch.Target.Node).Get()
			if !ok {
				continue
			}
			if err := checkIndex(fmt.Sprintf("animation %d channel %d target", i, c), target, len(in.doc.Nodes)); err != nil {
				return err
			}

			var path anim.Path
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				path = anim.Translation
			case gltf.TRSRotation:
				path = anim.Rotation
			case gltf.TRSScale:
				path = anim.Scale
			default:
				// Morph target weights are not animated.
				continue
			}

			si, ok := optional(ch.Sampler).Get()
			if !ok {
				return malformed("animation %d channel %d has no sampler", i, c)
			}
			if err := checkIndex(fmt.Sprintf("animation %d channel %d sampler", i, c), si, len(a.Samplers)); err != nil {
				return err
			}

			s, err := in.sampler(a.Samplers[si], path, fmt.Sprintf("animation %d sampler %d", i, si))
			if err != nil {
				return err
			}
			out.AddSampler(target, path, s)
		}

		in.doc.Animations[i] = out
	}
	return nil
}

func (in *ingestor) sampler(s *gltf.AnimationSampler, path anim.Path, what string) (*anim.Sampler, error) {
	input, ok := optional(s.Input).Get()
	if !ok {
		return nil, malformed("%s has no input", what)
	}
	output, ok := optional(s.Output).Get()
	if !ok {
		return nil, malformed("%s has no output", what)
	}

	times, err := in.accessor(input, what+" input")
	if err != nil {
		return nil, err
	}
	values, err := in.accessor(output, what+" output")
	if err != nil {
		return nil, err
	}

	interp := anim.Linear
	switch s.Interpolation {
	case gltf.InterpolationStep:
		interp = anim.Step
	case gltf.InterpolationCubicSpline:
		interp = anim.CubicSpline
	}

	smp, err := anim.NewSampler(times, values, interp, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedScene, what, err)
	}
	return smp, nil
}
