package scene

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/gltf-scene/pkg/anim"
	"github.com/Faultbox/gltf-scene/pkg/math"
)

func TestDecodeTables(t *testing.T) {
	doc := loadFixture(t)

	assert.Len(t, doc.Buffers, 1)
	assert.Len(t, doc.Nodes, 7)
	assert.Len(t, doc.Scenes, 2)
	assert.Equal(t, 0, doc.DefaultScene())
	assert.Equal(t, []int{0, 4, 5, 6}, doc.Scenes[0].Nodes)

	root := doc.Nodes[0]
	assert.Equal(t, "root", root.Name)
	assert.Equal(t, []int{1, 3}, root.Children)
	assert.False(t, root.Parent.Valid())
	assert.False(t, root.Mesh.Valid())

	child := doc.Nodes[1]
	p, ok := child.Parent.Get()
	require.True(t, ok)
	assert.Equal(t, 0, p)
	assert.Equal(t, Some(0), child.Mesh)
	assert.Equal(t, Some(0), child.Skin)
	assert.Equal(t, math.Vec3{X: 1}, child.Translation)
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, child.Scale)
	assert.True(t, child.Rotation.IsIdentity())

	i, ok := doc.FindNode("leaf")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	a, ok := doc.AnimationByName("spin")
	assert.True(t, ok)
	assert.Equal(t, 1, a)
}

func TestDecodeMeshBounds(t *testing.T) {
	doc := loadFixture(t)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 1)

	prim := doc.Meshes[0].Primitives[0]
	assert.Equal(t, math.Vec4{0, 0, 0, 1}, prim.Center)
	assert.Equal(t, math.Vec4{1, 2, 3, 0}, prim.RadiusVec)
}

func TestDecodeSkinsAndAnimations(t *testing.T) {
	doc := loadFixture(t)

	require.Len(t, doc.Skins, 1)
	skin := doc.Skins[0]
	assert.Equal(t, []int{1, 2}, skin.Joints)
	assert.True(t, skin.InverseBind(0).IsIdentity())
	assert.Equal(t, math.Translate(-1, 0, 0), skin.InverseBind(1))

	require.Len(t, doc.Animations, 2)
	move := doc.Animations[0]
	assert.Equal(t, "move", move.Name)
	assert.Equal(t, float32(1), move.Duration)
	assert.Equal(t, []int{1}, move.Targets())
	assert.NotNil(t, move.Channels[1].Translation)
	assert.Nil(t, move.Channels[1].Rotation)
	assert.Equal(t, anim.Linear, move.Channels[1].Translation.Interpolation)
}

func TestDecodeLightsAndCameras(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	doc, err := Decode([]byte(fixtureSource()), "", WithLogger(zap.New(core)))
	require.NoError(t, err)

	// The unknown "laser" keeps its slot but gets no instance.
	require.Len(t, doc.Lights, 3)
	assert.Equal(t, LightSpot, doc.Lights[0].Type)
	assert.Equal(t, LightUnknown, doc.Lights[1].Type)
	assert.Equal(t, LightDirectional, doc.Lights[2].Type)
	assert.Equal(t, []LightInstance{{Light: 0, Node: 3}, {Light: 2, Node: 6}}, doc.LightInstances)
	assert.Equal(t, 1, logs.FilterMessage("dropping light with unknown type").Len())

	spot := doc.Lights[0]
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, spot.Color)
	assert.Equal(t, float32(1), spot.Intensity)
	assert.Equal(t, float32(20), spot.Range)
	assert.Equal(t, float32(0), spot.InnerConeAngle)
	assert.Equal(t, float32(0.5), spot.OuterConeAngle)

	sun := doc.Lights[2]
	assert.Equal(t, math.Vec3{X: 1}, sun.Color)
	assert.Equal(t, float32(3), sun.Intensity)
	assert.InDelta(t, 0.7853982, sun.OuterConeAngle, eps)

	require.Len(t, doc.Cameras, 1)
	cam := doc.Cameras[0]
	assert.Equal(t, ProjectionPerspective, cam.Projection)
	assert.Equal(t, Some(4), cam.Node)
	assert.InDelta(t, 0.8, cam.YFov, eps)
	assert.Equal(t, float32(0), cam.ZFar)
	assert.Equal(t, float32(0), cam.AspectRatio)
}

func TestDecodeMatrixNode(t *testing.T) {
	src := `{
		"asset": {"version": "2.0"},
		"nodes": [{"matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 4,5,6,1]}],
		"scenes": [{"nodes": [0]}]
	}`
	doc, err := Decode([]byte(src), "")
	require.NoError(t, err)

	n := doc.Nodes[0]
	assert.Equal(t, math.Vec3{X: 4, Y: 5, Z: 6}, n.Rotation.Translation())
	assert.Equal(t, math.Vec3{X: 4, Y: 5, Z: 6}, n.TRS().Matrix().Translation())
	assert.False(t, doc.Scene.Valid())
	assert.Equal(t, 0, doc.DefaultScene())
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "cycle",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"children":[1]},{"children":[0]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "self parent",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"children":[0]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "two parents",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"children":[2]},{"children":[2]},{}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "child out of range",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"children":[5]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "scene node out of range",
			src:  `{"asset":{"version":"2.0"},"nodes":[{}],"scenes":[{"nodes":[1]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "mesh out of range",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"mesh":0}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "joint out of range",
			src:  `{"asset":{"version":"2.0"},"nodes":[{}],"skins":[{"joints":[0,3]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "light out of range",
			src:  `{"asset":{"version":"2.0"},"nodes":[{"extensions":{"KHR_lights_punctual":{"light":0}}}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "not json",
			src:  `{"asset":`,
			want: ErrDocumentOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeBinaryErrors(t *testing.T) {
	payload := dataURI(floatBytes(fixtureFloats))

	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "inverse bind count mismatch",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":192,"uri":"{{BUFFER}}"}],
				"bufferViews":[{"buffer":0,"byteLength":192}],
				"accessors":[{"bufferView":0,"byteOffset":64,"componentType":5126,"type":"MAT4","count":2}],
				"nodes":[{}],
				"skins":[{"joints":[0],"inverseBindMatrices":0}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "sampler count mismatch",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":192,"uri":"{{BUFFER}}"}],
				"bufferViews":[{"buffer":0,"byteLength":192}],
				"accessors":[
					{"bufferView":0,"componentType":5126,"type":"SCALAR","count":2},
					{"bufferView":0,"byteOffset":8,"componentType":5126,"type":"VEC3","count":1}],
				"nodes":[{}],
				"animations":[{"channels":[{"sampler":0,"target":{"node":0,"path":"scale"}}],
					"samplers":[{"input":0,"output":1}]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "empty keyframe track",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":192,"uri":"{{BUFFER}}"}],
				"bufferViews":[{"buffer":0,"byteLength":192}],
				"accessors":[
					{"bufferView":0,"componentType":5126,"type":"SCALAR","count":0},
					{"bufferView":0,"byteOffset":8,"componentType":5126,"type":"VEC3","count":0}],
				"nodes":[{}],
				"animations":[{"channels":[{"sampler":0,"target":{"node":0,"path":"translation"}}],
					"samplers":[{"input":0,"output":1}]}]}`,
			want: ErrMalformedScene,
		},
		{
			name: "keyframe count overflows buffer",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":192,"uri":"{{BUFFER}}"}],
				"bufferViews":[{"buffer":0,"byteLength":192}],
				"accessors":[
					{"bufferView":0,"componentType":5126,"type":"SCALAR","count":4611686018427387904},
					{"bufferView":0,"byteOffset":8,"componentType":5126,"type":"VEC3","count":4611686018427387904}],
				"nodes":[{}],
				"animations":[{"channels":[{"sampler":0,"target":{"node":0,"path":"translation"}}],
					"samplers":[{"input":0,"output":1}]}]}`,
			want: ErrAccessorOutOfRange,
		},
		{
			name: "accessor past view",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":192,"uri":"{{BUFFER}}"}],
				"bufferViews":[{"buffer":0,"byteLength":16}],
				"accessors":[{"bufferView":0,"componentType":5126,"type":"MAT4","count":1}],
				"nodes":[{}],
				"skins":[{"joints":[0],"inverseBindMatrices":0}]}`,
			want: ErrAccessorOutOfRange,
		},
		{
			name: "buffer shorter than declared",
			src: `{"asset":{"version":"2.0"},
				"buffers":[{"byteLength":400,"uri":"{{BUFFER}}"}]}`,
			want: ErrBufferLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := strings.Replace(tt.src, "{{BUFFER}}", payload, 1)
			_, err := Decode([]byte(src), "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadFileExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	src := strings.Replace(fixtureJSON, "{{BUFFER}}", "scene%20data.bin", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.gltf"), []byte(src), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene data.bin"), floatBytes(fixtureFloats), 0o644))

	doc, err := LoadFile(filepath.Join(dir, "scene.gltf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene.gltf"), doc.Path)
	assert.Len(t, doc.Buffers[0], 192)
	assert.Equal(t, []string{filepath.Join(dir, "scene data.bin")}, doc.Files)

	doc.Close()
	assert.Nil(t, doc.Buffers)
	assert.Nil(t, doc.Nodes)
}

func TestLoadFileErrors(t *testing.T) {
	files := map[string][]byte{
		filepath.Join("assets", "scene.gltf"): []byte(strings.Replace(fixtureJSON, "{{BUFFER}}", "missing.bin", 1)),
	}
	loader := ByteLoaderFunc(func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return data, nil
		}
		return nil, errors.New("not found")
	})

	_, err := LoadFile(filepath.Join("assets", "nothing.gltf"), WithLoader(loader))
	assert.ErrorIs(t, err, ErrDocumentOpen)

	_, err = LoadFile(filepath.Join("assets", "scene.gltf"), WithLoader(loader))
	assert.ErrorIs(t, err, ErrBufferLoad)
}

// rootedLoader serves requests from fixed files, redirecting buffer lookups
// to a shared directory the way a search-root loader does.
type rootedLoader map[string][]byte

func (l rootedLoader) Load(path string) ([]byte, error) {
	data, _, err := l.LoadResolved(path)
	return data, err
}

func (l rootedLoader) LoadResolved(path string) ([]byte, string, error) {
	if data, ok := l[path]; ok {
		return data, path, nil
	}
	shared := filepath.Join("shared", filepath.Base(path))
	if data, ok := l[shared]; ok {
		return data, shared, nil
	}
	return nil, "", errors.New("not found")
}

func TestLoadFileRecordsResolvedPaths(t *testing.T) {
	doc := filepath.Join("assets", "scene.gltf")
	loader := rootedLoader{
		doc:                                []byte(strings.Replace(fixtureJSON, "{{BUFFER}}", "data.bin", 1)),
		filepath.Join("shared", "data.bin"): floatBytes(fixtureFloats),
	}

	d, err := LoadFile(doc, WithLoader(loader))
	require.NoError(t, err)
	assert.Equal(t, doc, d.Path)
	assert.Equal(t, []string{filepath.Join("shared", "data.bin")}, d.Files)
}

func TestDecodeGLB(t *testing.T) {
	src := strings.Replace(fixtureJSON, `"uri": "{{BUFFER}}"`, `"name": "bin"`, 1)
	jsonChunk := []byte(src)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	bin := floatBytes(fixtureFloats)

	var glb []byte
	glb = binary.LittleEndian.AppendUint32(glb, 0x46546C67)
	glb = binary.LittleEndian.AppendUint32(glb, 2)
	glb = binary.LittleEndian.AppendUint32(glb, uint32(12+8+len(jsonChunk)+8+len(bin)))
	glb = binary.LittleEndian.AppendUint32(glb, uint32(len(jsonChunk)))
	glb = binary.LittleEndian.AppendUint32(glb, 0x4E4F534A)
	glb = append(glb, jsonChunk...)
	glb = binary.LittleEndian.AppendUint32(glb, uint32(len(bin)))
	glb = binary.LittleEndian.AppendUint32(glb, 0x004E4942)
	glb = append(glb, bin...)

	doc, err := Decode(glb, "")
	require.NoError(t, err)
	assert.Len(t, doc.Buffers[0], 192)
	assert.Equal(t, math.Translate(-1, 0, 0), doc.Skins[0].InverseBind(1))
}
