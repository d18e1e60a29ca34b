package scene

import (
	"encoding/base64"
	"encoding/binary"
	gomath "math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gltf-scene/pkg/math"
)

const eps = 1e-5

// fixtureFloats is the binary payload shared by the test documents:
//
//	offset   0: times        [0, 1]
//	offset   8: translations [(0,0,0), (2,0,0)]
//	offset  32: rotations    [identity, 90 degrees around +Y]
//	offset  64: inverse bind [identity, translate(-1,0,0)]
var fixtureFloats = []float32{
	0, 1,
	0, 0, 0, 2, 0, 0,
	0, 0, 0, 1, 0, 0.70710677, 0, 0.70710677,
	1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1,
	1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, -1, 0, 0, 1,
}

func floatBytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], gomath.Float32bits(v))
	}
	return out
}

func dataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

// fixtureJSON is a small scene:
//
//	0 root (0,5,0)
//	├── 1 child (1,0,0) scale 2, mesh 0, skin joint 0
//	│   └── 2 leaf (0,1,0), skin joint 1
//	└── 3 spot lamp (0,0,2)
//	4 eye, camera 0, (0,0,10) turned 90 degrees left
//	5 broken lamp (unknown light type)
//	6 sun, directional
const fixtureJSON = `{
	"asset": {"version": "2.0"},
	"extensionsUsed": ["KHR_lights_punctual"],
	"extensions": {
		"KHR_lights_punctual": {
			"lights": [
				{"name": "spot", "type": "spot", "range": 20, "spot": {"outerConeAngle": 0.5}},
				{"name": "laser", "type": "laser"},
				{"name": "sun", "type": "directional", "color": [1, 0, 0], "intensity": 3}
			]
		}
	},
	"buffers": [{"byteLength": 192, "uri": "{{BUFFER}}"}],
	"bufferViews": [{"buffer": 0, "byteLength": 192}],
	"accessors": [
		{"bufferView": 0, "byteOffset": 0, "componentType": 5126, "type": "SCALAR", "count": 2},
		{"bufferView": 0, "byteOffset": 8, "componentType": 5126, "type": "VEC3", "count": 2},
		{"bufferView": 0, "byteOffset": 32, "componentType": 5126, "type": "VEC4", "count": 2},
		{"bufferView": 0, "byteOffset": 64, "componentType": 5126, "type": "MAT4", "count": 2},
		{"bufferView": 0, "byteOffset": 8, "componentType": 5126, "type": "VEC3", "count": 1,
		 "min": [-1, -2, -3], "max": [1, 2, 3]}
	],
	"meshes": [{"name": "box", "primitives": [{"attributes": {"POSITION": 4}}]}],
	"cameras": [{"type": "perspective", "perspective": {"yfov": 0.8, "znear": 0.1}}],
	"nodes": [
		{"name": "root", "children": [1, 3], "translation": [0, 5, 0]},
		{"name": "child", "children": [2], "translation": [1, 0, 0], "scale": [2, 2, 2], "mesh": 0, "skin": 0},
		{"name": "leaf", "translation": [0, 1, 0]},
		{"name": "lamp", "translation": [0, 0, 2], "extensions": {"KHR_lights_punctual": {"light": 0}}},
		{"name": "eye", "camera": 0, "translation": [0, 0, 10], "rotation": [0, 0.70710677, 0, 0.70710677]},
		{"name": "broken", "extensions": {"KHR_lights_punctual": {"light": 1}}},
		{"name": "sun", "extensions": {"KHR_lights_punctual": {"light": 2}}}
	],
	"skins": [{"name": "rig", "joints": [1, 2], "inverseBindMatrices": 3}],
	"animations": [
		{
			"name": "move",
			"channels": [{"sampler": 0, "target": {"node": 1, "path": "translation"}}],
			"samplers": [{"input": 0, "output": 1}]
		},
		{
			"name": "spin",
			"channels": [{"sampler": 0, "target": {"node": 1, "path": "rotation"}}],
			"samplers": [{"input": 0, "output": 2}]
		}
	],
	"scenes": [{"name": "main", "nodes": [0, 4, 5, 6]}, {"name": "lamp only", "nodes": [3]}],
	"scene": 0
}`

func fixtureSource() string {
	return strings.Replace(fixtureJSON, "{{BUFFER}}", dataURI(floatBytes(fixtureFloats)), 1)
}

func loadFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode([]byte(fixtureSource()), "")
	require.NoError(t, err)
	return doc
}

// chainWorld composes the animated locals from the root down to n.
func chainWorld(s *State, n int) math.Mat4 {
	var chain []int
	for cur, ok := n, true; ok; cur, ok = s.doc.Nodes[cur].Parent.Get() {
		chain = append(chain, cur)
	}
	w := math.Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		w = w.Mul(s.locals[chain[i]])
	}
	return w
}

func assertMatApprox(t *testing.T, want, got math.Mat4) {
	t.Helper()
	require.Truef(t, want.ApproxEqual(got, eps), "matrices differ:\nwant %v\ngot  %v", want, got)
}
