// Package formats provides readers for the glTF 2.0 binary side: typed
// accessor views over loaded buffers, the GLB container and embedded data URIs.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/gltf-scene/pkg/math"
)

// Accessor errors.
var (
	ErrAccessorOutOfRange = errors.New("accessor byte range exceeds its buffer")
	ErrMalformedAccessor  = errors.New("malformed accessor")
)

// Accessor is a typed, strided view over a loaded buffer.
type Accessor struct {
	Data          []byte // Buffer bytes starting at element 0
	ComponentType gltf.ComponentType
	Normalized    bool
	Dimension     int // Components per element (1..4, 9 or 16 for matrices)
	ComponentSize int // Bytes per component
	ElementSize   int // Dimension * ComponentSize
	Stride        int // Bytes between consecutive elements
	Count         int // Element count
}

// ComponentSize returns the byte size of a glTF component type.
func ComponentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	default:
		return 0
	}
}

// Dimension returns the component count of a glTF accessor type.
func Dimension(at gltf.AccessorType) int {
	switch at {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	default:
		return 0
	}
}

// Resolve maps accessor index through its bufferView and buffer to a typed
// view. buffers holds the loaded bytes of doc.Buffers, index for index.
//
// byteOffset is additive across bufferView and accessor, and the bufferView's
// byteLength is reduced by the accessor byteOffset before the range check.
func Resolve(doc *gltf.Document, buffers [][]byte, index int) (Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return Accessor{}, fmt.Errorf("%w: accessor %d of %d", ErrMalformedAccessor, index, len(doc.Accessors))
	}
	acc := doc.Accessors[index]
	if acc.Sparse != nil {
		return Accessor{}, fmt.Errorf("%w: accessor %d is sparse", ErrMalformedAccessor, index)
	}
	if acc.BufferView == nil {
		return Accessor{}, fmt.Errorf("%w: accessor %d has no bufferView", ErrMalformedAccessor, index)
	}

	viewIdx := int(*acc.BufferView)
	if viewIdx < 0 || viewIdx >= len(doc.BufferViews) {
		return Accessor{}, fmt.Errorf("%w: accessor %d references bufferView %d", ErrMalformedAccessor, index, viewIdx)
	}
	view := doc.BufferViews[viewIdx]

	bufIdx := int(view.Buffer)
	if bufIdx < 0 || bufIdx >= len(buffers) {
		return Accessor{}, fmt.Errorf("%w: bufferView %d references buffer %d", ErrMalformedAccessor, viewIdx, bufIdx)
	}
	buf := buffers[bufIdx]

	compSize := ComponentSize(acc.ComponentType)
	dim := Dimension(acc.Type)
	if compSize == 0 || dim == 0 {
		return Accessor{}, fmt.Errorf("%w: accessor %d has unknown type %v/%v", ErrMalformedAccessor, index, acc.Type, acc.ComponentType)
	}

	elemSize := dim * compSize
	stride := elemSize
	if s := int(view.ByteStride); s > 0 {
		stride = s
	}

	count := int(acc.Count)
	start := int(view.ByteOffset) + int(acc.ByteOffset)
	viewLen := int(view.ByteLength) - int(acc.ByteOffset)

	if count < 0 || viewLen < 0 || start < 0 || start > len(buf) {
		return Accessor{}, fmt.Errorf("%w: accessor %d has count %d at offset %d, view has %d, buffer %d has %d",
			ErrAccessorOutOfRange, index, count, start, viewLen, bufIdx, len(buf))
	}

	// Bound count against the view before multiplying so the span cannot overflow.
	span := 0
	if count > 0 {
		if viewLen < elemSize || count-1 > (viewLen-elemSize)/stride {
			return Accessor{}, fmt.Errorf("%w: accessor %d has %d elements of stride %d, view has %d bytes",
				ErrAccessorOutOfRange, index, count, stride, viewLen)
		}
		span = stride*(count-1) + elemSize
	}
	if span > len(buf)-start {
		return Accessor{}, fmt.Errorf("%w: accessor %d needs %d bytes at offset %d, buffer %d has %d",
			ErrAccessorOutOfRange, index, span, start, bufIdx, len(buf))
	}

	return Accessor{
		Data:          buf[start : start+span],
		ComponentType: acc.ComponentType,
		Normalized:    acc.Normalized,
		Dimension:     dim,
		ComponentSize: compSize,
		ElementSize:   elemSize,
		Stride:        stride,
		Count:         count,
	}, nil
}

// IsFloat reports whether the accessor stores 32-bit floats.
func (a Accessor) IsFloat() bool {
	return a.ComponentType == gltf.ComponentFloat
}

// Float reads component c of element i as a float32. Normalized integer
// components are mapped to [0,1] or [-1,1].
func (a Accessor) Float(i, c int) float32 {
	off := i*a.Stride + c*a.ComponentSize
	b := a.Data[off:]
	switch a.ComponentType {
	case gltf.ComponentFloat:
		return gomath.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltf.ComponentUbyte:
		if a.Normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case gltf.ComponentByte:
		if a.Normalized {
			return math32.Max(float32(int8(b[0]))/127, -1)
		}
		return float32(int8(b[0]))
	case gltf.ComponentUshort:
		v := binary.LittleEndian.Uint16(b)
		if a.Normalized {
			return float32(v) / 65535
		}
		return float32(v)
	case gltf.ComponentShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if a.Normalized {
			return math32.Max(float32(v)/32767, -1)
		}
		return float32(v)
	case gltf.ComponentUint:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// Scalar reads element i of a SCALAR accessor.
func (a Accessor) Scalar(i int) float32 {
	return a.Float(i, 0)
}

// Vec3 reads element i as a 3-vector.
func (a Accessor) Vec3(i int) math.Vec3 {
	return math.Vec3{X: a.Float(i, 0), Y: a.Float(i, 1), Z: a.Float(i, 2)}
}

// Vec4 reads element i as a 4-vector.
func (a Accessor) Vec4(i int) math.Vec4 {
	return math.Vec4{a.Float(i, 0), a.Float(i, 1), a.Float(i, 2), a.Float(i, 3)}
}

// Quat reads element i as an (x, y, z, w) quaternion.
func (a Accessor) Quat(i int) math.Quat {
	return math.Quat{X: a.Float(i, 0), Y: a.Float(i, 1), Z: a.Float(i, 2), W: a.Float(i, 3)}
}

// Mat4 reads element i of a MAT4 accessor (column-major, as stored).
func (a Accessor) Mat4(i int) math.Mat4 {
	var m math.Mat4
	for c := range m {
		m[c] = a.Float(i, c)
	}
	return m
}
