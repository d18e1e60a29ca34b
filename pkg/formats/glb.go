package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// GLB container constants.
const (
	GLBMagic     uint32 = 0x46546C67 // "glTF"
	GLBVersion   uint32 = 2
	glbChunkJSON uint32 = 0x4E4F534A // "JSON"
	glbChunkBIN  uint32 = 0x004E4942 // "BIN\0"
)

// GLB format errors.
var (
	ErrInvalidGLBMagic   = errors.New("invalid GLB magic: expected 'glTF'")
	ErrInvalidGLBVersion = errors.New("unsupported GLB version")
	ErrMissingJSONChunk  = errors.New("GLB file missing JSON chunk")
	ErrTruncatedGLB      = errors.New("truncated GLB data")
)

type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type glbChunkHeader struct {
	Length uint32
	Type   uint32
}

// IsGLB reports whether data starts with the GLB magic.
func IsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == GLBMagic
}

// SplitGLB separates a binary glTF container into its JSON chunk and its
// optional BIN chunk. Unknown chunk types are skipped.
func SplitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, ErrTruncatedGLB
	}

	r := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, ErrTruncatedGLB
	}
	if header.Magic != GLBMagic {
		return nil, nil, ErrInvalidGLBMagic
	}
	if header.Version != GLBVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidGLBVersion, header.Version)
	}
	if int(header.Length) > len(data) {
		return nil, nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncatedGLB, header.Length, len(data))
	}

	for {
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, ErrTruncatedGLB
		}

		if int64(chunk.Length) > int64(r.Len()) {
			return nil, nil, fmt.Errorf("%w: chunk of %d bytes, %d remaining", ErrTruncatedGLB, chunk.Length, r.Len())
		}
		start := len(data) - r.Len()
		payload := data[start : start+int(chunk.Length)]
		r.Seek(int64(chunk.Length), io.SeekCurrent)

		switch chunk.Type {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = payload
			}
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = payload
			}
		}
	}

	if jsonChunk == nil {
		return nil, nil, ErrMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}
