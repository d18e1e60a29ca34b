package scene

import (
	"errors"

	"github.com/Faultbox/gltf-scene/pkg/formats"
)

// Load and runtime errors. Ingestion failures abort the whole load; callers
// match them with errors.Is.
var (
	ErrDocumentOpen       = errors.New("cannot open scene document")
	ErrBufferLoad         = errors.New("cannot load scene buffer")
	ErrMalformedScene     = errors.New("malformed scene")
	ErrAccessorOutOfRange = formats.ErrAccessorOutOfRange
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrStaleFrame         = errors.New("frame is stale, call TransformScene first")
)
