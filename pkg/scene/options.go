package scene

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ByteLoader reads whole files. Implementations return an error for any
// failure, including empty files.
type ByteLoader interface {
	Load(path string) ([]byte, error)
}

// ResolvingLoader is a ByteLoader that may read a file from somewhere other
// than the requested path. Documents record the resolved path in Path and
// Files when the loader implements it.
type ResolvingLoader interface {
	ByteLoader
	LoadResolved(path string) (data []byte, resolved string, err error)
}

// load reads path through l and returns the path that was actually read.
func load(l ByteLoader, path string) ([]byte, string, error) {
	if rl, ok := l.(ResolvingLoader); ok {
		return rl.LoadResolved(path)
	}
	data, err := l.Load(path)
	return data, path, err
}

// ByteLoaderFunc adapts a function to ByteLoader.
type ByteLoaderFunc func(path string) ([]byte, error)

// Load calls f(path).
func (f ByteLoaderFunc) Load(path string) ([]byte, error) {
	return f(path)
}

// fileLoader reads straight from the filesystem.
type fileLoader struct{}

func (fileLoader) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return data, nil
}

type options struct {
	loader ByteLoader
	log    *zap.Logger
}

// Option configures loading.
type Option func(*options)

// WithLoader sets the loader used for the document and its external buffers.
func WithLoader(l ByteLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLogger sets the logger for ingestion warnings and summaries.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		loader: fileLoader{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.loader == nil {
		o.loader = fileLoader{}
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}
