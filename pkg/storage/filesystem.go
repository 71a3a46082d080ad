// Package storage resolves location protocols to backing filesystems.
//
// Drivers in pkg/drivers read and write data items through Filesystem,
// without knowing where they are stored.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownProtocol is returned when no Filesystem is registered for a protocol.
var ErrUnknownProtocol = errors.New("storage: unknown protocol")

// Filesystem is a backing store of locations.
//
// Paths given to Filesystem are Location.Path.
type Filesystem interface {
	// Open opens the path for reading.
	//
	// When the path does not exist, returned error wraps fs.ErrNotExist.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create opens the path for writing, truncating it.
	//
	// Content is durable only after Close returns nil.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Exists tells whether the path is present.
	//
	// Missing path is (false, nil). Errors are reserved for backend failures.
	Exists(ctx context.Context, path string) (bool, error)

	// Put transfers a local file to the path.
	Put(ctx context.Context, localPath string, path string) error
}

// Options are backend specific parameters, like credentials or endpoints.
type Options map[string]string

// Get returns the value for key, or def when missing or empty.
func (o Options) Get(key string, def string) string {
	if v, ok := o[key]; ok && v != "" {
		return v
	}
	return def
}

// Merge returns new Options which have values of o, overwritten by values of other.
func (o Options) Merge(other Options) Options {
	merged := Options{}
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Factory creates Filesystem with options.
type Factory func(Options) (Filesystem, error)

// Resolver maps protocols to Filesystem factories.
//
// Register factories at startup. After that, Resolver is read-only.
type Resolver struct {
	m         sync.RWMutex
	factories map[string]Factory
}

func NewResolver() *Resolver {
	return &Resolver{factories: map[string]Factory{}}
}

// Register a Factory for protocol.
//
// It panics when the protocol has been registered.
func (r *Resolver) Register(protocol string, factory Factory) {
	r.m.Lock()
	defer r.m.Unlock()

	protocol = strings.ToLower(protocol)
	if _, ok := r.factories[protocol]; ok {
		panic(fmt.Sprintf("storage: protocol %q is registered twice", protocol))
	}
	r.factories[protocol] = factory
}

// Filesystem creates a Filesystem for protocol.
func (r *Resolver) Filesystem(protocol string, opts Options) (Filesystem, error) {
	r.m.RLock()
	factory, ok := r.factories[strings.ToLower(protocol)]
	r.m.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, protocol)
	}
	return factory(opts)
}

// Protocols registered, sorted.
func (r *Resolver) Protocols() []string {
	r.m.RLock()
	defer r.m.RUnlock()

	ps := make([]string, 0, len(r.factories))
	for p := range r.factories {
		ps = append(ps, p)
	}
	slices.Sort(ps)
	return ps
}

type resolverConfig struct {
	memory *MemoryStore
	s3     Options
}

type ResolverOption func(*resolverConfig) *resolverConfig

// WithMemoryStore makes "memory" protocol to be backed by store.
//
// By default, the process-wide store SharedMemory is used.
func WithMemoryStore(store *MemoryStore) ResolverOption {
	return func(rc *resolverConfig) *resolverConfig {
		rc.memory = store
		return rc
	}
}

// WithS3Defaults sets options used for "s3" protocol when they are not given per location.
func WithS3Defaults(opts Options) ResolverOption {
	return func(rc *resolverConfig) *resolverConfig {
		rc.s3 = rc.s3.Merge(opts)
		return rc
	}
}

// DefaultResolver returns Resolver with "file", "memory" and "s3" protocols.
func DefaultResolver(options ...ResolverOption) *Resolver {
	rc := &resolverConfig{memory: SharedMemory, s3: Options{}}
	for _, o := range options {
		rc = o(rc)
	}

	r := NewResolver()
	r.Register(ProtocolFile, func(Options) (Filesystem, error) {
		return Local(), nil
	})
	r.Register(ProtocolMemory, func(Options) (Filesystem, error) {
		return rc.memory.Filesystem(), nil
	})
	r.Register(ProtocolS3, func(opts Options) (Filesystem, error) {
		return NewS3(rc.s3.Merge(opts))
	})
	return r
}
