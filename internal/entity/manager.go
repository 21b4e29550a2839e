package entity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diskview/diskview/internal/disk"
)

// URLResolver is a full override for record URLs. When registered it is
// invoked with the current request (nil outside an HTTP handler) and its
// return value is used verbatim, bypassing signing and public URL rules.
type URLResolver func(r *http.Request, path, diskName string, d disk.Driver) string

// RequestAccessor supplies the current HTTP request for a context.
type RequestAccessor func(ctx context.Context) *http.Request

type contextKey string

const requestContextKey contextKey = "request"

// WithRequest stores the request in the context for later retrieval by the
// default request accessor. Wired up by the API middleware.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestContextKey, r)
}

// RequestFromContext returns the request stored by WithRequest, or nil.
func RequestFromContext(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestContextKey).(*http.Request)
	return r
}

// Manager builds entities against a disk registry with shared rendering
// options. One Manager serves all requests; the entities it creates do not.
type Manager struct {
	registry *disk.Registry
	opts     Options
	resolver URLResolver
	accessor RequestAccessor
}

// NewManager creates a Manager over the given registry.
func NewManager(registry *disk.Registry, opts Options) *Manager {
	return &Manager{
		registry: registry,
		opts:     opts,
		accessor: RequestFromContext,
	}
}

// ResolveURLUsing registers a URL resolver override.
func (m *Manager) ResolveURLUsing(fn URLResolver) {
	m.resolver = fn
}

// SetRequestAccessor replaces the default context-based request accessor.
func (m *Manager) SetRequestAccessor(fn RequestAccessor) {
	m.accessor = fn
}

func (m *Manager) request(ctx context.Context) *http.Request {
	if m.accessor == nil {
		return nil
	}
	return m.accessor(ctx)
}

// File creates a file entity for path on the named disk ("" = default disk).
func (m *Manager) File(path, diskName string) (*File, error) {
	b, err := m.newBase(path, diskName)
	if err != nil {
		return nil, err
	}
	return &File{base: b}, nil
}

// Directory creates a directory entity for path on the named disk.
func (m *Manager) Directory(path, diskName string) (*Directory, error) {
	b, err := m.newBase(path, diskName)
	if err != nil {
		return nil, err
	}
	return &Directory{base: b}, nil
}

// Lookup creates the entity variant matching what is actually on the disk:
// a Directory when the driver reports one, a File otherwise (including for
// missing objects, which project to a minimal record either way).
func (m *Manager) Lookup(ctx context.Context, path, diskName string) (Entity, error) {
	b, err := m.newBase(path, diskName)
	if err != nil {
		return nil, err
	}

	exists, err := b.driver.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("exists %s on %s: %w", path, b.disk, err)
	}
	if exists {
		isDir, err := b.driver.IsDirectory(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("is directory %s on %s: %w", path, b.disk, err)
		}
		if isDir {
			return &Directory{base: b}, nil
		}
	}
	return &File{base: b}, nil
}

func (m *Manager) newBase(path, diskName string) (base, error) {
	driver, err := m.registry.Get(diskName)
	if err != nil {
		return base{}, err
	}
	if diskName == "" {
		diskName = m.registry.DefaultName()
	}
	return base{
		disk:   diskName,
		path:   path,
		driver: driver,
		mgr:    m,
	}, nil
}
