package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
)

// Options determine workspace identity.
type Options struct {
	// ProjectRoot is the project whose packages are tested. Empty means
	// auto-detect.
	ProjectRoot string `json:"projectRoot,omitempty"`
}

// Identity returns the canonical key of o. Options that name the same
// directory share an identity.
func (o Options) Identity() (string, error) {
	if o.ProjectRoot != "" {
		abs, err := filepath.Abs(o.ProjectRoot)
		if err != nil {
			return "", errors.ConfigError(fmt.Sprintf("unable to resolve project root %s", o.ProjectRoot), err)
		}
		o.ProjectRoot = filepath.Clean(abs)
	}
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Builder initializes a workspace for a project root.
type Builder interface {
	Initialize(ctx context.Context, projectRoot string) (string, error)
}

// Registry caches initialized workspaces by Options identity.
type Registry struct {
	builder Builder

	mu     sync.Mutex
	roots  map[string]string
	flight singleflight.Group
}

// NewRegistry creates an empty Registry backed by b.
func NewRegistry(b Builder) *Registry {
	return &Registry{
		builder: b,
		roots:   make(map[string]string),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns a process-wide Registry using the configuration
// from config.FromEnv and the default executor. It is shared by every
// project that is not given its own Registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			logging.Warn("ignoring invalid configuration", "error", err)
			cfg = config.Default()
		}
		defaultRegistry = NewRegistry(NewInitializer(cfg, nil))
	})
	return defaultRegistry
}

// Resolve returns the workspace root for opts, initializing it on first
// use. Concurrent callers with equal options wait for one initialization;
// a failed initialization is reported to all of them and not cached. A
// caller whose ctx ends gets its ctx error while the initialization keeps
// running for the others.
func (r *Registry) Resolve(ctx context.Context, opts Options) (string, error) {
	id, err := opts.Identity()
	if err != nil {
		return "", err
	}

	if root, ok := r.lookup(id); ok {
		logging.Debug("using existing workspace", "path", root)
		return root, nil
	}

	ch := r.flight.DoChan(id, func() (any, error) {
		if root, ok := r.lookup(id); ok {
			return root, nil
		}
		// Shared by every waiter, so no single caller may cancel it.
		root, err := r.builder.Initialize(context.WithoutCancel(ctx), opts.ProjectRoot)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.roots[id] = root
		r.mu.Unlock()
		return root, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len returns the number of cached workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roots)
}

func (r *Registry) lookup(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	root, ok := r.roots[id]
	return root, ok
}
