package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

// Logger is the logging surface the registry needs.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Registry resolves class names to compiled message classes and caches them
// per scope. Schema files go into a Pool, which outlives scopes.
type Registry struct {
	pool     *Pool
	source   Source
	logger   Logger
	observer observability.Observer

	// fetches collapses concurrent reads of one file across scopes
	fetches singleflight.Group

	mu     sync.Mutex
	scopes map[string]*scope
}

// scope caches the classes one pipeline registered. Its mutex is held for a
// whole resolution so concurrent registrations in a scope happen one at a time.
type scope struct {
	mu      sync.Mutex
	classes map[string]*entry
}

type entry struct {
	locations Locations
	class     *transcode.MessageClass
}

// Option configures a Registry.
type Option func(*Registry)

// WithPool makes the registry load into pool instead of DefaultPool.
func WithPool(pool *Pool) Option {
	return func(r *Registry) { r.pool = pool }
}

// WithSource sets the source used when a request names none.
func WithSource(source Source) Option {
	return func(r *Registry) { r.source = source }
}

// WithLogger attaches a logger.
func WithLogger(logger Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithObserver attaches an observer notified of every Resolve.
func WithObserver(observer observability.Observer) Option {
	return func(r *Registry) { r.observer = observer }
}

// NewRegistry returns a registry reading from the local filesystem into
// DefaultPool unless options say otherwise.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pool:   DefaultPool,
		source: DirSource{},
		scopes: make(map[string]*scope),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pool returns the pool the registry loads into.
func (r *Registry) Pool() *Pool {
	return r.pool
}

// Resolve validates req, loads the schema files it names (once per process)
// and returns the compiled class. Resolving the same class with the same
// locations in the same scope again returns the cached class.
func (r *Registry) Resolve(ctx context.Context, req Request) (class *transcode.MessageClass, err error) {
	start := time.Now()
	scopeID := req.Scope
	if scopeID == "" {
		scopeID = DefaultScope
	}
	cached := false
	defer func() {
		r.observeOperation(req, scopeID, time.Since(start), err, cached)
	}()

	if err := ValidateConfig(req.ClassName, req.Locations); err != nil {
		return nil, err
	}

	s := r.scope(scopeID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.classes[req.ClassName]; ok {
		if !e.locations.Equal(req.Locations) {
			return nil, fmt.Errorf("%w: class %q is already registered in scope %q from other locations",
				ErrConfiguration, req.ClassName, scopeID)
		}
		cached = true
		r.logDebug(ctx, "class already registered", map[string]interface{}{
			"class_name": req.ClassName,
			"scope":      scopeID,
		})
		return e.class, nil
	}

	source := req.Source
	if source == nil {
		source = r.source
	}
	l := newLoader(ctx, r.pool, r.fetcher(source))
	if err := l.load(req.Locations); err != nil {
		r.logError(ctx, "failed to load schema", err, map[string]interface{}{
			"class_name": req.ClassName,
			"scope":      scopeID,
			"mode":       req.Locations.mode(),
		})
		return nil, err
	}

	md, err := r.pool.FindMessage(req.ClassName)
	if err != nil {
		r.logError(ctx, "class not found after loading", err, map[string]interface{}{
			"class_name": req.ClassName,
			"scope":      scopeID,
		})
		return nil, err
	}
	class, err = transcode.Compile(md)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassResolution, err)
	}

	s.classes[req.ClassName] = &entry{locations: cloneLocations(req.Locations), class: class}
	r.logInfo(ctx, "registered class", map[string]interface{}{
		"class_name": req.ClassName,
		"scope":      scopeID,
		"mode":       req.Locations.mode(),
		"files_read": l.loaded,
		"source":     source.Name(),
	})
	return class, nil
}

// Lookup returns a class previously resolved in scope.
func (r *Registry) Lookup(scopeID, className string) (*transcode.MessageClass, bool) {
	if scopeID == "" {
		scopeID = DefaultScope
	}
	r.mu.Lock()
	s, ok := r.scopes[scopeID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.classes[className]
	if !ok {
		return nil, false
	}
	return e.class, true
}

// Release forgets the classes of a scope. Loaded schema files stay in the pool.
func (r *Registry) Release(scopeID string) {
	if scopeID == "" {
		scopeID = DefaultScope
	}
	r.mu.Lock()
	delete(r.scopes, scopeID)
	r.mu.Unlock()
}

// ReleaseClass forgets one class of a scope and drops the scope once it holds
// no classes. Other classes registered in the scope stay cached.
func (r *Registry) ReleaseClass(scopeID, className string) {
	if scopeID == "" {
		scopeID = DefaultScope
	}
	r.mu.Lock()
	s, ok := r.scopes[scopeID]
	r.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.classes, className)
	s.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scopes[scopeID] != s || !s.mu.TryLock() {
		// replaced, or a resolution into it is running
		return
	}
	if len(s.classes) == 0 {
		delete(r.scopes, scopeID)
	}
	s.mu.Unlock()
}

// Scopes returns the scopes that hold registrations, sorted.
func (r *Registry) Scopes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.scopes))
	for id := range r.scopes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) scope(id string) *scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scopes[id]
	if !ok {
		s = &scope{classes: make(map[string]*entry)}
		r.scopes[id] = s
	}
	return s
}

func (r *Registry) fetcher(source Source) fetchFunc {
	return func(ctx context.Context, name string) ([]byte, error) {
		v, err, _ := r.fetches.Do(source.Name()+"|"+name, func() (interface{}, error) {
			return source.ReadFile(ctx, name)
		})
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
}

func cloneLocations(l Locations) Locations {
	l.IncludePath = append([]string(nil), l.IncludePath...)
	return l
}

func (r *Registry) observeOperation(req Request, scopeID string, duration time.Duration, err error, cached bool) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema",
		Operation:   "resolve",
		Resource:    req.ClassName,
		SubResource: scopeID,
		Duration:    duration,
		Error:       err,
		Metadata: map[string]interface{}{
			"mode":   req.Locations.mode(),
			"cached": cached,
		},
	})
}

func (r *Registry) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.DebugWithContext(ctx, msg, nil, fields)
	}
}

func (r *Registry) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (r *Registry) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
