package server

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. Paths may carry {name} wildcards, read with [http.Request.PathValue].
// Several methods can be registered on the same path.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware

	mu     sync.Mutex
	routes map[string]*methodTable
}

// methodTable dispatches one path to a handler per method.
type methodTable struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

func (t *methodTable) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	t.mu.RLock()
	h, ok := t.handlers[req.Method]
	if !ok && req.Method == http.MethodHead {
		h, ok = t.handlers[http.MethodGet]
	}
	allowed := t.allowed()
	t.mu.RUnlock()

	if !ok {
		w.Header().Set("Allow", allowed)
		WriteError(w, req, NewAPIError("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed))
		return
	}
	h.ServeHTTP(w, req)
}

func (t *methodTable) allowed() string {
	methods := make([]string, 0, len(t.handlers))
	for m := range t.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		routes:      map[string]*methodTable{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware must be added before routes are registered.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The first registration on a path wraps the path's method table with all registered middleware,
// so preflight requests and 405 answers pass through the same stack.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.routes[path]
	if !ok {
		table = &methodTable{handlers: map[string]http.Handler{}}
		r.routes[path] = table
		r.mux.Handle(path, r.Apply(table))
	}

	table.mu.Lock()
	table.handlers[strings.ToUpper(method)] = handler
	table.mu.Unlock()
}

// HandleFunc is [BasicRouter.Handle] for plain functions.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
