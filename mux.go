package litepool

import (
	"context"
	"sync"
)

// Mux routes GET requests by exact path and sends everything else to its
// fallback handler.
type Mux struct {
	entries  map[string]muxEntry
	fallback Handler
	mu       *sync.RWMutex
}

type muxEntry struct {
	h    Handler
	path string
}

func NewMux(fallback Handler) *Mux {
	return &Mux{
		entries:  make(map[string]muxEntry),
		fallback: fallback,
		mu:       &sync.RWMutex{},
	}
}

// Handle is used to register a handler for a request path
func (m *Mux) Handle(path string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[path] = muxEntry{
		h:    h,
		path: path,
	}
}

// HandleFunc registers fn for a request path
func (m *Mux) HandleFunc(path string, fn func(context.Context, *Request) (*Response, error)) {
	m.Handle(path, HandlerFunc(fn))
}

// match finds a handler in entries given a request path.
func (m *Mux) match(path string) (h Handler) {
	// only check for exact match for now.
	v, ok := m.entries[path]
	if ok {
		return v.h
	}

	return nil
}

// Serve dispatches the request to the handler registered for its path.
func (m *Mux) Serve(ctx context.Context, req *Request) (*Response, error) {
	h := m.Handler(req)
	return h.Serve(ctx, req)
}

// Handler returns the handler to use for the given request.
// It always returns a non-nil handler.
//
// If there is no registered handler that applies to the request,
// Handler returns the fallback, or a 'not found' handler if there is none.
func (m *Mux) Handler(req *Request) (h Handler) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if req.Method == MethodGet {
		h = m.match(req.Path)
	}
	if h == nil {
		h = m.fallback
	}
	if h == nil {
		h = NotFoundHandler()
	}

	return h
}

// Routes reports whether req goes to a registered handler rather than the
// fallback.
func (m *Mux) Routes(req *Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return req.Method == MethodGet && m.match(req.Path) != nil
}

// NotFound answers every request with an empty 404.
func NotFound(ctx context.Context, req *Request) (*Response, error) {
	return &Response{Status: StatusNotFound}, nil
}

// NotFoundHandler returns a simple request handler that answers with an empty 404.
func NotFoundHandler() Handler { return HandlerFunc(NotFound) }
