package module

import (
	"net/http"
	"strings"
)

// Router is the top-level handler: modules own their prefix subtrees and
// everything else falls through to natively registered routes.
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// HandleNative registers a handler outside of any module.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Mount routes the module's prefix and everything beneath it to m.
func (r *Router) Mount(m *Module) {
	r.mux.Handle(m.prefix, m)
	r.mux.Handle(m.prefix+"/", m)
}

// ServeHTTP trims a trailing slash and dispatches.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}
	r.mux.ServeHTTP(w, req)
}
