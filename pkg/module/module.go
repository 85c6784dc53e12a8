// Package module mounts self-contained HTTP handlers under path prefixes,
// each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/JaimeStill/warden/pkg/middleware"
)

// Module serves an inner handler beneath a path prefix. Requests reach the
// inner handler with the prefix removed.
type Module struct {
	prefix     string
	inner      http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix, which must be a clean absolute path
// such as "/api" or "/api/v1".
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix:     prefix,
		inner:      inner,
		middleware: middleware.New(),
	}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's stack. Middleware added after the
// first request is served has no effect.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// ServeHTTP strips the prefix and dispatches through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.inner)
	})
	m.handler.ServeHTTP(w, strip(r, m.prefix))
}

func strip(r *http.Request, prefix string) *http.Request {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" {
		rest = "/"
	}

	req := r.Clone(r.Context())
	req.URL = new(url.URL)
	*req.URL = *r.URL
	req.URL.Path = rest
	req.URL.RawPath = ""
	return req
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/":
		return fmt.Errorf("module prefix cannot be the root path")
	case path.Clean(prefix) != prefix:
		return fmt.Errorf("module prefix must be a clean path: %s", prefix)
	}
	return nil
}
