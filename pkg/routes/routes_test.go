package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/warden/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name + ":" + r.PathValue("id")))
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	patterns := routes.Register(mux,
		routes.Group{
			Prefix: "/videos",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: named("list")},
				{Method: "GET", Pattern: "/{id}", Handler: named("find")},
			},
			Children: []routes.Group{{
				Prefix: "/{id}/thumbnail",
				Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: named("thumbnail")}},
			}},
		},
		routes.Group{
			Prefix: "/events",
			Routes: []routes.Route{{Method: "GET", Pattern: "/{id}", Handler: named("stream")}},
		},
	)

	wantPatterns := []string{
		"GET /videos",
		"GET /videos/{id}",
		"GET /videos/{id}/thumbnail",
		"GET /events/{id}",
	}
	if !slices.Equal(patterns, wantPatterns) {
		t.Errorf("patterns = %v, want %v", patterns, wantPatterns)
	}

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{"GET", "/videos", http.StatusOK, "list:"},
		{"GET", "/videos/42", http.StatusOK, "find:42"},
		{"GET", "/videos/42/thumbnail", http.StatusOK, "thumbnail:42"},
		{"GET", "/events/7", http.StatusOK, "stream:7"},
		{"POST", "/videos", http.StatusMethodNotAllowed, ""},
		{"GET", "/accounts", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestRegisterAnyMethod(t *testing.T) {
	mux := http.NewServeMux()
	patterns := routes.Register(mux, routes.Group{
		Prefix: "/events",
		Routes: []routes.Route{{Pattern: "/{id}", Handler: named("stream")}},
	})

	if len(patterns) != 1 || patterns[0] != "/events/{id}" {
		t.Fatalf("patterns = %v, want [/events/{id}]", patterns)
	}

	for _, method := range []string{"GET", "POST"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, "/events/9", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", method, rec.Code)
		}
	}
}
