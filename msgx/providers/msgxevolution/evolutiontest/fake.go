// Package evolutiontest runs an in-process stand-in for the Evolution API.
package evolutiontest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// Request is one call the fake received
type Request struct {
	Method   string
	Path     string
	Instance string
	APIKey   string
	Body     map[string]any
	HasBody  bool
}

// Reply is a canned gateway answer. Raw wins over Body when set.
type Reply struct {
	Status int
	Body   any
	Raw    string
}

// Gateway is an httptest server speaking the subset of routes the CRM uses
type Gateway struct {
	*httptest.Server
	APIKey string

	mu       sync.Mutex
	requests []Request
	replies  map[string]Reply
}

// New starts a fake that requires apiKey on every call
func New(apiKey string) *Gateway {
	g := &Gateway{APIKey: apiKey, replies: make(map[string]Reply)}

	r := mux.NewRouter()
	r.Use(g.record, g.requireKey)

	r.HandleFunc("/instance/create", g.handle("/instance/create")).Methods(http.MethodPost)
	r.HandleFunc("/instance/fetchInstances", g.handle("/instance/fetchInstances")).Methods(http.MethodGet)
	for _, p := range []struct{ method, prefix string }{
		{http.MethodGet, "/instance/connect"},
		{http.MethodGet, "/instance/connectionState"},
		{http.MethodDelete, "/instance/delete"},
		{http.MethodDelete, "/instance/logout"},
		{http.MethodPost, "/chat/findChats"},
		{http.MethodPost, "/chat/findMessages"},
		{http.MethodPost, "/chat/getBase64FromMediaMessage"},
		{http.MethodPost, "/chat/fetchProfilePictureUrl"},
		{http.MethodPost, "/chat/fetchPresence"},
		{http.MethodPost, "/message/sendText"},
	} {
		r.HandleFunc(p.prefix+"/{instance}", g.handle(p.prefix)).Methods(p.method)
	}

	g.Server = httptest.NewServer(r)
	return g
}

// Reply sets the answer for a route prefix such as "/instance/connect"
func (g *Gateway) Reply(prefix string, reply Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[prefix] = reply
}

// Requests returns a copy of every call received so far
func (g *Gateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.requests...)
}

// Last returns the most recent call
func (g *Gateway) Last() (Request, bool) {
	reqs := g.Requests()
	if len(reqs) == 0 {
		return Request{}, false
	}
	return reqs[len(reqs)-1], true
}

func (g *Gateway) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			Instance: mux.Vars(r)["instance"],
			APIKey:   r.Header.Get("apikey"),
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			rec.HasBody = true
			_ = json.Unmarshal(raw, &rec.Body)
		}

		g.mu.Lock()
		g.requests = append(g.requests, rec)
		g.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != g.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) handle(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		reply, ok := g.replies[prefix]
		g.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"route": prefix, "instance": mux.Vars(r)["instance"]})
			return
		}
		if reply.Status == 0 {
			reply.Status = http.StatusOK
		}
		if reply.Raw != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(reply.Status)
			_, _ = io.WriteString(w, reply.Raw)
			return
		}
		writeJSON(w, reply.Status, reply.Body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
