// Package router is a small method-aware HTTP router with wildcard path
// segments, prefix mounts and colored request logging.
package router

import (
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type mount struct {
	prefix  string
	handler http.Handler
}

type Router struct {
	routes map[string]map[string]HandlerFunc // method -> pattern -> handler
	order  map[string][]string               // method -> patterns in registration order
	mounts []mount
}

func New() *Router {
	return &Router{
		routes: make(map[string]map[string]HandlerFunc),
		order:  make(map[string][]string),
	}
}

// register adds a handler for method+pattern. Patterns may contain "*"
// segments, each matching exactly one path segment; dispatch tries
// patterns in registration order, so register specific routes first.
func (r *Router) register(method, pattern string, handler HandlerFunc) {
	if r.routes[method] == nil {
		r.routes[method] = make(map[string]HandlerFunc)
	}
	if _, exists := r.routes[method][pattern]; !exists {
		r.order[method] = append(r.order[method], pattern)
	}
	r.routes[method][pattern] = handler
}

func (r *Router) GET(pattern string, handler HandlerFunc)  { r.register(http.MethodGet, pattern, handler) }
func (r *Router) POST(pattern string, handler HandlerFunc) { r.register(http.MethodPost, pattern, handler) }
func (r *Router) PUT(pattern string, handler HandlerFunc)  { r.register(http.MethodPut, pattern, handler) }
func (r *Router) PATCH(pattern string, handler HandlerFunc) {
	r.register(http.MethodPatch, pattern, handler)
}
func (r *Router) DELETE(pattern string, handler HandlerFunc) {
	r.register(http.MethodDelete, pattern, handler)
}

// Mount serves every path under prefix with the given handler. Used for
// handlers that do their own sub-routing, like the swagger UI.
func (r *Router) Mount(prefix string, handler http.Handler) {
	r.mounts = append(r.mounts, mount{prefix: prefix, handler: handler})
}

// matchPattern reports whether path matches pattern segment by segment,
// with "*" matching any single segment.
func matchPattern(path, pattern string) bool {
	pathSegs := strings.Split(strings.Trim(path, "/"), "/")
	patSegs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(pathSegs) != len(patSegs) {
		return false
	}
	for i, seg := range patSegs {
		if seg == "*" {
			continue
		}
		if pathSegs[i] != seg {
			return false
		}
	}
	return true
}

// resolve finds the handler for a request, or reports whether the path
// exists under another method.
func (r *Router) resolve(method, path string) (HandlerFunc, bool) {
	for _, pattern := range r.order[method] {
		if matchPattern(path, pattern) {
			return r.routes[method][pattern], true
		}
	}
	return nil, false
}

func (r *Router) pathKnown(path string) bool {
	var methods []string
	for m := range r.order {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		if _, ok := r.resolve(m, path); ok {
			return true
		}
	}
	return false
}

// ServeHTTP dispatches a request: mounts first, then patterned routes.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if !r.serveMount(lrw, req) {
		if handler, ok := r.resolve(req.Method, req.URL.Path); ok {
			handler(lrw, req)
		} else if r.pathKnown(req.URL.Path) {
			http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
		} else {
			http.Error(lrw, "Not Found", http.StatusNotFound)
		}
	}

	duration := time.Since(start)
	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, duration, colorReset,
	)
}

func (r *Router) serveMount(w http.ResponseWriter, req *http.Request) bool {
	for _, m := range r.mounts {
		if strings.HasPrefix(req.URL.Path, m.prefix) {
			m.handler.ServeHTTP(w, req)
			return true
		}
	}
	return false
}

// --- Start server ---
func (r *Router) Start(addr string) {
	log.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
	log.Fatal(http.ListenAndServe(addr, r))
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut, http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
