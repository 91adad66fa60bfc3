// Package route defines API routes and the table that maps route identifiers
// to HTTP method and path templates.
package route

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Path template placeholders.
const (
	ObjectPlaceholder = "{id}"
	AppPlaceholder    = "{app}"
)

// Scope tells which reference a route needs to address its endpoint.
type Scope int

const (
	// Global routes take no reference, e.g. POST /system/whoami.
	Global Scope = iota
	// Object routes are addressed by an object ID, e.g. POST /record-xxxx/describe.
	Object
	// App routes are addressed by an app hash ID or name/alias.
	App
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Object:
		return "object"
	case App:
		return "app"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Route is a named server endpoint.
type Route struct {
	Name         string
	Method       string
	PathTemplate string
	Scope        Scope
	// Retryable marks calls that are safe to re-send on transient failures.
	Retryable bool
}

// Validate checks that the template matches the scope.
func (r Route) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRoute)
	}
	if r.Method == "" {
		return fmt.Errorf("%w: %s: empty method", ErrInvalidRoute, r.Name)
	}
	if !strings.HasPrefix(r.PathTemplate, "/") {
		return fmt.Errorf("%w: %s: path must start with /", ErrInvalidRoute, r.Name)
	}
	hasObject := strings.Count(r.PathTemplate, ObjectPlaceholder)
	hasApp := strings.Count(r.PathTemplate, AppPlaceholder)
	switch r.Scope {
	case Global:
		if hasObject+hasApp != 0 {
			return fmt.Errorf("%w: %s: global route with placeholder", ErrInvalidRoute, r.Name)
		}
	case Object:
		if hasObject != 1 || hasApp != 0 {
			return fmt.Errorf("%w: %s: object route needs exactly one %s", ErrInvalidRoute, r.Name, ObjectPlaceholder)
		}
	case App:
		if hasApp != 1 || hasObject != 0 {
			return fmt.Errorf("%w: %s: app route needs exactly one %s", ErrInvalidRoute, r.Name, AppPlaceholder)
		}
	default:
		return fmt.Errorf("%w: %s: %s", ErrInvalidRoute, r.Name, r.Scope)
	}
	return nil
}

// Render returns the request path for the given reference. Object IDs are
// path-escaped as one segment; app locators keep their name/alias separator.
func (r Route) Render(ref string) string {
	switch r.Scope {
	case Object:
		return strings.Replace(r.PathTemplate, ObjectPlaceholder, url.PathEscape(ref), 1)
	case App:
		parts := strings.SplitN(ref, "/", 2)
		for i := range parts {
			parts[i] = url.PathEscape(parts[i])
		}
		return strings.Replace(r.PathTemplate, AppPlaceholder, strings.Join(parts, "/"), 1)
	default:
		return r.PathTemplate
	}
}

// Table maps route identifiers to routes. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	routes map[string]Route
}

// NewTable builds a table from routes.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		if err := t.Add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add registers r. Names are unique.
func (t *Table) Add(r Route) error {
	if err := r.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.routes[r.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Name)
	}
	t.routes[r.Name] = r
	return nil
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.routes[name]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return r, nil
}

// Names returns all route names sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.routes))
	for n := range t.routes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// post is shorthand for the built-in routes, which are all POST.
func post(name, tmpl string, scope Scope, retryable bool) Route {
	return Route{Name: name, Method: http.MethodPost, PathTemplate: tmpl, Scope: scope, Retryable: retryable}
}
