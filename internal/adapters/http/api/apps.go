package api

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/dxapi/internal/adapters/repository"
	"github.com/okian/dxapi/internal/domain/ref"
)

// Job states.
const (
	jobStateRunnable   = "runnable"
	jobStateDone       = "done"
	jobStateTerminated = "terminated"
)

type appVersion struct {
	id        string
	name      string
	version   string
	installed bool
	tags      []string
}

// appRegistry maps app names and aliases to versions. Callers lock.
type appRegistry struct {
	byID    map[string]*appVersion
	aliases map[string]map[string]string // name -> alias -> id
}

func newAppRegistry() *appRegistry {
	return &appRegistry{
		byID:    make(map[string]*appVersion),
		aliases: make(map[string]map[string]string),
	}
}

// add registers a version under its version string and the given aliases.
// The first version of a name also becomes "default".
func (a *appRegistry) add(name, version string, aliases []string) (*appVersion, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrBadRequest)
	}
	loc, err := ref.App(name, "")
	if err != nil || loc.ByHashID() {
		return nil, fmt.Errorf("%w: invalid app name %q", ErrBadRequest, name)
	}
	v := &appVersion{id: repository.NewID("app"), name: loc.Name, version: version}
	a.byID[v.id] = v

	byAlias, ok := a.aliases[v.name]
	if !ok {
		byAlias = make(map[string]string)
		a.aliases[v.name] = byAlias
		byAlias[ref.DefaultAlias] = v.id
	}
	byAlias[version] = v.id
	for _, alias := range aliases {
		if alias != "" {
			byAlias[alias] = v.id
		}
	}
	return v, nil
}

func (a *appRegistry) resolve(name, alias string) (string, bool) {
	if alias == "" {
		alias = ref.DefaultAlias
	}
	if !strings.HasPrefix(name, ref.AppPrefix) {
		name = ref.AppPrefix + name
	}
	id, ok := a.aliases[name][alias]
	return id, ok
}

func (a *appRegistry) aliasesOf(v *appVersion) []string {
	var out []string
	for alias, id := range a.aliases[v.name] {
		if id == v.id {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

type appNewRequest struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Aliases []string `json:"aliases"`
}

type runRequest struct {
	Input   any    `json:"input"`
	Project string `json:"project"`
	Name    string `json:"name"`
}

type appDescribeResponse struct {
	ID        string   `json:"id"`
	Class     string   `json:"class"`
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Aliases   []string `json:"aliases"`
	Installed bool     `json:"installed"`
	Tags      []string `json:"tags"`
}

// handleAppNew serves POST /app/new.
func (s *Server) handleAppNew(w http.ResponseWriter, _ *http.Request, raw []byte) {
	var req appNewRequest
	if err := decode(raw, &req); err != nil {
		writeFailure(w, err)
		return
	}
	s.mu.Lock()
	v, err := s.apps.add(req.Name, req.Version, req.Aliases)
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: v.id})
}

// handleAppAlias serves POST /{app-name}/{alias}/{method}.
func (s *Server) handleAppAlias(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	if !strings.HasPrefix(target, ref.AppPrefix) || ref.IsAppHashID(target) {
		writeError(w, http.StatusNotFound, errTypeNotFound, "no route for "+r.URL.Path)
		return
	}
	raw, err := readBody(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.handleApp(w, r, target, chi.URLParam(r, "alias"), chi.URLParam(r, "method"), raw)
}

// handleApp serves app methods addressed by hash ID or by name and alias.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request, target, alias, method string, raw []byte) {
	s.mu.Lock()
	id := target
	if !ref.IsAppHashID(target) {
		var ok bool
		if id, ok = s.apps.resolve(target, alias); !ok {
			s.mu.Unlock()
			shown := alias
			if shown == "" {
				shown = ref.DefaultAlias
			}
			writeError(w, http.StatusNotFound, errTypeNotFound, fmt.Sprintf("app %s with alias %q not found", target, shown))
			return
		}
	}
	v, ok := s.apps.byID[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, errTypeNotFound, fmt.Sprintf("app %s not found", id))
		return
	}

	var resp any = idResponse{ID: v.id}
	var err error
	switch method {
	case "describe":
		resp = appDescribeResponse{
			ID:        v.id,
			Class:     "app",
			Name:      v.name,
			Version:   v.version,
			Aliases:   s.apps.aliasesOf(v),
			Installed: v.installed,
			Tags:      append([]string{}, v.tags...),
		}
	case "getDetails":
		resp = map[string]any{}
	case "install":
		v.installed = true
	case "uninstall":
		v.installed = false
	case "addTags":
		var req tagsRequest
		if err = decode(raw, &req); err == nil {
			for _, t := range req.Tags {
				if !slices.Contains(v.tags, t) {
					v.tags = append(v.tags, t)
				}
			}
		}
	case "publish":
		s.apps.aliases[v.name][ref.DefaultAlias] = v.id
	case "run":
		s.mu.Unlock()
		s.runApp(w, r, v.id, v.name, raw)
		return
	default:
		err = fmt.Errorf("%w: method %q", ErrNotFound, method)
	}
	s.mu.Unlock()

	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runApp creates a job object for the app run.
func (s *Server) runApp(w http.ResponseWriter, r *http.Request, appID, appName string, raw []byte) {
	var req runRequest
	if err := decode(raw, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Input == nil {
		req.Input = map[string]any{}
	}
	if _, ok := req.Input.(map[string]any); !ok {
		writeFailure(w, fmt.Errorf("%w: input must be a JSON object", ErrBadRequest))
		return
	}
	name := req.Name
	if name == "" {
		name = appName
	}
	job, err := s.store.Create(r.Context(), "job", repository.CreateInput{
		Project: req.Project,
		Name:    name,
		Details: map[string]any{"app": appID, "input": req.Input},
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if _, err := s.store.Update(r.Context(), job.ID, func(o *repository.Object) error {
		o.State = jobStateRunnable
		return nil
	}); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: job.ID})
}
