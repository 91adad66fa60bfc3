package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/dxapi/internal/adapters/repository"
	"github.com/okian/dxapi/internal/domain/nonce"
	"github.com/okian/dxapi/internal/domain/ref"
	"github.com/okian/dxapi/pkg/metrics"
)

// Classes that can be created through /{class}/new.
var creatable = map[string]bool{ //nolint:gochecknoglobals // read-only set
	"record":  true,
	"file":    true,
	"project": true,
}

// Classes listed by findDataObjects.
var dataClasses = map[string]bool{ //nolint:gochecknoglobals // read-only set
	"record": true,
	"file":   true,
}

type newRequest struct {
	Project    string            `json:"project"`
	Name       string            `json:"name"`
	Tags       []string          `json:"tags"`
	Properties map[string]string `json:"properties"`
	Details    any               `json:"details"`
	Nonce      string            `json:"nonce"`
}

type describeRequest struct {
	Details    bool  `json:"details"`
	Properties *bool `json:"properties"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

type propertiesRequest struct {
	Properties map[string]*string `json:"properties"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type idResponse struct {
	ID string `json:"id"`
}

// describeResponse is the describe shape of an object. Times are epoch ms.
type describeResponse struct {
	ID         string            `json:"id"`
	Class      string            `json:"class"`
	Project    string            `json:"project,omitempty"`
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Tags       []string          `json:"tags"`
	Properties map[string]string `json:"properties,omitempty"`
	Details    any               `json:"details,omitempty"`
	Created    int64             `json:"created"`
	Modified   int64             `json:"modified"`
}

func describe(obj repository.Object, details, properties bool) describeResponse {
	d := describeResponse{
		ID:       obj.ID,
		Class:    obj.Class,
		Project:  obj.Project,
		Name:     obj.Name,
		State:    obj.State,
		Tags:     obj.Tags,
		Created:  obj.Created.UnixMilli(),
		Modified: obj.Modified.UnixMilli(),
	}
	if properties {
		d.Properties = obj.Properties
		if d.Properties == nil {
			d.Properties = map[string]string{}
		}
	}
	if details {
		d.Details = obj.Details
		if d.Details == nil {
			d.Details = map[string]any{}
		}
	}
	return d
}

// handleTarget serves POST /{target}/{method}. target is a class for "new",
// an app hash ID or name for app methods, or an object ID.
func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	method := chi.URLParam(r, "method")

	raw, err := readBody(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	switch {
	case method == "new" && target == "app":
		s.handleAppNew(w, r, raw)
	case method == "new":
		s.handleNew(w, r, target, raw)
	case strings.HasPrefix(target, ref.AppPrefix):
		s.handleApp(w, r, target, "", method, raw)
	default:
		s.handleObject(w, r, target, method, raw)
	}
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request, class string, raw []byte) {
	if !creatable[class] {
		writeError(w, http.StatusNotFound, errTypeNotFound, fmt.Sprintf("cannot create objects of class %q", class))
		return
	}
	var req newRequest
	if err := decode(raw, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if class != "project" && req.Project == "" {
		writeFailure(w, fmt.Errorf("%w: project is required", ErrBadRequest))
		return
	}

	create := func() (string, error) {
		obj, err := s.store.Create(r.Context(), class, repository.CreateInput{
			Project:    req.Project,
			Name:       req.Name,
			Tags:       req.Tags,
			Properties: req.Properties,
			Details:    req.Details,
		})
		return obj.ID, err
	}

	if req.Nonce == "" {
		id, err := create()
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, idResponse{ID: id})
		return
	}

	id, hit, err := s.nonces.Remember(r.Context(), class+":"+req.Nonce, nonce.Fingerprint(raw), create)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if hit {
		metrics.RecordStubNonceHit()
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request, id, method string, raw []byte) {
	ctx := r.Context()
	var (
		resp any
		err  error
	)
	switch method {
	case "describe":
		var req describeRequest
		if err = decode(raw, &req); err == nil {
			var obj repository.Object
			if obj, err = s.store.Get(ctx, id); err == nil {
				resp = describe(obj, req.Details, req.Properties == nil || *req.Properties)
			}
		}
	case "getDetails":
		var obj repository.Object
		if obj, err = s.store.Get(ctx, id); err == nil {
			resp = describe(obj, true, false).Details
		}
	case "setDetails":
		var details any
		if err = decode(raw, &details); err == nil {
			err = s.update(ctx, id, func(o *repository.Object) error {
				if err := repository.RequireOpen(o); err != nil {
					return err
				}
				o.Details = details
				return nil
			})
		}
	case "close":
		err = s.update(ctx, id, repository.CloseObject)
	case "addTags", "removeTags":
		var req tagsRequest
		if err = decode(raw, &req); err == nil {
			err = s.update(ctx, id, func(o *repository.Object) error {
				if method == "addTags" {
					repository.AddTags(o, req.Tags)
				} else {
					repository.RemoveTags(o, req.Tags)
				}
				return nil
			})
		}
	case "setProperties":
		var req propertiesRequest
		if err = decode(raw, &req); err == nil {
			err = s.update(ctx, id, func(o *repository.Object) error {
				repository.SetProperties(o, req.Properties)
				return nil
			})
		}
	case "rename":
		var req renameRequest
		if err = decode(raw, &req); err == nil {
			if strings.TrimSpace(req.Name) == "" {
				err = fmt.Errorf("%w: name must not be empty", ErrBadRequest)
				break
			}
			err = s.update(ctx, id, func(o *repository.Object) error {
				o.Name = req.Name
				return nil
			})
		}
	case "terminate":
		err = s.update(ctx, id, func(o *repository.Object) error {
			if o.Class != "job" {
				return fmt.Errorf("%w: %s is not a job", ErrBadRequest, o.ID)
			}
			if o.State == jobStateDone || o.State == jobStateTerminated {
				return fmt.Errorf("%w: %s is %s", repository.ErrInvalidState, o.ID, o.State)
			}
			o.State = jobStateTerminated
			return nil
		})
	default:
		err = fmt.Errorf("%w: method %q", ErrNotFound, method)
	}

	if err != nil {
		writeFailure(w, err)
		return
	}
	if resp == nil {
		resp = idResponse{ID: id}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) update(ctx context.Context, id string, fn func(*repository.Object) error) error {
	_, err := s.store.Update(ctx, id, fn)
	return err
}
