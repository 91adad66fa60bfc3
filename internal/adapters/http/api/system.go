package api

import (
	"net/http"

	"github.com/okian/dxapi/internal/adapters/repository"
)

type whoamiResponse struct {
	ID string `json:"id"`
}

type findRequest struct {
	Class string `json:"class"`
	State string `json:"state"`
	Scope struct {
		Project string `json:"project"`
	} `json:"scope"`
	Describe bool `json:"describe"`
	Limit    int  `json:"limit"`
}

type findResult struct {
	Project  string            `json:"project"`
	ID       string            `json:"id"`
	Describe *describeResponse `json:"describe,omitempty"`
}

type findResponse struct {
	Results []findResult `json:"results"`
	Next    *string      `json:"next"`
}

// handleWhoami serves POST /system/whoami.
func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	if _, err := readBody(r); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, whoamiResponse{ID: s.user})
}

// handleFindDataObjects serves POST /system/findDataObjects. Only records
// and files are listed; results are ordered by ID.
func (s *Server) handleFindDataObjects(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req findRequest
	if err := decode(raw, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusUnprocessableEntity, errTypeInvalidInput, "limit must not be negative")
		return
	}

	objects := s.store.Find(r.Context(), repository.Filter{
		Class:   req.Class,
		State:   req.State,
		Project: req.Scope.Project,
	})
	resp := findResponse{Results: []findResult{}}
	for _, obj := range objects {
		if !dataClasses[obj.Class] {
			continue
		}
		if req.Limit > 0 && len(resp.Results) == req.Limit {
			next := obj.ID
			resp.Next = &next
			break
		}
		res := findResult{Project: obj.Project, ID: obj.ID}
		if req.Describe {
			d := describe(obj, false, true)
			res.Describe = &d
		}
		resp.Results = append(resp.Results, res)
	}
	writeJSON(w, http.StatusOK, resp)
}
