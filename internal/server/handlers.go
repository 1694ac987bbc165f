package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olamyy/wmt/pkg/buildinfo"
	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Criterion describes one checklist entry.
type Criterion struct {
	ID          string        `json:"id"`
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	Explanation string        `json:"explanation"`
	Needs       []source.Kind `json:"needs"`
}

// CheckRequest is the body of POST /check.
type CheckRequest struct {
	// Packages accepts everything `wmt check` accepts on the command line
	// except manifest paths.
	Packages []string `json:"packages"`
	// Criterion selects one criterion by id or number; empty means all.
	Criterion string `json:"criterion,omitempty"`
	// Ecosystem applies to bare package names.
	Ecosystem string `json:"ecosystem,omitempty"`
}

func describe(s criteria.Spec) Criterion {
	return Criterion{ID: s.ID, Number: s.Number, Title: s.Title, Explanation: s.Explanation, Needs: s.Needs}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleCriteria(w http.ResponseWriter, _ *http.Request) {
	specs := s.cfg.Registry.All()
	out := make([]Criterion, len(specs))
	for i, spec := range specs {
		out[i] = describe(spec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCriterion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	spec, ok := s.cfg.Registry.Resolve(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown criterion %q", id))
		return
	}
	writeJSON(w, http.StatusOK, describe(spec))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if len(req.Packages) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no packages given"))
		return
	}
	if len(req.Packages) > MaxPackages {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "too many packages (%d, max %d)", len(req.Packages), MaxPackages))
		return
	}

	eco := s.cfg.Ecosystem
	if req.Ecosystem != "" {
		e, err := source.ParseEcosystem(req.Ecosystem)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidEcosystem, err, "invalid ecosystem"))
			return
		}
		eco = e
	}

	ids := make([]source.Identity, 0, len(req.Packages))
	for _, arg := range req.Packages {
		id, err := deps.ParseIdentity(arg, eco)
		if err != nil {
			writeError(w, err)
			return
		}
		ids = append(ids, id)
	}

	mode := check.AllCriteria()
	if req.Criterion != "" {
		mode = check.SingleCriterion(req.Criterion)
	}

	res, err := s.cfg.Runner.Run(r.Context(), ids, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cfg.Store.Save(r.Context(), res); err != nil {
		s.cfg.Logger.Warn("run not stored", "run", res.ID, "err", err)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
