package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exolab/exomoon/internal/archive"
	"github.com/exolab/exomoon/internal/export"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
)

// simRequest is the shared body of the simulation endpoints.
type simRequest struct {
	Params            map[string]any `json:"params"`
	Years             *float64       `json:"years,omitempty"`
	EscapeFactor      *float64       `json:"escape_factor,omitempty"`
	IncludeTrajectory bool           `json:"include_trajectory,omitempty"`
}

type planetResponse struct {
	Found      bool            `json:"found"`
	Data       *archive.Record `json:"data,omitempty"`
	DensityCGS *float64        `json:"dp_cgs,omitempty"`
	Candidates []string        `json:"candidates,omitempty"`
}

// HTTPHandler serves the dashboard-facing JSON API plus health and
// Prometheus metrics endpoints.
func HTTPHandler(arch *archive.Client, defaults params.System) http.Handler {
	h := &httpAPI{archive: arch, defaults: defaults}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/run", h.runOrbit)
		r.Post("/run/years", h.runYears)
		r.Post("/stability", h.assessStability)
		r.Get("/planets/{name}", h.lookupPlanet)
	})
	return r
}

type httpAPI struct {
	archive  *archive.Client
	defaults params.System
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, params.ErrInvalidParams) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *httpAPI) decode(r *http.Request) (simRequest, params.System, *float64, error) {
	var body simRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, h.defaults, nil, err
	}
	p, embedded := params.FromMap(h.defaults, body.Params)
	years := body.Years
	if years == nil {
		years = embedded
	}
	return body, p, years, nil
}

func (h *httpAPI) run(w http.ResponseWriter, r *http.Request, mode string, policy func(*float64) (sim.RunPolicy, error)) {
	body, p, years, err := h.decode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pol, err := policy(years)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t0 := time.Now()
	res, err := sim.Run(p, pol)
	observeRun(mode, time.Since(t0), err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	summary := RunSummary{
		TEnd:      res.TEnd,
		Dt:        res.Dt,
		Steps:     res.Traj.Steps(),
		RHillAU:   res.State.RHill,
		HZInnerAU: res.HZInnerAU,
		HZOuterAU: res.HZOuterAU,
		RuntimeS:  time.Since(t0).Seconds(),
	}
	if body.IncludeTrajectory {
		packed, err := export.Pack(res.Traj)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		summary.Packed = packed
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *httpAPI) runOrbit(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "orbit", func(*float64) (sim.RunPolicy, error) {
		return sim.SingleOrbit(), nil
	})
}

func (h *httpAPI) runYears(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "years", func(years *float64) (sim.RunPolicy, error) {
		if years == nil {
			return sim.RunPolicy{}, errors.New("missing years")
		}
		return sim.ForYears(*years), nil
	})
}

func (h *httpAPI) assessStability(w http.ResponseWriter, r *http.Request) {
	body, p, years, err := h.decode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if years == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing years"))
		return
	}
	factor := 1.0
	if body.EscapeFactor != nil {
		factor = *body.EscapeFactor
	}
	t0 := time.Now()
	rep, err := stability.Assess(p, *years, factor)
	observeRun("stability", time.Since(t0), err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *httpAPI) lookupPlanet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rec, err := h.archive.Fetch(r.Context(), name)
	if err == nil {
		observeLookup("hit")
		resp := planetResponse{Found: true, Data: rec}
		if d, ok := archive.EstimateDensityCGS(rec.MpEarth, rec.RpEarth); ok {
			resp.DensityCGS = &d
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if !errors.Is(err, archive.ErrNoMatch) {
		observeLookup("error")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	observeLookup("miss")
	candidates, serr := h.archive.Search(r.Context(), name, 6)
	if serr != nil {
		slog.Warn("archive search failed", "error", serr, "name", name)
	}
	writeJSON(w, http.StatusNotFound, planetResponse{Found: false, Candidates: candidates})
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
