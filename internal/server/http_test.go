package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exolab/exomoon/internal/archive"
	"github.com/exolab/exomoon/internal/export"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/stability"
)

func testHandler(t *testing.T, tapBody string) http.Handler {
	t.Helper()
	tap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tapBody))
	}))
	t.Cleanup(tap.Close)

	arch := archive.NewClient(archive.WithBaseURL(tap.URL), archive.WithHTTPClient(tap.Client()))
	return HTTPHandler(arch, params.Default())
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := testHandler(t, "[]")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	h := testHandler(t, "[]")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRunOrbit(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/run", map[string]any{
		"params": map[string]any{"mp_earth": 1.0, "ap_au": 1.0, "ms_solar": 1.0, "mm_earth": 0.01},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got RunSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Greater(t, got.TEnd, 0.0)
	assert.Greater(t, got.Dt, 0.0)
	assert.Greater(t, got.Steps, 0)
	assert.Greater(t, got.RHillAU, 0.0)
	assert.Empty(t, got.Packed)
}

func TestRunOrbitWithTrajectory(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/run", map[string]any{
		"params":             map[string]any{"am_hill": 0.25},
		"include_trajectory": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got RunSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotEmpty(t, got.Packed)

	traj, err := export.Unpack(got.Packed)
	require.NoError(t, err)
	assert.Equal(t, got.Steps, traj.Steps())
}

func TestRunRejectsInvalidParams(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/run", map[string]any{
		"params": map[string]any{"ms_solar": 0},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
}

func TestRunRejectsMalformedBody(t *testing.T) {
	h := testHandler(t, "[]")
	req := httptest.NewRequest(http.MethodPost, "/api/run", bytes.NewReader([]byte("{nope")))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunYears(t *testing.T) {
	h := testHandler(t, "[]")
	years := 0.05
	rr := postJSON(t, h, "/api/run/years", map[string]any{"years": years})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got RunSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.InDelta(t, years, got.TEnd, 1e-12)
}

func TestRunYearsMissingYears(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/run/years", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunYearsFromParams(t *testing.T) {
	// "years" may ride inside the params map.
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/run/years", map[string]any{
		"params": map[string]any{"years": 0.05},
	})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestStabilityEndpoint(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/stability", map[string]any{
		"params": map[string]any{
			"ts": 5772.0, "rs_solar": 1.0, "ms_solar": 1.0,
			"mp_earth": 1.0, "dp_cgs": 5.5, "ap_au": 1.0,
			"mm_earth": 0.01, "am_hill": 0.25,
		},
		"years":         0.05,
		"escape_factor": 2.0,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var rep stability.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.True(t, rep.Stable)
	assert.Equal(t, 2.0, rep.EscapeFactor)
	require.NotNil(t, rep.Threshold)
	assert.InDelta(t, 2.0*rep.HillRadius, *rep.Threshold, 1e-12)
}

func TestStabilityMissingYears(t *testing.T) {
	h := testHandler(t, "[]")
	rr := postJSON(t, h, "/api/stability", map[string]any{"params": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLookupPlanetFound(t *testing.T) {
	h := testHandler(t, `[{"pl_name":"Kepler-62 f","hostname":"Kepler-62",
"st_teff":4925.0,"pl_bmasse":35.0,"pl_rade":1.41}]`)

	req := httptest.NewRequest(http.MethodGet, "/api/planets/Kepler-62%20f", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp planetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Kepler-62 f", resp.Data.PlanetName)
	require.NotNil(t, resp.DensityCGS)
}

func TestLookupPlanetMiss(t *testing.T) {
	h := testHandler(t, "[]")
	req := httptest.NewRequest(http.MethodGet, "/api/planets/Nonexistent", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var resp planetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
}
