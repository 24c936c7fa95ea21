// Package server exposes the simulator to external callers: an MCP tool
// server for agent integration and an HTTP API for the dashboard. Both
// are thin layers; a failed call never corrupts a computed result.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/exolab/exomoon/internal/archive"
	"github.com/exolab/exomoon/internal/export"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
)

const serverVersion = "0.1.0"

// MCPServer wraps the simulation core as a set of MCP tools.
type MCPServer struct {
	mcp      *server.MCPServer
	archive  *archive.Client
	defaults params.System
	outDir   string
}

// NewMCPServer registers the tool surface. outDir receives exported CSV
// files; archive lookups go through arch.
func NewMCPServer(arch *archive.Client, defaults params.System, outDir string) *MCPServer {
	s := &MCPServer{
		mcp:      server.NewMCPServer("exomoon", serverVersion),
		archive:  arch,
		defaults: defaults,
		outDir:   outDir,
	}
	s.registerTools()
	return s
}

// ServeStdio runs the server over stdin/stdout.
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// RunSummary is the compact result of a simulation tool call.
type RunSummary struct {
	TEnd      float64 `json:"t_end" jsonschema_description:"Simulated duration in years"`
	Dt        float64 `json:"dt" jsonschema_description:"Realized step size in years"`
	Steps     int     `json:"n_steps"`
	RHillAU   float64 `json:"rhill_AU"`
	HZInnerAU float64 `json:"hz_inner_AU"`
	HZOuterAU float64 `json:"hz_outer_AU"`
	RuntimeS  float64 `json:"runtime_s"`
	Packed    string  `json:"packed,omitempty" jsonschema_description:"Base64 transport form of the trajectory, when requested"`
}

// FetchResult carries an archive lookup or its ranked suggestions.
type FetchResult struct {
	Found      bool            `json:"found"`
	Message    string          `json:"message"`
	Data       *archive.Record `json:"data,omitempty"`
	DensityCGS *float64        `json:"dp_cgs,omitempty" jsonschema_description:"Bulk density estimated from mass and radius"`
	Candidates []string        `json:"candidates,omitempty"`
}

// ExportResult points at a written CSV file.
type ExportResult struct {
	Path    string   `json:"csv_path"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// paramsFromArg accepts the "params" tool argument as an object or a JSON
// string and overlays it on the defaults. Returns the embedded "years"
// entry when present.
func (s *MCPServer) paramsFromArg(v any) (params.System, *float64) {
	var m map[string]any
	switch x := v.(type) {
	case map[string]any:
		m = x
	case string:
		_ = json.Unmarshal([]byte(x), &m)
	}
	return params.FromMap(s.defaults, m)
}

func argFloat(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := params.Number(x)
		return f, err == nil
	}
	return 0, false
}

func (s *MCPServer) registerTools() {
	paramsDesc := mcp.Description("System parameters as an object or JSON string; omitted keys use the defaults")

	runTool := mcp.NewTool("run_sim",
		mcp.WithDescription("Simulate one full planetary orbit of the star-planet-moon system."),
		mcp.WithObject("params", paramsDesc),
		mcp.WithBoolean("include_trajectory", mcp.Description("Attach the packed trajectory to the result")),
		mcp.WithOutputSchema[RunSummary](),
	)
	s.mcp.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunSim))

	runYearsTool := mcp.NewTool("run_sim_years",
		mcp.WithDescription("Simulate the system for an explicit number of years."),
		mcp.WithObject("params", paramsDesc),
		mcp.WithNumber("years", mcp.Description("Duration in years; may also appear inside params")),
		mcp.WithBoolean("include_trajectory", mcp.Description("Attach the packed trajectory to the result")),
		mcp.WithOutputSchema[RunSummary](),
	)
	s.mcp.AddTool(runYearsTool, mcp.NewStructuredToolHandler(s.handleRunSimYears))

	stabilityTool := mcp.NewTool("assess_stability",
		mcp.WithDescription("Classify moon stability: stable if the planar moon-planet separation stays within escape_factor times the Hill radius."),
		mcp.WithObject("params", paramsDesc),
		mcp.WithNumber("years", mcp.Required(), mcp.Description("Assessment window in years")),
		mcp.WithNumber("escape_factor", mcp.Description("Multiplier on the Hill radius, default 1.0")),
		mcp.WithOutputSchema[stability.Report](),
	)
	s.mcp.AddTool(stabilityTool, mcp.NewStructuredToolHandler(s.handleStability))

	escapeTool := mcp.NewTool("moon_escape_info",
		mcp.WithDescription("Detailed escape analysis: escape time (interpolated to sub-step precision), first exceeding sample, threshold."),
		mcp.WithObject("params", paramsDesc),
		mcp.WithNumber("years", mcp.Required()),
		mcp.WithNumber("escape_factor"),
		mcp.WithOutputSchema[stability.Report](),
	)
	s.mcp.AddTool(escapeTool, mcp.NewStructuredToolHandler(s.handleStability))

	fetchTool := mcp.NewTool("fetch_exoplanet",
		mcp.WithDescription("Look up a planet in the NASA Exoplanet Archive; returns ranked name suggestions when there is no match."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Planet name, e.g. 'Kepler-62 f'")),
		mcp.WithOutputSchema[FetchResult](),
	)
	s.mcp.AddTool(fetchTool, mcp.NewStructuredToolHandler(s.handleFetch))

	exportTool := mcp.NewTool("export_csv",
		mcp.WithDescription("Run a simulation and export the trajectory as CSV (time, positions, velocities, derived distances)."),
		mcp.WithObject("params", paramsDesc),
		mcp.WithNumber("years", mcp.Description("Fixed duration; omit for a single orbit")),
		mcp.WithString("columns", mcp.Description("Comma-separated column subset; t_years is always kept")),
		mcp.WithOutputSchema[ExportResult](),
	)
	s.mcp.AddTool(exportTool, mcp.NewStructuredToolHandler(s.handleExportCSV))
}

func (s *MCPServer) runWithPolicy(args map[string]any, policy sim.RunPolicy) (RunSummary, *sim.Result, error) {
	p, _ := s.paramsFromArg(args["params"])
	t0 := time.Now()
	res, err := sim.Run(p, policy)
	if err != nil {
		return RunSummary{}, nil, err
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
	if want, _ := args["include_trajectory"].(bool); want {
		packed, err := export.Pack(res.Traj)
		if err != nil {
			return RunSummary{}, nil, err
		}
		summary.Packed = packed
	}
	return summary, res, nil
}

func (s *MCPServer) handleRunSim(ctx context.Context, req mcp.CallToolRequest, args map[string]any) (RunSummary, error) {
	summary, _, err := s.runWithPolicy(args, sim.SingleOrbit())
	if err != nil {
		slog.Error("run_sim failed", "error", err)
		return RunSummary{}, err
	}
	return summary, nil
}

func (s *MCPServer) handleRunSimYears(ctx context.Context, req mcp.CallToolRequest, args map[string]any) (RunSummary, error) {
	_, embedded := s.paramsFromArg(args["params"])
	years, ok := argFloat(args, "years")
	if !ok && embedded != nil {
		years, ok = *embedded, true
	}
	if !ok {
		return RunSummary{}, fmt.Errorf("missing years (pass the argument or include 'years' in params)")
	}
	summary, _, err := s.runWithPolicy(args, sim.ForYears(years))
	if err != nil {
		slog.Error("run_sim_years failed", "error", err, "years", years)
		return RunSummary{}, err
	}
	return summary, nil
}

func (s *MCPServer) handleStability(ctx context.Context, req mcp.CallToolRequest, args map[string]any) (stability.Report, error) {
	p, embedded := s.paramsFromArg(args["params"])
	years, ok := argFloat(args, "years")
	if !ok && embedded != nil {
		years, ok = *embedded, true
	}
	if !ok {
		return stability.Report{}, fmt.Errorf("missing years")
	}
	factor, ok := argFloat(args, "escape_factor")
	if !ok {
		factor = 1.0
	}
	rep, err := stability.Assess(p, years, factor)
	if err != nil {
		slog.Error("stability assessment failed", "error", err)
		return stability.Report{}, err
	}
	return *rep, nil
}

func (s *MCPServer) handleFetch(ctx context.Context, req mcp.CallToolRequest, args map[string]any) (FetchResult, error) {
	name, _ := args["name"].(string)
	rec, err := s.archive.Fetch(ctx, name)
	if err == nil {
		out := FetchResult{
			Found:   true,
			Message: fmt.Sprintf("Loaded %s", rec.PlanetName),
			Data:    rec,
		}
		if d, ok := archive.EstimateDensityCGS(rec.MpEarth, rec.RpEarth); ok {
			out.DensityCGS = &d
		}
		return out, nil
	}

	candidates, serr := s.archive.Search(ctx, name, 6)
	if serr != nil {
		slog.Warn("archive search failed", "error", serr, "name", name)
	}
	return FetchResult{
		Found:      false,
		Message:    fmt.Sprintf("No exact match for %q.", name),
		Candidates: candidates,
	}, nil
}

func (s *MCPServer) handleExportCSV(ctx context.Context, req mcp.CallToolRequest, args map[string]any) (ExportResult, error) {
	policy := sim.SingleOrbit()
	name := "exomoon_dataset_orbit.csv"
	if years, ok := argFloat(args, "years"); ok && years > 0 {
		policy = sim.ForYears(years)
		name = fmt.Sprintf("exomoon_dataset_%dy.csv", int(years))
	}

	_, res, err := s.runWithPolicy(args, policy)
	if err != nil {
		return ExportResult{}, err
	}

	frame := export.Build(res.Traj)
	if cols, _ := args["columns"].(string); cols != "" {
		frame = frame.Select(splitColumns(cols))
	}

	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return ExportResult{}, err
	}
	path := filepath.Join(s.outDir, name)
	file, err := os.Create(path)
	if err != nil {
		return ExportResult{}, err
	}
	defer file.Close()
	if err := frame.WriteCSV(file); err != nil {
		return ExportResult{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return ExportResult{Path: abs, Rows: frame.Rows(), Columns: frame.Columns}, nil
}
