package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/exolab/exomoon/internal/analysis"
	"github.com/exolab/exomoon/internal/archive"
	"github.com/exolab/exomoon/internal/config"
	"github.com/exolab/exomoon/internal/diagnostics"
	"github.com/exolab/exomoon/internal/export"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/server"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
	"github.com/exolab/exomoon/internal/storage"
	"github.com/exolab/exomoon/internal/sweep"
	"github.com/exolab/exomoon/internal/viz"
)

var (
	// System parameter flags
	ts      float64
	rsSolar float64
	msSolar float64
	mpEarth float64
	dpCGS   float64
	apAU    float64
	ep      float64
	mmEarth float64
	amHill  float64
	em      float64
	moonDir string

	// Run control
	configFile string
	preset     string

	// Export
	outPath  string
	columns  string
	svgPath  string
	svgLocal bool

	// Sweep
	sweepFrom    float64
	sweepTo      float64
	sweepPoints  int
	sweepWorkers int

	// Servers
	httpAddr string
	outDir   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Flags registered on more than one command with differing defaults
// (years, escape-factor, plot, save/dir) are plain flags read from
// cmd.Flags() in the handlers: binding them to a shared variable would
// leave the last-registered default in effect for every command.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "exomoon",
		Short: "hierarchical star-planet-moon orbital integrator and stability lab",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one full planetary orbit",
		RunE:  runOrbit,
	}
	addSystemFlags(runCmd)
	runCmd.Flags().Bool("plot", false, "plot moon-planet separation")

	stabilityCmd := &cobra.Command{
		Use:   "stability",
		Short: "assess moon stability over a fixed duration",
		RunE:  runStability,
	}
	addSystemFlags(stabilityCmd)
	stabilityCmd.Flags().Float64("years", config.DefaultYears, "simulated duration in years")
	stabilityCmd.Flags().Float64("escape-factor", config.DefaultEscapeFactor, "escape threshold as a multiple of the Hill radius")
	stabilityCmd.Flags().Bool("plot", false, "plot separation against threshold")
	stabilityCmd.Flags().String("save", "", "save the run under this directory")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export a trajectory as CSV",
		RunE:  runExport,
	}
	addSystemFlags(exportCmd)
	exportCmd.Flags().Float64("years", 0, "fixed duration; 0 runs a single orbit")
	exportCmd.Flags().StringVar(&outPath, "out", "exomoon.csv", "output file")
	exportCmd.Flags().StringVar(&columns, "columns", "", "comma-separated column subset")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also render an orbit SVG to this path")
	exportCmd.Flags().BoolVar(&svgLocal, "svg-local", false, "draw the SVG in the planet-centred frame")

	fetchCmd := &cobra.Command{
		Use:   "fetch <planet>",
		Short: "look up a planet in the NASA Exoplanet Archive",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep the moon's Hill fraction and map stability",
		RunE:  runSweep,
	}
	addSystemFlags(sweepCmd)
	sweepCmd.Flags().Float64("years", config.DefaultYears, "duration per run")
	sweepCmd.Flags().Float64("escape-factor", config.DefaultEscapeFactor, "escape threshold multiplier")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "lowest Hill fraction")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0.9, "highest Hill fraction")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 17, "grid points")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "worker pool size (0 = all cores)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "replay a stability run in the terminal",
		RunE:  runLive,
	}
	addSystemFlags(liveCmd)
	liveCmd.Flags().Float64("years", config.DefaultYears, "simulated duration in years")
	liveCmd.Flags().Float64("escape-factor", config.DefaultEscapeFactor, "escape threshold multiplier")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "serve the simulator as MCP tools on stdio",
		RunE:  runMCP,
	}
	mcpCmd.Flags().StringVar(&outDir, "out-dir", "outputs", "directory for exported files")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the JSON API and metrics over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&httpAddr, "addr", ":8050", "listen address")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list runs saved with 'stability --save'",
		RunE:  listRuns,
	}
	runsCmd.Flags().String("dir", "runs", "run store directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in system presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, stabilityCmd, exportCmd, fetchCmd, sweepCmd,
		liveCmd, mcpCmd, serveCmd, runsCmd, presetsCmd)
	return rootCmd
}

func addSystemFlags(cmd *cobra.Command) {
	def := params.Default()
	cmd.Flags().Float64Var(&ts, "ts", def.Ts, "stellar temperature (K)")
	cmd.Flags().Float64Var(&rsSolar, "rs", def.RsSolar, "stellar radius (solar radii)")
	cmd.Flags().Float64Var(&msSolar, "ms", def.MsSolar, "stellar mass (solar masses)")
	cmd.Flags().Float64Var(&mpEarth, "mp", def.MpEarth, "planet mass (Earth masses)")
	cmd.Flags().Float64Var(&dpCGS, "dp", def.DpCGS, "planet density (g/cm^3)")
	cmd.Flags().Float64Var(&apAU, "ap", def.ApAU, "planet semi-major axis (AU)")
	cmd.Flags().Float64Var(&ep, "ep", def.Ep, "planet eccentricity")
	cmd.Flags().Float64Var(&mmEarth, "mm", def.MmEarth, "moon mass (Earth masses)")
	cmd.Flags().Float64Var(&amHill, "am", def.AmHill, "moon semi-major axis (Hill radius fraction)")
	cmd.Flags().Float64Var(&em, "em", def.Em, "moon eccentricity")
	cmd.Flags().StringVar(&moonDir, "moon-dir", "prograde", "moon orbital sense (prograde|retrograde)")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in preset name")
}

// systemFromFlags resolves precedence: preset/config file first, then any
// explicitly set flags on top.
func systemFromFlags(cmd *cobra.Command) (params.System, *config.Config, error) {
	cfg := config.Default()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return params.System{}, nil, fmt.Errorf("unknown preset %q (try 'exomoon presets')", preset)
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return params.System{}, nil, err
		}
		cfg = loaded
	}

	p := cfg.System
	set := func(name string, dst *float64, v float64) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("ts", &p.Ts, ts)
	set("rs", &p.RsSolar, rsSolar)
	set("ms", &p.MsSolar, msSolar)
	set("mp", &p.MpEarth, mpEarth)
	set("dp", &p.DpCGS, dpCGS)
	set("ap", &p.ApAU, apAU)
	set("ep", &p.Ep, ep)
	set("mm", &p.MmEarth, mmEarth)
	set("am", &p.AmHill, amHill)
	set("em", &p.Em, em)
	if cmd.Flags().Changed("moon-dir") {
		p.MoonDir = params.ParseDirection(moonDir)
	}
	return p, cfg, nil
}

func runOrbit(cmd *cobra.Command, args []string) error {
	p, _, err := systemFromFlags(cmd)
	if err != nil {
		return err
	}
	res, err := sim.Run(p, sim.SingleOrbit())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "orbital period\t%.6g yr\n", res.TEnd)
	fmt.Fprintf(w, "step size\t%.4e yr\n", res.Dt)
	fmt.Fprintf(w, "steps\t%d\n", res.Traj.Steps())
	fmt.Fprintf(w, "hill radius\t%.6g AU\n", res.State.RHill)
	fmt.Fprintf(w, "moon sma\t%.6g AU\n", res.State.MoonSMA)
	fmt.Fprintf(w, "planet radius\t%.6g km\n", res.State.PlanetRadiusKM)
	fmt.Fprintf(w, "habitable zone\t%.4g - %.4g AU\n", res.HZInnerAU, res.HZOuterAU)
	fmt.Fprintf(w, "energy drift\t%.3e\n", diagnostics.DriftOver(res.Traj, res.State))
	w.Flush()

	if plot, _ := cmd.Flags().GetBool("plot"); plot {
		sep := stability.Separations(res.Traj)
		fmt.Println(viz.SeparationPlot(sep, nil, res.Dt))
	}
	return nil
}

func runStability(cmd *cobra.Command, args []string) error {
	p, cfg, err := systemFromFlags(cmd)
	if err != nil {
		return err
	}
	years, _ := cmd.Flags().GetFloat64("years")
	if !cmd.Flags().Changed("years") && cfg.Years > 0 {
		years = cfg.Years
	}
	escapeFactor, _ := cmd.Flags().GetFloat64("escape-factor")
	if !cmd.Flags().Changed("escape-factor") && cfg.EscapeFactor > 0 {
		escapeFactor = cfg.EscapeFactor
	}

	res, err := sim.Run(p, sim.ForYears(years))
	if err != nil {
		return err
	}
	rep := stability.Classify(res.Traj, res.State.RHill, escapeFactor)
	sep := stability.Separations(res.Traj)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "stable\t%v\n", rep.Stable)
	fmt.Fprintf(w, "max separation\t%.6g AU\n", rep.MaxSeparation)
	fmt.Fprintf(w, "hill radius\t%.6g AU\n", rep.HillRadius)
	if rep.Threshold != nil {
		fmt.Fprintf(w, "threshold\t%.6g AU (x%.3g)\n", *rep.Threshold, rep.EscapeFactor)
	}
	if rep.EscapeTime != nil {
		fmt.Fprintf(w, "escape time\t%.6g yr\n", *rep.EscapeTime)
		fmt.Fprintf(w, "escape index\t%d\n", *rep.EscapeIndex)
	}
	if period := analysis.DominantPeriod(sep, res.Dt); period > 0 {
		fmt.Fprintf(w, "observed moon period\t%.5g yr\n", period)
	}
	fmt.Fprintf(w, "energy drift\t%.3e\n", diagnostics.DriftOver(res.Traj, res.State))
	fmt.Fprintf(w, "duration\t%.6g yr\n", rep.TEnd)
	fmt.Fprintf(w, "step size\t%.4e yr\n", rep.Dt)
	w.Flush()

	if saveDir, _ := cmd.Flags().GetString("save"); saveDir != "" {
		store := storage.New(saveDir)
		if err := store.Init(); err != nil {
			return err
		}
		id, err := store.Save(res, rep)
		if err != nil {
			return err
		}
		fmt.Printf("saved run %s\n", id)
	}

	if plot, _ := cmd.Flags().GetBool("plot"); plot {
		fmt.Println(viz.SeparationPlot(sep, rep.Threshold, res.Dt))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	p, _, err := systemFromFlags(cmd)
	if err != nil {
		return err
	}
	years, _ := cmd.Flags().GetFloat64("years")
	policy := sim.SingleOrbit()
	if years > 0 {
		policy = sim.ForYears(years)
	}
	res, err := sim.Run(p, policy)
	if err != nil {
		return err
	}

	frame := export.Build(res.Traj)
	if columns != "" {
		frame = frame.Select(splitCSVList(columns))
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := frame.WriteCSV(file); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows x %d columns to %s\n", frame.Rows(), len(frame.Columns), outPath)

	if svgPath != "" {
		svg := export.OrbitSVG(res.Traj, 900, 900)
		if svgLocal {
			svg = export.MoonLocalSVG(res.Traj, 900, 900)
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client := archive.NewClient()
	rec, err := client.Fetch(ctx, name)
	if errors.Is(err, archive.ErrNoMatch) {
		fmt.Printf("no match for %q\n", name)
		candidates, serr := client.Search(ctx, name, 6)
		if serr == nil && len(candidates) > 0 {
			fmt.Println("did you mean:")
			for _, c := range candidates {
				fmt.Printf("  %s\n", c)
			}
		}
		return nil
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "planet\t%s\n", rec.PlanetName)
	fmt.Fprintf(w, "host\t%s\n", rec.HostName)
	pf := func(label, unit string, v *float64) {
		if v != nil {
			fmt.Fprintf(w, "%s\t%g %s\n", label, *v, unit)
		}
	}
	pf("teff", "K", rec.Ts)
	pf("star radius", "Rsun", rec.RsSolar)
	pf("star mass", "Msun", rec.MsSolar)
	pf("planet mass", "Mearth", rec.MpEarth)
	pf("planet radius", "Rearth", rec.RpEarth)
	pf("semi-major axis", "AU", rec.ApAU)
	pf("eccentricity", "", rec.Ep)
	if d, ok := archive.EstimateDensityCGS(rec.MpEarth, rec.RpEarth); ok {
		fmt.Fprintf(w, "density (est)\t%.3g g/cm^3\n", d)
	}
	w.Flush()
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, _, err := systemFromFlags(cmd)
	if err != nil {
		return err
	}
	years, _ := cmd.Flags().GetFloat64("years")
	escapeFactor, _ := cmd.Flags().GetFloat64("escape-factor")
	grid := sweep.Grid{
		Base:          p,
		HillFractions: sweep.HillRange(sweepFrom, sweepTo, sweepPoints),
		Years:         years,
		EscapeFactor:  escapeFactor,
		Workers:       sweepWorkers,
	}

	points, err := grid.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "am_hill\tstable\tmax sep (AU)\tescape time (yr)")
	fractions := make([]float64, 0, len(points))
	maxSep := make([]float64, 0, len(points))
	for _, pt := range points {
		if pt.Err != nil {
			fmt.Fprintf(w, "%.4g\terror: %v\n", pt.AmHill, pt.Err)
			continue
		}
		esc := "-"
		if pt.Report.EscapeTime != nil {
			esc = fmt.Sprintf("%.5g", *pt.Report.EscapeTime)
		}
		fmt.Fprintf(w, "%.4g\t%v\t%.5g\t%s\n", pt.AmHill, pt.Report.Stable, pt.Report.MaxSeparation, esc)
		fractions = append(fractions, pt.AmHill)
		maxSep = append(maxSep, pt.Report.MaxSeparation)
	}
	w.Flush()

	fmt.Println()
	fmt.Print(viz.SweepPlot(fractions, maxSep))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	p, _, err := systemFromFlags(cmd)
	if err != nil {
		return err
	}
	years, _ := cmd.Flags().GetFloat64("years")
	escapeFactor, _ := cmd.Flags().GetFloat64("escape-factor")
	res, err := sim.Run(p, sim.ForYears(years))
	if err != nil {
		return err
	}
	rep := stability.Classify(res.Traj, res.State.RHill, escapeFactor)
	return viz.Run(res, rep)
}

func listRuns(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	runs, err := storage.New(dir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\twhen\tstable\tmax sep (AU)\tt_end (yr)")
	for _, run := range runs {
		stable := "-"
		maxSep := "-"
		if run.Report != nil {
			stable = fmt.Sprintf("%v", run.Report.Stable)
			maxSep = fmt.Sprintf("%.5g", run.Report.MaxSeparation)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.5g\n", run.ID,
			run.Timestamp.Format(time.DateTime), stable, maxSep, run.TEnd)
	}
	return w.Flush()
}

func runMCP(cmd *cobra.Command, args []string) error {
	// Keep logs off stdout; stdio carries JSON-RPC.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	srv := server.NewMCPServer(archive.NewClient(), params.Default(), outDir)
	slog.Info("starting exomoon MCP server (stdio)")
	return srv.ServeStdio()
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	handler := server.HTTPHandler(archive.NewClient(), params.Default())
	httpServer := &http.Server{Addr: httpAddr, Handler: handler}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("exomoon API listening", "addr", httpAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		slog.Info("server stopped")
		return nil
	}
}

func splitCSVList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
