package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/metrics"
	"github.com/lawnchairsociety/wavetiles/internal/render"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	genTiles       string
	genWidth       int
	genHeight      int
	genOutWidth    int
	genOutHeight   int
	genSeed        int64
	genRetries     int
	genOut         string
	genMetricsFile string

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Solve a grid and render it to a PNG",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
)

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genTiles, "tiles", "", "Tile image directory (overrides tiles.dir)")
	f.IntVar(&genWidth, "width", 0, "Grid width in cells (overrides grid.width)")
	f.IntVar(&genHeight, "height", 0, "Grid height in cells (overrides grid.height)")
	f.IntVar(&genOutWidth, "out-width", 0, "Output image width in pixels (overrides output.width)")
	f.IntVar(&genOutHeight, "out-height", 0, "Output image height in pixels (overrides output.height)")
	f.Int64Var(&genSeed, "seed", 0, "Random seed, 0 for time based (overrides solve.seed)")
	f.IntVar(&genRetries, "retries", 0, "Attempts before giving up (overrides solve.max_attempts)")
	f.StringVarP(&genOut, "out", "o", "", "Output PNG path (overrides output.path)")
	f.StringVar(&genMetricsFile, "metrics-file", "", "Write Prometheus metrics of this run to a textfile")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	if f.Changed("tiles") {
		cfg.Tiles.Dir = genTiles
	}
	if f.Changed("width") {
		cfg.Grid.Width = genWidth
	}
	if f.Changed("height") {
		cfg.Grid.Height = genHeight
	}
	if f.Changed("out-width") {
		cfg.Output.Width = genOutWidth
	}
	if f.Changed("out-height") {
		cfg.Output.Height = genOutHeight
	}
	if f.Changed("seed") {
		cfg.Solve.Seed = genSeed
	}
	if f.Changed("retries") {
		cfg.Solve.MaxAttempts = genRetries
	}
	if f.Changed("out") {
		cfg.Output.Path = genOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	report, err := generate(cmd.Context(), cfg, cmd.OutOrStdout())
	if report != nil && genMetricsFile != "" {
		if werr := prometheus.WriteToTextfile(genMetricsFile, report.Metrics.Registry()); werr != nil {
			logger.Warning("Failed to write metrics file", "path", genMetricsFile, "error", werr)
		}
	}
	return err
}

// generateReport describes one generate run
type generateReport struct {
	Result     *wfc.Result
	OutputPath string
	RunID      string
	Metrics    *metrics.Metrics

	ScanTime, SolveTime, RenderTime time.Duration
}

// generate scans the tiles, solves, renders and records one run. A halted or
// interrupted solve is still rendered and recorded before its error is returned.
func generate(ctx context.Context, c *config.Config, out io.Writer) (*generateReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := &generateReport{Metrics: metrics.New(prometheus.NewRegistry())}

	start := time.Now()
	set, err := loadTileSet(c)
	if err != nil {
		return nil, err
	}
	report.ScanTime = time.Since(start)
	fmt.Fprintf(out, "SCAN IMAGES: %s (%d tiles)\n", seconds(report.ScanTime), set.Catalog.Len())

	for _, t := range set.Catalog.Isolated() {
		logger.Warning("Tile has a side no tile can border", "tile", t.Name)
	}

	timeout, err := c.Solve.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	gen := wfc.NewGenerator(set.Catalog, wfc.GenerateConfig{
		Width:         c.Grid.Width,
		Height:        c.Grid.Height,
		Seed:          resolveSeed(c.Solve.Seed),
		MaxAttempts:   c.Solve.MaxAttempts,
		MaxSteps:      c.Solve.MaxSteps,
		AcceptPartial: c.Solve.AcceptPartial,
	})
	gen.Observer = func(attempt int, ev wfc.StepEvent) {
		if ev.Outcome == wfc.OutcomeContradiction {
			logger.Debug("Contradiction", "attempt", attempt+1, "x", ev.X, "y", ev.Y, "step", ev.Step)
		}
	}

	done := report.Metrics.SolveStarted()
	start = time.Now()
	result, solveErr := gen.Generate(ctx)
	report.SolveTime = time.Since(start)
	done()
	if result == nil {
		return nil, solveErr
	}
	report.Result = result
	report.Metrics.ObserveResult(result, report.SolveTime)
	fmt.Fprintf(out, "WAVE FUNCTION: %s (%s after %d attempt(s), seed %d)\n",
		seconds(report.SolveTime), result.State, result.Attempts, result.Seed)

	start = time.Now()
	img, err := render.Compose(result.Width, result.Height, result.Placements, set, renderOptions(c.Output))
	if err != nil {
		return report, err
	}
	report.OutputPath = c.Output.OutputPath()
	if err := render.WritePNG(report.OutputPath, img); err != nil {
		return report, err
	}
	report.RenderTime = time.Since(start)
	fmt.Fprintf(out, "IMAGE GEN: %s (%s)\n", seconds(report.RenderTime), report.OutputPath)

	report.RunID = recordRun(c, result, set.Fingerprint, report.OutputPath)
	if report.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", report.RunID)
	}

	logger.Always("Generation complete",
		"grid", fmt.Sprintf("%dx%d", result.Width, result.Height),
		"state", result.State,
		"seed", result.Seed,
		"attempts", result.Attempts,
		"collapsed", result.CollapsedCount,
		"output", report.OutputPath)

	if solveErr != nil && !errors.Is(solveErr, wfc.ErrNoSolution) {
		logger.Warning("Solve stopped before finishing", "error", solveErr)
	}
	return report, solveErr
}

// recordRun stores a result in the run history. Failures are logged, not returned.
func recordRun(c *config.Config, result *wfc.Result, fingerprint, outputPath string) string {
	db, err := openHistory(c)
	if err != nil {
		logger.Warning("Run history unavailable", "error", err)
		return ""
	}
	if db == nil {
		return ""
	}
	defer db.Close()

	run, cells := database.RunFromResult(result, fingerprint, outputPath)
	if err := db.RecordRun(run, cells); err != nil {
		logger.Warning("Failed to record run", "error", err)
		return ""
	}
	return run.ID
}
