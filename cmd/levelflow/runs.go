package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/levelflow/internal/analysis"
	"github.com/san-kum/levelflow/internal/automation"
	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/experiment"
	"github.com/san-kum/levelflow/internal/export"
	"github.com/san-kum/levelflow/internal/storage"
)

var (
	runName     string
	metricNames []string
	column      string
	lag         int
	outPath     string
	sweepPair   int
	sweepFrom   float64
	sweepTo     float64
	sweepStep   float64
	sweepRuns   int
)

func runCommands() []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and save the series",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	runCmd.Flags().StringVar(&runName, "name", "run", "run name")
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to collect (default all)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list available metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range experiment.NewRegistry().ListMetrics() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "column to plot (default all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary, spectrum and return map of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "population", "column to analyze")
	analyzeCmd.Flags().IntVar(&lag, "lag", 1, "return map lag in ticks")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg",
		Short: "run headless and render the last frame as SVG",
		Args:  cobra.NoArgs,
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "replay a scripted control sequence",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one pair coupling and average metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&sweepPair, "pair", 0, "coupling pair index (0-2)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", dynamo.MinCoupling, "first coupling value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", dynamo.MaxCoupling, "last coupling value")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 0.1, "coupling increment")
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 4, "seeds per value")

	return []*cobra.Command{runCmd, listCmd, metricsCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, svgCmd, scenarioCmd, sweepCmd}
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)

	opts, err := cfg.SimOptions(logger)
	if err != nil {
		return err
	}
	ms, err := experiment.NewRegistry().Metrics(metricNames...)
	if err != nil {
		return err
	}

	exp := experiment.New(experiment.Config{Name: runName, Sim: opts, Ticks: cfg.Ticks})
	if err := exp.Setup(ms); err != nil {
		return err
	}
	logger.Info("running", "name", runName, "ticks", cfg.Ticks, "seed", opts.Seed)
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:          runName,
		Seed:          opts.Seed,
		Complexity:    cfg.Complexity,
		Coupling:      cfg.Coupling,
		Modes:         cfg.Modes,
		MaxPopulation: cfg.MaxPopulation,
	}, result)
	if err != nil {
		return err
	}
	logger.Info("saved", "run", runID, "memory", result.MemoryEntries)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", runID)
	printMetrics(out, result.Metrics)
	return nil
}

func printMetrics(out io.Writer, m map[string]float64) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range experiment.NewRegistry().ListMetrics() {
		if v, ok := m[name]; ok {
			fmt.Fprintf(w, "  %s\t%.4f\n", name, v)
		}
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSAVED\tTICKS\tCOMPLEXITY\tCOUPLING\tMODES\tMEMORY")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\t%d\n",
			run.ID,
			run.Age(),
			humanize.Comma(int64(run.Ticks)),
			run.Complexity,
			run.Coupling,
			strings.Join(run.Modes, ","),
			run.MemoryEntries,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	cols := dynamo.Columns
	if column != "" {
		cols = []string{column}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "samples: %d\n\n", len(result.Samples))
	for _, col := range cols {
		data, err := result.Column(col)
		if err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	sum, err := analysis.Summarize(result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "analysis: %s\n\n", meta.ID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ticks\t%s\n", humanize.Comma(int64(sum.Ticks)))
	fmt.Fprintf(w, "  mean population\t%.2f\n", sum.MeanPopulation)
	fmt.Fprintf(w, "  peak population\t%d\n", sum.PeakPopulation)
	fmt.Fprintf(w, "  spawned\t%s\n", humanize.Comma(int64(sum.Spawned)))
	fmt.Fprintf(w, "  expired\t%s\n", humanize.Comma(int64(sum.Expired)))
	fmt.Fprintf(w, "  recorded\t%d\n", sum.Recorded)
	fmt.Fprintf(w, "  critical\t%.1f%%\n", sum.CriticalFraction*100)
	fmt.Fprintf(w, "  upward\t%.1f%%\n", sum.UpwardFraction*100)
	w.Flush()
	fmt.Fprintln(out)

	data, err := result.Column(column)
	if err != nil {
		return fmt.Errorf("%s: %w", column, err)
	}
	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		graph := asciigraph.Plot(ps[1:],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+column+")"),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	period, power, err := analysis.DominantPeriod(data)
	if err == nil && period > 0 {
		fmt.Fprintf(out, "dominant period: %.1f ticks (power %.2f)\n\n", period, power)
	}

	if portrait := analysis.ReturnMap(data, lag); portrait != nil {
		fmt.Fprintf(out, "return map, lag %d:\n", lag)
		fmt.Fprintln(out, analysis.PhasePortraitToASCII(portrait, 60, 20))
	}
	return nil
}

// output returns stdout or the created --out file.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath != "" {
		return storage.ExportCSV(outPath, result)
	}
	return storage.WriteCSV(cmd.OutOrStdout(), result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath != "" {
		return storage.ExportJSON(outPath, *meta, result)
	}
	return storage.WriteJSON(cmd.OutOrStdout(), *meta, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSimulation(cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	if err := s.Run(cmd.Context(), cfg.Ticks, nil); err != nil {
		return err
	}

	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(w, s.Snapshot()); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Preset != "" && !cmd.Flags().Changed("preset") {
		preset = sc.Preset
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sc.Seed != 0 && !cmd.Flags().Changed("seed") {
		cfg.Seed = sc.Seed
	}
	logger := stderrLogger(cfg)
	s, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}

	reports, err := sc.Run(cmd.Context(), s, logger)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tACTION\tTICK\tSTATE\tPOP\tMEMORY\tCRITICAL")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%d\t%v\n",
			r.Index, r.Action, r.Tick, r.State, r.Population, r.Memory, r.Critical)
	}
	w.Flush()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.SimOptions(stderrLogger(cfg))
	if err != nil {
		return err
	}
	opts.Logger = nil

	points, err := automation.Sweep(cmd.Context(), automation.SweepConfig{
		Base:      opts,
		Pair:      sweepPair,
		From:      sweepFrom,
		To:        sweepTo,
		Step:      sweepStep,
		Runs:      sweepRuns,
		Ticks:     cfg.Ticks,
		SeedStart: opts.Seed,
	})
	if err != nil {
		return err
	}

	names := experiment.NewRegistry().ListMetrics()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "COUPLING\tOPTIMAL\tCRITICAL\t%s\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, p := range points {
		fmt.Fprintf(w, "%.2f\t%d\t%v", p.Value, p.Optimal, p.Critical)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.3f", p.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

