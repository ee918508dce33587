package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/levelflow/internal/config"
	"github.com/san-kum/levelflow/internal/gui"
	"github.com/san-kum/levelflow/internal/logging"
	"github.com/san-kum/levelflow/internal/sim"
	"github.com/san-kum/levelflow/internal/viz"
)

const logFile = "levelflow.log"

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	complexity int
	coupling   []float64
	modes      []string
	seed       int64
	ticks      int
	fps        int
	theme      string
	pick       bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "levelflow",
		Short:        "particle flow between levels of organisation",
		SilenceUsage: true,
		RunE:         runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".levelflow", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&logLevel, "log-level", "", "trace, debug, info, warn or error")
	pf.IntVar(&complexity, "complexity", 0, "nodes per level (2-6)")
	pf.Float64SliceVar(&coupling, "coupling", nil, "three pair couplings (0.1-2.0)")
	pf.StringSliceVar(&modes, "modes", nil, "active modes: feedback, emergence, energy")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	pf.IntVar(&ticks, "ticks", 0, "ticks for headless runs")
	pf.IntVar(&fps, "fps", 0, "frames per second")

	rootCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset before starting")
	themeHelp := "color theme (" + strings.Join(viz.ThemeNames(), ", ") + ")"
	rootCmd.Flags().StringVar(&theme, "theme", "", themeHelp)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the terminal view",
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset before starting")
	liveCmd.Flags().StringVar(&theme, "theme", "", themeHelp)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the desktop window",
		RunE:  runGUI,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(out, "  %-14s %s\n", name, p.Description)
			}
			return nil
		},
	}

	rootCmd.AddCommand(liveCmd, guiCmd, presetsCmd)
	rootCmd.AddCommand(runCommands()...)
	return rootCmd
}

// loadConfig layers defaults, preset, config file and changed flags in that
// order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("complexity") {
		cfg.Complexity = complexity
	}
	if flags.Changed("coupling") {
		if len(coupling) != len(cfg.Coupling) {
			return nil, fmt.Errorf("--coupling needs %d values, got %d", len(cfg.Coupling), len(coupling))
		}
		copy(cfg.Coupling[:], coupling)
	}
	if flags.Changed("modes") {
		cfg.Modes = modes
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stderrLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.LogLevel, os.Stderr)
}

// fileLogger is used by full-screen views, which own the terminal.
func fileLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, f, err := logging.OpenFile(dataDir, logFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, f, nil
}

func newSimulation(cfg *config.Config, logger *slog.Logger) (*sim.Simulation, error) {
	opts, err := cfg.SimOptions(logger)
	if err != nil {
		return nil, err
	}
	return sim.New(opts)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if pick {
		return viz.RunInteractive(cmd.Context(), cfg, logger)
	}

	s, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	sched := sim.NewScheduler(s, cfg.Interval())
	sched.SetLogger(logger)
	err = viz.Run(cmd.Context(), sched,
		viz.WithTheme(cfg.Theme),
		viz.WithLogger(logger),
		viz.WithSVGDir(dataDir),
	)
	logger.Info("live view closed", "frames", sched.Frames())
	return err
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)
	s, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	gui.Run(s, "levelflow", cfg.FPS, logger)
	return nil
}
