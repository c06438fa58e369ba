package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/metrics"
	"github.com/san-kum/trajopt/internal/replay"
	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/sweep"
	"github.com/san-kum/trajopt/internal/train"
	"github.com/san-kum/trajopt/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	epochs     int
	horizon    int
	lr         float64
	decay      float64
	targetX    float64
	targetY    float64
	initX      float64
	initY      float64
	initTheta  float64
	floorY     float64
	noSave     bool
	// Frame rate for live replay
	frameRate int
	// Sweep grids
	lrValues      []float64
	barrierValues []float64
	sweepEpochs   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajopt",
		Short: "differentiable trajectory optimization for a planar drone",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trajopt", "data directory")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "optimize a thrust schedule by gradient descent",
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	optimizeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	optimizeCmd.Flags().IntVar(&epochs, "epochs", 200, "training epochs")
	optimizeCmd.Flags().IntVar(&horizon, "horizon", 100, "rollout steps")
	optimizeCmd.Flags().Float64Var(&lr, "lr", 0.1, "learning rate")
	optimizeCmd.Flags().Float64Var(&decay, "decay", 0.0, "weight decay")
	optimizeCmd.Flags().Float64Var(&targetX, "target-x", 0.0, "target x position")
	optimizeCmd.Flags().Float64Var(&targetY, "target-y", 0.5, "target altitude")
	optimizeCmd.Flags().Float64Var(&initX, "x", -5.0, "initial x position")
	optimizeCmd.Flags().Float64Var(&initY, "y", 5.0, "initial altitude")
	optimizeCmd.Flags().Float64Var(&initTheta, "theta", 0.0, "initial tilt")
	optimizeCmd.Flags().Float64Var(&floorY, "floor", -5.0, "barrier floor altitude")
	optimizeCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "simulate the hover schedule without optimizing",
		RunE:  runRollout,
	}
	rolloutCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	rolloutCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rolloutCmd.Flags().IntVar(&horizon, "horizon", 100, "rollout steps")
	rolloutCmd.Flags().Float64Var(&initX, "x", -5.0, "initial x position")
	rolloutCmd.Flags().Float64Var(&initY, "y", 5.0, "initial altitude")
	rolloutCmd.Flags().Float64Var(&initTheta, "theta", 0.0, "initial tilt")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot loss curve and state traces",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "re-simulate stored controls and report metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "animate a stored trajectory in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  liveRun,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 25, "frame rate")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a run's trajectory CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time rollouts and training epochs",
		RunE:  runBench,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid-search learning rate and barrier weight",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	sweepCmd.Flags().Float64SliceVar(&lrValues, "lr", []float64{0.05, 0.1, 0.2}, "learning rates to try")
	sweepCmd.Flags().Float64SliceVar(&barrierValues, "barrier", []float64{10, 20, 40}, "barrier weights to try")
	sweepCmd.Flags().IntVar(&sweepEpochs, "epochs", 50, "epochs per grid point")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				cfg := config.GetPreset(name)
				fmt.Printf("%-10s init=(%.1f, %.1f) target=(%.1f, %.1f)\n",
					name, cfg.InitState.X, cfg.InitState.Y, cfg.Target.X, cfg.Target.Y)
			}
			return nil
		},
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default config to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(optimizeCmd, rolloutCmd, listCmd, plotCmd, replayCmd, liveCmd,
		exportCmd, exportCSVCmd, benchCmd, sweepCmd, presetsCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig builds the effective config: preset, then config file, then
// any flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("epochs") {
		cfg.Epochs = epochs
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Horizon = horizon
	}
	if cmd.Flags().Changed("lr") {
		cfg.LR = lr
	}
	if cmd.Flags().Changed("decay") {
		cfg.Decay = decay
	}
	if cmd.Flags().Changed("target-x") {
		cfg.Target.X = targetX
	}
	if cmd.Flags().Changed("target-y") {
		cfg.Target.Y = targetY
	}
	if cmd.Flags().Changed("x") {
		cfg.InitState.X = initX
	}
	if cmd.Flags().Changed("y") {
		cfg.InitState.Y = initY
	}
	if cmd.Flags().Changed("theta") {
		cfg.InitState.Theta = initTheta
	}
	if cmd.Flags().Changed("floor") {
		cfg.FloorY = floorY
	}

	return cfg, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, err := cfg.Params()
	if err != nil {
		return err
	}
	obj, err := cfg.Objective()
	if err != nil {
		return err
	}

	trainer, err := train.New(p, obj, cfg.Init(), cfg.TrainConfig())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("optimizing %d-step schedule over %d epochs (lr=%.3g)\n", cfg.Horizon, cfg.Epochs, cfg.LR)
	start := time.Now()

	lossCurve := make([]float64, 0, cfg.Epochs)
	err = trainer.Run(ctx, func(s train.EpochStats) {
		lossCurve = append(lossCurve, s.Loss)
		if s.Epoch%10 == 0 || s.Epoch == cfg.Epochs-1 {
			fmt.Printf("epoch %3d  loss=%10.4f  min_y=%7.3f  final=(%6.2f, %6.2f)\n",
				s.Epoch, s.Loss, s.MinY, s.FinalX, s.FinalY)
		}
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	left, right := trainer.Controls()
	frames, err := replay.Simulate(p, cfg.Init(), left, right)
	if err != nil {
		return err
	}

	ms := metrics.Default(p.HoverThrust(), cfg.Target.X, cfg.Target.Y)
	collected := metrics.Collect(frames, ms)

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Println(viz.Summary(frames))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, collected[name])
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runID, err := st.Save(storage.Run{
		Meta: storage.RunMetadata{
			Preset:    preset,
			Timestamp: time.Now(),
			Config:    cfg,
			Dt:        cfg.Physics.Dt,
			Horizon:   cfg.Horizon,
			Epochs:    cfg.Epochs,
			LR:        cfg.LR,
			FinalLoss: lossCurve[len(lossCurve)-1],
			Metrics:   collected,
		},
		Frames:    frames,
		Left:      left,
		Right:     right,
		LossCurve: lossCurve,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tHORIZON\tEPOCHS\tLR\tFINAL LOSS")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3g\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			name,
			run.Horizon,
			run.Epochs,
			run.LR,
			run.FinalLoss,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	curve, err := st.LoadLossCurve(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("epochs: %d, final loss: %.4f\n\n", meta.Epochs, meta.FinalLoss)

	fmt.Println(viz.LossCurve(curve))
	fmt.Println()
	fmt.Println(viz.StateTraces(frames))
	fmt.Println(viz.Summary(frames))

	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	left, right, err := st.LoadControls(runID)
	if err != nil {
		return err
	}

	cfg := meta.Scenario()
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	frames, err := replay.Simulate(p, cfg.Init(), left, right)
	if err != nil {
		return err
	}

	ms := metrics.Default(p.HoverThrust(), cfg.Target.X, cfg.Target.Y)
	collected := metrics.Collect(frames, ms)

	fmt.Printf("run: %s (%d frames)\n", meta.ID, len(frames))
	fmt.Println(viz.Summary(frames))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, collected[name])
	}

	return nil
}

func liveRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	cfg := meta.Scenario()
	return viz.RunReplay(frames, cfg.Target.X, cfg.Target.Y, frameRate)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportJSON(os.Stdout, args[0])
}

func runRollout(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, err := cfg.Params()
	if err != nil {
		return err
	}

	left := make([]float64, cfg.Horizon)
	right := make([]float64, cfg.Horizon)
	for i := range left {
		left[i] = p.HoverThrust()
		right[i] = p.HoverThrust()
	}

	frames, err := replay.Simulate(p, cfg.Init(), left, right)
	if err != nil {
		return err
	}

	fmt.Printf("hover schedule, %d steps at dt=%.3g\n\n", cfg.Horizon, cfg.Physics.Dt)
	fmt.Println(viz.StateTraces(frames))
	fmt.Println(viz.Summary(frames))
	return nil
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportCSV(os.Stdout, args[0])
}

func runBench(cmd *cobra.Command, args []string) error {
	p, err := config.DefaultConfig().Params()
	if err != nil {
		return err
	}
	obj, err := config.DefaultConfig().Objective()
	if err != nil {
		return err
	}
	init := config.DefaultConfig().Init()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tHORIZON\tTIME\tSTEPS/SEC")

	for _, h := range []int{100, 500, 1000} {
		left := make([]float64, h)
		right := make([]float64, h)
		for i := range left {
			left[i] = p.HoverThrust()
			right[i] = p.HoverThrust()
		}

		start := time.Now()
		if _, err := replay.Simulate(p, init, left, right); err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "replay\t%d\t%v\t%.0f\n", h, elapsed, float64(h)/elapsed.Seconds())
	}

	for _, h := range []int{50, 100} {
		trainer, err := train.New(p, obj, init, train.Config{Horizon: h, Epochs: 10, LearningRate: 0.1})
		if err != nil {
			return err
		}

		start := time.Now()
		if err := trainer.Run(context.Background(), nil); err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "train (10 epochs)\t%d\t%v\t%.0f\n", h, elapsed, float64(10*h)/elapsed.Seconds())
	}

	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	gs, err := sweep.NewGridSearch(
		[]string{"learning_rate", "barrier"},
		[][]float64{lrValues, barrierValues},
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %d grid points (%d epochs each)\n\n", len(lrValues)*len(barrierValues), sweepEpochs)

	eval := func(ctx context.Context, params map[string]float64) (float64, error) {
		point := *cfg
		point.LR = params["learning_rate"]
		point.Weights.Barrier = params["barrier"]
		point.Epochs = sweepEpochs

		p, err := point.Params()
		if err != nil {
			return 0, err
		}
		obj, err := point.Objective()
		if err != nil {
			return 0, err
		}
		trainer, err := train.New(p, obj, point.Init(), point.TrainConfig())
		if err != nil {
			return 0, err
		}

		var last float64
		if err := trainer.Run(ctx, func(s train.EpochStats) { last = s.Loss }); err != nil {
			return 0, err
		}
		fmt.Printf("  lr=%-6.3g barrier=%-6.3g loss=%.4f\n", params["learning_rate"], params["barrier"], last)
		return last, nil
	}

	best, score, err := gs.Search(ctx, eval)
	if err != nil {
		return err
	}

	fmt.Printf("\nbest: lr=%.3g barrier=%.3g (loss=%.4f)\n", best["learning_rate"], best["barrier"], score)
	return nil
}
