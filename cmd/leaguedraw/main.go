package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/config"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/excel"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/simulate"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/validator"
)

const defaultConfigFile = "config.yaml"

var (
	logger  = zap.NewNop()
	verbose bool
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "leaguedraw",
		Short: "League phase draw with country and pot constraints",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine activity (dead ends, restarts)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	drawCmd := &cobra.Command{
		Use:   "draw",
		Short: "Run, validate and simulate draws",
	}

	var configFile string
	drawCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var (
		outputFile string
		seed       int64
		ceremony   bool
	)
	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Draw the league phase and save it as an Excel workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			var seedFlag *int64
			if cmd.Flags().Changed("seed") {
				seedFlag = &seed
			}
			return runDraw(configPath, outputFile, seedFlag, ceremony)
		},
	}
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "draw.xlsx", "Output Excel file path")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: config seed, else the clock)")
	runCmd.Flags().BoolVar(&ceremony, "ceremony", false, "Print every pick as it is drawn, team by team")

	validateCmd := &cobra.Command{
		Use:          "validate <draw.xlsx>",
		Short:        "Validate a draw workbook against the config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	var simOpts struct {
		trials     int
		workers    int
		seed       int64
		matchesOut string
		eloOut     string
		coeffOut   string
	}
	simulateCmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Run many independent draws in parallel",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runSimulate(cmd.Context(), configPath, simOpts.trials, simOpts.workers, simOpts.seed,
				simOpts.matchesOut, simOpts.eloOut, simOpts.coeffOut)
		},
	}
	simulateCmd.Flags().IntVarP(&simOpts.trials, "trials", "n", 1000, "Number of draws")
	simulateCmd.Flags().IntVar(&simOpts.workers, "workers", 0, "Parallel draws (default: number of CPUs)")
	simulateCmd.Flags().Int64Var(&simOpts.seed, "seed", 1, "Seed of the first draw; draw i uses seed+i")
	simulateCmd.Flags().StringVar(&simOpts.matchesOut, "matches-out", "", "Append every draw's fixtures to this file")
	simulateCmd.Flags().StringVar(&simOpts.eloOut, "elo-out", "", "Append every draw's summed opponent Elo per team to this file")
	simulateCmd.Flags().StringVar(&simOpts.coeffOut, "coefficient-out", "", "Append every draw's summed opponent coefficient per team to this file")

	drawCmd.AddCommand(runCmd, validateCmd, simulateCmd)
	rootCmd.AddCommand(initCmd, drawCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func loadLeague(configPath string) (*config.Config, *model.League, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	l, err := cfg.League()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func runDraw(configPath, outputPath string, seedFlag *int64, ceremony bool) error {
	cfg, l, err := loadLeague(configPath)
	if err != nil {
		return err
	}

	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return err
	}
	switch {
	case seedFlag != nil:
		opts.Seed = *seedFlag
	case cfg.Draw.Seed == nil:
		opts.Seed = time.Now().UnixNano()
	}

	e, err := draw.New(l, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Drawing %d teams in %d pots of %d (seed %d)...\n", l.NumTeams(), l.NumPots(), l.PotSize(), opts.Seed)

	var result *draw.Result
	if ceremony {
		result, err = runCeremony(draw.NewSession(e))
	} else {
		result, err = e.Run()
	}
	if err != nil {
		var inf *draw.InfeasibleError
		if errors.As(err, &inf) {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", inf)
		}
		return err
	}

	s := result.Stats
	fmt.Printf("✓ All %d matches drawn (%d dead ends, %d backtracks, %d restarts)\n",
		len(result.Matches()), s.DeadEnds, s.Backtracks, s.Restarts)

	fmt.Println("\nOpponent Strength:")
	fmt.Printf("  %-22s %4s %8s %8s\n", "Team", "Pot", "Elo", "Coeff")
	for _, t := range l.Teams() {
		st := result.OpponentStrength(t.ID)
		fmt.Printf("  %-22s %4d %8.1f %8.2f\n", t.Name, t.Pot, st.Elo, st.Coefficient)
	}

	if v := validator.CheckResult(result); len(v) > 0 {
		for _, vi := range v {
			fmt.Printf("  ✗ %s\n", vi.Message)
		}
		return fmt.Errorf("draw failed validation with %d violations", len(v))
	}

	f, err := excel.Generate(l, result)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Draw %s saved to %s\n", result.ID, outputPath)
	return nil
}

// runCeremony drives the draw through the presentation contract, printing
// each pick the way it would be announced.
func runCeremony(s *draw.Session) (*draw.Result, error) {
	e := s.Engine()
	l := e.League()
	for i := 0; i < l.NumTeams(); i++ {
		name, err := s.SelectedTeamName(i)
		if err != nil {
			return nil, err
		}
		team, _ := e.CurrentTeam()
		fmt.Printf("\nPot %d · %s\n", team.Pot, name)
		for _, p := range e.OwedPots() {
			pairs, err := s.AdmissibleMatchups(i, int(p))
			if err != nil {
				return nil, err
			}
			pick, err := s.SelectMatchup(i, int(p))
			if err != nil {
				return nil, err
			}
			fmt.Printf("  pot %d: hosts %-22s visits %-22s (%d candidates)\n", p, pick.Home, pick.Away, len(pairs))
		}
	}
	if st := e.Stats(); st.Backtracks+st.Restarts > 0 {
		fmt.Println("\n⚠ Backtracking revised some earlier picks; the table below is the final draw")
	}
	return e.Result()
}

func runValidate(configPath, drawPath string) error {
	_, l, err := loadLeague(configPath)
	if err != nil {
		return err
	}

	violations, err := validator.Validate(l, drawPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	ruleErrors := 0
	warnings := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			ruleErrors++
			fmt.Printf("✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning%s: %s\n", where, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", ruleErrors, warnings)

	// Regenerate team sheets from the match list
	if err := excel.UpdateTeamSheets(drawPath, l); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", drawPath)

	if ruleErrors > 0 {
		return fmt.Errorf("%d rule violations found", ruleErrors)
	}
	return nil
}

func runSimulate(ctx context.Context, configPath string, trials, workers int, seed int64, matchesOut, eloOut, coeffOut string) error {
	cfg, l, err := loadLeague(configPath)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return err
	}

	fmt.Printf("Running %s draws...\n", humanize.Comma(int64(trials)))
	s, err := simulate.Run(ctx, l, simulate.Options{Trials: trials, Workers: workers, Seed: seed, Engine: opts})
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s of %s draws completed in %s\n",
		humanize.Comma(int64(s.Completed)), humanize.Comma(int64(s.Trials)), s.Elapsed.Round(time.Millisecond))
	if s.Infeasible > 0 {
		fmt.Printf("⚠ %s draws infeasible\n", humanize.Comma(int64(s.Infeasible)))
	}
	fmt.Printf("  %s dead ends, %s backtracks, %s restarts\n",
		humanize.Comma(int64(s.DeadEnds)), humanize.Comma(int64(s.Backtracks)), humanize.Comma(int64(s.Restarts)))

	if s.Completed > 0 {
		fmt.Println("\nMean Opponent Strength:")
		fmt.Printf("  %-22s %4s %8s %8s\n", "Team", "Pot", "Elo", "Coeff")
		for _, t := range l.Teams() {
			st := s.MeanStrength[t.ID]
			fmt.Printf("  %-22s %4d %8.1f %8.2f\n", t.Name, t.Pot, st.Elo, st.Coefficient)
		}
	}

	outputs := []struct {
		path  string
		write func(*os.File) error
	}{
		{matchesOut, func(f *os.File) error { return simulate.WriteMatches(f, s.Results) }},
		{eloOut, func(f *os.File) error { return simulate.WriteRatings(f, s.Results, simulate.RatingElo) }},
		{coeffOut, func(f *os.File) error { return simulate.WriteRatings(f, s.Results, simulate.RatingCoefficient) }},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := appendTo(o.path, o.write); err != nil {
			return err
		}
		fmt.Printf("✓ Appended to %s\n", o.path)
	}
	return nil
}

func appendTo(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
