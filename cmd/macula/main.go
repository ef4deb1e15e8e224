// Package main provides the CLI entrypoint for macula.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/config"
	"github.com/verte-zerg/macula/internal/engine"
	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/logging"
	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/observer"
	"github.com/verte-zerg/macula/internal/sentences"
	"github.com/verte-zerg/macula/internal/stats"
	"github.com/verte-zerg/macula/internal/tui"
)

const (
	defaultEye        = "right"
	defaultPlotHeight = 8
)

var (
	engineSeed int64
	logLevel   string
	logFile    string

	amslerEye              string
	amslerBlinkIntervalMs  int
	amslerBlinkProbability float64
	amslerBlinkDurationMs  int

	readingSentences string

	observerPhpThreshold    float64
	observerMChartThreshold float64
	observerSdhSensitivity  float64
	observerLapse           float64
	observerScotoma         []string
	observerReadingWPM      float64

	plotWidth  int
	plotHeight int
	plotColor  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "macula",
		Short:         "Self-administered visual function screening",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.Int64Var(&engineSeed, "seed", 0, "random seed for reproducible sessions (0: time-based)")
	pf.StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level: debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "write JSON logs to this file (rotated)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newTestsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addAmslerFlags(cmd *cobra.Command) {
	def := engine.DefaultBlinkOptions()
	cmd.Flags().StringVar(&amslerEye, "eye", defaultEye, "eye under test: right or left")
	cmd.Flags().IntVar(&amslerBlinkIntervalMs, "blink-interval-ms", int(def.Interval.Milliseconds()), "milliseconds between blink rolls")
	cmd.Flags().Float64Var(&amslerBlinkProbability, "blink-probability", def.Probability, "chance of a blink per roll (0-1)")
	cmd.Flags().IntVar(&amslerBlinkDurationMs, "blink-duration-ms", int(def.Duration.Milliseconds()), "blink length in milliseconds")
}

func addReadingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&readingSentences, "sentences", "", "reading corpus file (default: built-in sentences)")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run reading",
		Short: "Run the interactive reading-speed test",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunCmd,
	}
	addReadingFlags(cmd)
	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	if kind != model.TestReading {
		return fmt.Errorf("%s has no terminal console; try: macula simulate %s", kind.Title(), kind)
	}
	fileCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// The console owns the terminal, so logs only go to a file.
	log, closeLog, err := logging.New(logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return err
	}
	defer closeLogger(closeLog)

	corpus, err := resolveSentences(fileCfg)
	if err != nil {
		return err
	}
	reading, err := engine.NewReading(corpus, engine.ReadingOptions{Logger: log})
	if err != nil {
		return err
	}
	m := tui.NewModel(reading, log)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if res := m.Result(); len(res.Attempts) > 0 {
		return stats.RenderResult(cmd.OutOrStdout(), res, plotOptions())
	}
	return nil
}

func newSimulateCmd() *cobra.Command {
	def := observer.DefaultProfile()
	cmd := &cobra.Command{
		Use:   "simulate <test>",
		Short: "Run a test against a simulated observer and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulateCmd,
	}
	addAmslerFlags(cmd)
	addReadingFlags(cmd)
	cmd.Flags().Float64Var(&observerPhpThreshold, "php-threshold", def.PhpThreshold, "offset detected half the time (0.02-0.4)")
	cmd.Flags().Float64Var(&observerMChartThreshold, "mchart-threshold", def.MChartThreshold, "dot spacing seen bent half the time")
	cmd.Flags().Float64Var(&observerSdhSensitivity, "sdh-sensitivity", def.SdhSensitivity, "chance of finding the hidden segment (0-1)")
	cmd.Flags().Float64Var(&observerLapse, "lapse", def.Lapse, "chance of an attention slip per trial (0-1)")
	cmd.Flags().StringArrayVar(&observerScotoma, "scotoma", nil, "blind cell as row,col (repeatable)")
	cmd.Flags().Float64Var(&observerReadingWPM, "reading-wpm", def.ReadingWPM, "reading rate in words per minute")
	cmd.Flags().IntVar(&plotWidth, "width", 0, "plot width in columns (0: terminal width)")
	cmd.Flags().IntVar(&plotHeight, "height", defaultPlotHeight, "plot height in rows")
	cmd.Flags().BoolVar(&plotColor, "color", false, "force colored plots")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	fileCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := validateSettings(); err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Options{Level: logLevel, File: logFile, Console: true})
	if err != nil {
		return err
	}
	defer closeLogger(closeLog)

	profile, err := observerProfile()
	if err != nil {
		return err
	}
	gen := newGenerator()
	obs, err := observer.New(profile, gen)
	if err != nil {
		return err
	}
	log.Debug("simulation started", zap.String("test", string(kind)), zap.Int64("seed", engineSeed))

	ctx := cmd.Context()
	var result model.Result
	switch kind {
	case model.TestAmsler:
		eye, _ := model.ParseEye(amslerEye)
		result = observer.RunAmsler(ctx, obs, observer.AmslerOptions{
			Eye:    eye,
			Blink:  blinkOptions(),
			Clock:  observer.NewSimClock(time.Now()),
			Logger: log,
		})
	case model.TestReading:
		corpus, err := resolveSentences(fileCfg)
		if err != nil {
			return err
		}
		result, err = observer.RunReading(ctx, corpus, obs, observer.NewSimClock(time.Now()), log)
		if err != nil {
			return err
		}
	default:
		seq, err := engine.Start(kind, engine.Options{Generator: gen, Logger: log})
		if err != nil {
			return err
		}
		result, err = observer.RunTrials(ctx, seq, obs)
		if err != nil {
			return err
		}
	}
	return stats.RenderResult(cmd.OutOrStdout(), result, plotOptions())
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List available tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, kind := range model.AllTestKinds() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", kind, kind.Title()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func parseKind(name string) (model.TestKind, error) {
	kind, ok := model.ParseTestKind(name)
	if !ok {
		names := make([]string, 0, len(model.AllTestKinds()))
		for _, k := range model.AllTestKinds() {
			names = append(names, string(k))
		}
		return "", fmt.Errorf("%w %q (available: %s)", engine.ErrUnknownTest, name, strings.Join(names, ", "))
	}
	return kind, nil
}

// loadSettings merges the config file into the flag variables. Flags given
// on the command line win.
func loadSettings(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyInt64Config(cmd, "seed", &engineSeed, fileCfg.Engine.Seed)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	applyStringConfig(cmd, "eye", &amslerEye, fileCfg.Amsler.Eye)
	applyIntConfig(cmd, "blink-interval-ms", &amslerBlinkIntervalMs, fileCfg.Amsler.BlinkIntervalMs)
	applyFloatConfig(cmd, "blink-probability", &amslerBlinkProbability, fileCfg.Amsler.BlinkProbability)
	applyIntConfig(cmd, "blink-duration-ms", &amslerBlinkDurationMs, fileCfg.Amsler.BlinkDurationMs)
	applyStringConfig(cmd, "sentences", &readingSentences, fileCfg.Reading.Sentences)
	applyFloatConfig(cmd, "php-threshold", &observerPhpThreshold, fileCfg.Observer.PhpThreshold)
	applyFloatConfig(cmd, "mchart-threshold", &observerMChartThreshold, fileCfg.Observer.MChartThreshold)
	applyFloatConfig(cmd, "sdh-sensitivity", &observerSdhSensitivity, fileCfg.Observer.SdhSensitivity)
	applyFloatConfig(cmd, "lapse", &observerLapse, fileCfg.Observer.Lapse)
	applyStringsConfig(cmd, "scotoma", &observerScotoma, fileCfg.Observer.Scotoma)
	applyFloatConfig(cmd, "reading-wpm", &observerReadingWPM, fileCfg.Observer.ReadingWPM)
	return fileCfg, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyStringsConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil || flagChanged(cmd, name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil || flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || flagChanged(cmd, name) {
		return
	}
	*target = *value
}

// flagChanged reports whether the user set a flag. Flags a command does not
// define count as unset, which leaves the config value in place.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func validateSettings() error {
	if _, ok := model.ParseEye(amslerEye); !ok {
		return fmt.Errorf("--eye must be right or left")
	}
	if amslerBlinkIntervalMs < 0 {
		return fmt.Errorf("--blink-interval-ms must be >= 0")
	}
	if amslerBlinkDurationMs < 0 {
		return fmt.Errorf("--blink-duration-ms must be >= 0")
	}
	if amslerBlinkProbability < 0 || amslerBlinkProbability > 1 {
		return fmt.Errorf("--blink-probability must be between 0 and 1")
	}
	if plotHeight <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	return nil
}

func observerProfile() (observer.Profile, error) {
	p := observer.Profile{
		PhpThreshold:    observerPhpThreshold,
		MChartThreshold: observerMChartThreshold,
		SdhSensitivity:  observerSdhSensitivity,
		Lapse:           observerLapse,
		ReadingWPM:      observerReadingWPM,
	}
	for _, s := range observerScotoma {
		c, err := observer.ParseCell(s)
		if err != nil {
			return observer.Profile{}, err
		}
		p.Scotoma = append(p.Scotoma, c)
	}
	return p, p.Validate()
}

func blinkOptions() engine.BlinkOptions {
	return engine.BlinkOptions{
		Interval:    time.Duration(amslerBlinkIntervalMs) * time.Millisecond,
		Duration:    time.Duration(amslerBlinkDurationMs) * time.Millisecond,
		Probability: amslerBlinkProbability,
	}
}

func newGenerator() *generator.Generator {
	if engineSeed == 0 {
		return generator.New()
	}
	return generator.NewSeeded(engineSeed)
}

func plotOptions() stats.PlotOptions {
	return stats.PlotOptions{Width: plotWidth, Height: plotHeight, Color: plotColor}
}

// resolveSentences picks the corpus: an explicit file, then the default
// corpus path if present, then the built-in sentences.
func resolveSentences(fileCfg config.FileConfig) ([]model.Sentence, error) {
	path := readingSentences
	explicit := path != "" || fileCfg.Reading.Sentences != nil
	if path == "" {
		path = config.DefaultSentencesPath()
	}
	corpus, err := sentences.Load(path)
	switch {
	case err == nil:
		return corpus, nil
	case !explicit && errors.Is(err, os.ErrNotExist):
		return sentences.Default(), nil
	default:
		return nil, fmt.Errorf("failed to load sentences: %w", err)
	}
}

func defaultConfigTemplate() string {
	def := engine.DefaultBlinkOptions()
	obs := observer.DefaultProfile()
	return fmt.Sprintf(`# macula configuration
# Uncomment a value to enable it. CLI flags override config values.

[engine]
# seed = 0                  # Random seed; 0 draws a new seed every run

[amsler]
# eye = %q              # Eye under test: right or left
# blink-interval-ms = %d  # Milliseconds between blink rolls
# blink-probability = %.1f  # Chance of a blink per roll (0-1)
# blink-duration-ms = %d   # Blink length in milliseconds

[reading]
# sentences = %q  # One sentence per line; "count|text" declares the word count

[observer]
# php-threshold = %.2f     # Offset the simulated eye detects half the time
# mchart-threshold = %.1f   # Dot spacing seen bent half the time
# sdh-sensitivity = %.1f    # Chance of finding the hidden segment
# lapse = %.2f             # Chance of an attention slip per trial
# scotoma = ["2,2"]         # Central-field cells the simulated eye cannot see
# reading-wpm = %.1f      # Reading rate in words per minute

[log]
# level = %q             # debug, info, warn or error
# file = %q
`,
		defaultEye,
		def.Interval.Milliseconds(),
		def.Probability,
		def.Duration.Milliseconds(),
		config.DefaultSentencesPath(),
		obs.PhpThreshold,
		obs.MChartThreshold,
		obs.SdhSensitivity,
		obs.Lapse,
		obs.ReadingWPM,
		logging.DefaultLevel,
		config.DefaultLogPath(),
	)
}

func closeLogger(closeFn func() error) {
	if err := closeFn(); err != nil {
		logErrf("failed to close log: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
