// Package main provides the CLI entrypoint for echosnap.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/echosnap/internal/capture"
	"github.com/verte-zerg/echosnap/internal/config"
	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/guidance"
	"github.com/verte-zerg/echosnap/internal/library"
	"github.com/verte-zerg/echosnap/internal/libraryui"
	"github.com/verte-zerg/echosnap/internal/libstats"
	"github.com/verte-zerg/echosnap/internal/model"
	"github.com/verte-zerg/echosnap/internal/tui"
)

const (
	defaultMaxZoom         = 5.0
	defaultZoomRampRate    = 8.0
	defaultFocusClearMs    = 1000
	defaultRotationMs      = 500
	defaultExposureDivisor = 50.0
	defaultTemperature     = 0.2
	terminalWidthBackup    = 80
	zoomTrendWindow        = 5
)

var (
	captureReference  string
	captureMaxZoom    float64
	captureFocusClear int
	captureRotation   int
	captureDivisor    float64

	guidanceModel string
	guidanceTemp  float64

	libraryPlain bool
	librarySince string
	libraryLast  int

	statsHeight int
	statsColor  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "echosnap",
		Short:         "Terminal viewfinder for replicating reference photos",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Best-effort .env load for GEMINI_API_KEY.
			_ = godotenv.Load()
		},
		RunE: runCaptureCmd,
	}

	rootCmd.Flags().StringVar(&captureReference, "reference", "", "reference image to replicate")
	rootCmd.Flags().Float64Var(&captureMaxZoom, "max-zoom", defaultMaxZoom, "app zoom cap")
	rootCmd.Flags().IntVar(&captureFocusClear, "focus-clear-ms", defaultFocusClearMs, "unlocked focus auto-clear delay (ms)")
	rootCmd.Flags().IntVar(&captureRotation, "rotation-settle-ms", defaultRotationMs, "session restart delay after rotation (ms)")
	rootCmd.Flags().Float64Var(&captureDivisor, "exposure-divisor", defaultExposureDivisor, "drag-to-bias sensitivity divisor")
	rootCmd.Flags().StringVar(&guidanceModel, "model", guidance.DefaultModel, "vision model for guidance")
	rootCmd.Flags().Float64Var(&guidanceTemp, "temperature", defaultTemperature, "vision model temperature")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLibraryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newGuideCmd())

	return rootCmd
}

func runCaptureCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "max-zoom", &captureMaxZoom, fileCfg.Capture.MaxZoom)
	applyIntConfig(cmd, "focus-clear-ms", &captureFocusClear, fileCfg.Capture.FocusClearMs)
	applyIntConfig(cmd, "rotation-settle-ms", &captureRotation, fileCfg.Capture.RotationSettle)
	applyFloatConfig(cmd, "exposure-divisor", &captureDivisor, fileCfg.Capture.ExposureDivisor)
	applyStringConfig(cmd, "model", &guidanceModel, fileCfg.Guidance.Model)
	applyFloatConfig(cmd, "temperature", &guidanceTemp, fileCfg.Guidance.Temperature)

	rampRate := defaultZoomRampRate
	if fileCfg.Capture.ZoomRampRate != nil {
		rampRate = *fileCfg.Capture.ZoomRampRate
	}
	cfg := model.Config{
		MaxZoom:         captureMaxZoom,
		ZoomRampRate:    rampRate,
		FocusClearDelay: time.Duration(captureFocusClear) * time.Millisecond,
		RotationSettle:  time.Duration(captureRotation) * time.Millisecond,
		ExposureDivisor: captureDivisor,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	gcfg := model.GuidanceConfig{
		Model:       guidanceModel,
		Temperature: guidanceTemp,
	}
	if fileCfg.Guidance.Prompt != nil {
		gcfg.Prompt = *fileCfg.Guidance.Prompt
	}

	var reference []byte
	var refMIME string
	if captureReference != "" {
		reference, err = os.ReadFile(captureReference)
		if err != nil {
			return fmt.Errorf("failed to read reference image: %w", err)
		}
		refMIME = mimeFromPath(captureReference)
	}

	lib, err := library.Open(config.DefaultLibraryDir(), config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open photo library: %w", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			logErrf("failed to close library: %v\n", cerr)
		}
	}()

	provider := &device.SimProvider{Device: device.NewSim(device.SimSpec{})}
	auth := device.NewSimAuthorizer(device.AuthorizationAuthorized, true)
	controller := capture.New(cfg, provider, auth, lib, nil)

	m := tui.NewModel(controller, guidance.NewGemini(), gcfg, reference, refMIME)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
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
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse saved shots",
		Args:  cobra.NoArgs,
		RunE:  runLibraryCmd,
	}
	cmd.Flags().BoolVar(&libraryPlain, "plain", false, "print a plain table instead of the browser")
	cmd.Flags().StringVar(&librarySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&libraryLast, "last", 0, "limit to last N shots")
	return cmd
}

func runLibraryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if librarySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", librarySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	query := model.LibraryQuery{Since: sinceTime, Last: libraryLast}

	lib, err := library.Open(config.DefaultLibraryDir(), config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open photo library: %w", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			logErrf("failed to close library: %v\n", cerr)
		}
	}()

	if libraryPlain {
		shots, err := lib.List(context.Background(), query)
		if err != nil {
			return fmt.Errorf("failed to list shots: %w", err)
		}
		for _, line := range libraryui.FormatShots(shots) {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	m := libraryui.NewModel(lib, query)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run library TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show shooting statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&librarySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&libraryLast, "last", 0, "limit to last N shots")
	cmd.Flags().IntVar(&statsHeight, "height", 0, "plot height in rows")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored plots")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if librarySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", librarySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	query := model.LibraryQuery{Since: sinceTime, Last: libraryLast}

	lib, err := library.Open(config.DefaultLibraryDir(), config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open photo library: %w", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			logErrf("failed to close library: %v\n", cerr)
		}
	}()

	shots, err := lib.List(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to list shots: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := libstats.RenderSummary(out, libstats.Summarize(shots)); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	width := terminalWidth()
	if err := libstats.RenderActivity(out, shots, width, statsHeight, statsColor); err != nil {
		return fmt.Errorf("failed to render activity plot: %w", err)
	}
	if err := libstats.RenderZoomTrend(out, shots, zoomTrendWindow, width, statsHeight, statsColor); err != nil {
		return fmt.Errorf("failed to render zoom plot: %w", err)
	}
	return nil
}

func newGuideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guide <reference> <current>",
		Short: "One-shot repositioning guidance for two images",
		Args:  cobra.ExactArgs(2),
		RunE:  runGuideCmd,
	}
	cmd.Flags().StringVar(&guidanceModel, "model", guidance.DefaultModel, "vision model")
	cmd.Flags().Float64Var(&guidanceTemp, "temperature", defaultTemperature, "vision model temperature")
	return cmd
}

func runGuideCmd(cmd *cobra.Command, args []string) error {
	reference, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read reference image: %w", err)
	}
	current, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read current image: %w", err)
	}

	req := guidance.Request{
		Reference:     reference,
		ReferenceMIME: mimeFromPath(args[0]),
		Capture:       current,
		CaptureMIME:   mimeFromPath(args[1]),
		Model:         guidanceModel,
		Temperature:   guidanceTemp,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	items := guidance.Fetch(ctx, guidance.NewGemini(), req)

	width := terminalWidth()
	for _, item := range items {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s - %s\n", item.Category, item.Direction); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		for _, line := range wrapPlain(item.Detail, width-2) {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func wrapPlain(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{s}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# echosnap configuration
# Uncomment a value to enable it. CLI flags override config values.

[capture]
# max-zoom = %.1f           # App zoom cap (device max still applies)
# zoom-ramp-rate = %.1f     # Zoom ramp rate for animated changes
# focus-clear-ms = %d     # Unlocked focus auto-clear delay
# rotation-settle-ms = %d  # Session restart delay after rotation
# exposure-divisor = %.1f  # Drag-to-bias sensitivity divisor

[guidance]
# model = %q  # Vision model
# temperature = %.1f            # Sampling temperature
# prompt = ""                   # Override the built-in instruction prompt
`,
		defaultMaxZoom,
		defaultZoomRampRate,
		defaultFocusClearMs,
		defaultRotationMs,
		defaultExposureDivisor,
		guidance.DefaultModel,
		defaultTemperature,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.MaxZoom < 1 {
		return fmt.Errorf("--max-zoom must be >= 1")
	}
	if cfg.FocusClearDelay <= 0 {
		return fmt.Errorf("--focus-clear-ms must be > 0")
	}
	if cfg.RotationSettle <= 0 {
		return fmt.Errorf("--rotation-settle-ms must be > 0")
	}
	if cfg.ExposureDivisor <= 0 {
		return fmt.Errorf("--exposure-divisor must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
