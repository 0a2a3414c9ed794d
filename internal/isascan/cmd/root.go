package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"isascan/internal/analysis"
	"isascan/internal/container"
	"isascan/internal/isascan/log"
	"isascan/internal/ui/colorize"
)

func init() {
	addScanFlags(rootCmd)
	rootCmd.AddCommand(listCmd, logsCmd, schemaCmd)
}

// addScanFlags declares the flags read by configFromFlags.
func addScanFlags(c *cobra.Command) {
	c.Flags().BoolP("help", "h", false, "Help")
	c.Flags().BoolP("stats", "s", false, "Count instructions per feature")
	c.Flags().BoolP("details", "d", false, "List every instruction per feature with its offset")
	c.Flags().BoolP("verbose", "v", false, "Print the container format and code regions")
	c.Flags().BoolP("quiet", "q", false, "Print only the result")
	c.Flags().BoolP("json", "j", false, "Output the report as JSON")
	c.Flags().BoolP("markdown", "m", false, "Output the report as markdown")
	c.Flags().IntP("parallel", "p", 0, "Regions decoded at once (0: GOMAXPROCS)")
	c.Flags().Bool("no-demangle-cache", false, "Demangle symbol names on every lookup")
	c.Flags().Bool("debug", false, "Debug logging")
	c.Flags().String("cpuprofile", "", "Write CPU profile to file")
	c.Flags().String("memprofile", "", "Write memory profile to file")
	c.MarkFlagsMutuallyExclusive("stats", "details")
	c.MarkFlagsMutuallyExclusive("json", "markdown")
	c.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

var rootCmd = &cobra.Command{
	Use:   "isascan [file]",
	Short: "Report the x86 instruction-set extensions an executable uses",
	Long: `isascan decodes the machine code of an ELF, PE or Mach-O executable without
running it and reports which x86 instruction-set extensions (SSE, AVX, AVX-512,
BMI, FMA, AES-NI, SHA, ...) it contains, together with the x86-64
microarchitecture level it requires.`,
	Example: `
# Features used by a binary
isascan /usr/bin/ffmpeg

# Instruction counts per feature
isascan -s /usr/bin/ffmpeg

# Every AVX-512 instruction with its offset, as JSON
isascan -d -j ./libfoo.so
  `,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		log.Setup(cfg.Debug)

		if cfg.CPUProfile != "" {
			f, err := os.Create(cfg.CPUProfile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		if cfg.MemProfile != "" {
			defer func() {
				f, err := os.Create(cfg.MemProfile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		return scan(cmd.Context(), cmd.OutOrStdout(), args[0], cfg)
	},
}

// configFromFlags collects the root command flags into a Config.
func configFromFlags(cmd *cobra.Command) (Config, error) {
	var cfg Config
	flags := cmd.Flags()
	stats, _ := flags.GetBool("stats")
	details, _ := flags.GetBool("details")
	switch {
	case details:
		cfg.Mode = analysis.ModeDetails
	case stats:
		cfg.Mode = analysis.ModeStats
	}
	cfg.Verbose, _ = flags.GetBool("verbose")
	cfg.Quiet, _ = flags.GetBool("quiet")
	cfg.Format = FormatText
	if j, _ := flags.GetBool("json"); j {
		cfg.Format = FormatJSON
	}
	if m, _ := flags.GetBool("markdown"); m {
		cfg.Format = FormatMarkdown
	}
	cfg.Parallelism, _ = flags.GetInt("parallel")
	if cfg.Parallelism < 0 {
		return cfg, fmt.Errorf("--parallel must not be negative, got %d", cfg.Parallelism)
	}
	cfg.NoDemangleCache, _ = flags.GetBool("no-demangle-cache")
	cfg.Debug, _ = flags.GetBool("debug")
	cfg.CPUProfile, _ = flags.GetString("cpuprofile")
	cfg.MemProfile, _ = flags.GetString("memprofile")
	return cfg, nil
}

// scan opens path, analyzes its code regions and writes the report to w.
func scan(ctx context.Context, w io.Writer, path string, cfg Config) error {
	bin, err := container.Open(path)
	if err != nil {
		return err
	}
	defer bin.Close()
	slog.Debug("opened binary",
		"path", path,
		"format", bin.Format,
		"arch", bin.Arch,
		"regions", len(bin.Regions),
		"code_bytes", bin.CodeSize(),
		"symbols", len(bin.Symbols),
	)

	analysis.SetDemangleCache(!cfg.NoDemangleCache)
	opts := []analysis.Option{analysis.WithSymbols(bin)}
	if cfg.Parallelism > 0 {
		opts = append(opts, analysis.WithParallelism(cfg.Parallelism))
	}
	run := func(ctx context.Context) (*analysis.Report, error) {
		return analysis.Analyze(ctx, bin.Regions, cfg.Mode, opts...)
	}

	var report *analysis.Report
	if showProgress(cfg) {
		report, err = runWithProgress(ctx, path, run)
	} else {
		report, err = run(ctx)
	}
	if err != nil {
		return err
	}
	if entries, hits := analysis.DemangleCacheStats(); entries > 0 {
		slog.Debug("demangle cache", "entries", entries, "hits", hits)
	}

	color := isTerminal(w) && colorize.Enabled()
	return render(w, path, bin, report, cfg, color)
}

// showProgress reports whether a spinner may be drawn on stderr.
func showProgress(cfg Config) bool {
	return !cfg.Quiet && cfg.Format == FormatText && term.IsTerminal(os.Stderr.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	err := execute()
	if cerr := log.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "could not close log: %v\n", cerr)
	}
	if err == nil {
		return
	}
	// Cancellation exits with the conventional 130.
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	os.Exit(1)
}

func execute() error {
	// Bypass fang when output is piped so reports stay free of its styling.
	if !term.IsTerminal(os.Stdout.Fd()) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := rootCmd.ExecuteContext(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	)
}
