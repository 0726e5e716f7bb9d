// Command jniscope replays reference-lifetime scenarios against the simulated
// runtime and reports what the reference tables looked like afterwards.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/scenario"
)

// levelFlag is a pflag.Value accepting slog level names plus "trace".
type levelFlag struct{ level slog.Level }

var _ pflag.Value = (*levelFlag)(nil)

func (f *levelFlag) String() string {
	if f.level == jni.LevelTrace {
		return "trace"
	}
	return strings.ToLower(f.level.String())
}

func (f *levelFlag) Set(s string) error {
	if strings.EqualFold(s, "trace") {
		f.level = jni.LevelTrace
		return nil
	}
	return f.level.UnmarshalText([]byte(s))
}

func (f *levelFlag) Type() string { return "level" }

type logOptions struct {
	level  levelFlag
	format string
}

// logger builds the process logger. "auto" picks text on a terminal and
// JSON otherwise.
func (o *logOptions) logger(w *os.File) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: o.level.level}
	format := o.format
	if format == "auto" {
		format = "json"
		if term.IsTerminal(int(w.Fd())) {
			format = "text"
		}
	}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", o.format)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logs := &logOptions{level: levelFlag{level: slog.LevelWarn}, format: "auto"}
	root := &cobra.Command{
		Use:           "jniscope",
		Short:         "Replay reference-lifetime scenarios against a simulated JVM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Var(&logs.level, "log-level", "log level: trace, debug, info, warn or error")
	root.PersistentFlags().StringVar(&logs.format, "log-format", logs.format, "log format: auto, text or json")

	root.AddCommand(runCommand(ctx, logs), listCommand(), stressCommand(ctx, logs))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func runCommand(ctx context.Context, logs *logOptions) *cobra.Command {
	var (
		pattern string
		format  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run [flags] <scenario-files-or-dirs>...",
		Short: "Run scenarios and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logs.logger(os.Stderr)
			if err != nil {
				return err
			}
			os.Exit(scenario.Run(ctx, scenario.Config{
				Paths:       args,
				NamePattern: pattern,
				Format:      format,
				Verbose:     verbose,
				Logger:      logger,
				Output:      cmd.OutOrStdout(),
				ErrOutput:   cmd.ErrOrStderr(),
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "run", "", "only run scenarios whose \"suite > scenario\" name matches this regex")
	cmd.Flags().StringVar(&format, "format", scenario.FormatText, "output format: text, json or yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print reference table statistics for every scenario")
	return cmd
}

func listCommand() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "list [flags] <scenario-files-or-dirs>...",
		Short: "List scenario names",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(scenario.List(scenario.Config{
				Paths:       args,
				NamePattern: pattern,
				Output:      cmd.OutOrStdout(),
				ErrOutput:   cmd.ErrOrStderr(),
			}))
		},
	}
	cmd.Flags().StringVar(&pattern, "run", "", "only list scenarios whose name matches this regex")
	return cmd
}

func stressCommand(ctx context.Context, logs *logOptions) *cobra.Command {
	var (
		cfg    scenario.StressConfig
		format string
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Share one map between many attached threads and report the tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logs.logger(os.Stderr)
			if err != nil {
				return err
			}
			cfg.Logger = logger
			stats, runErr := scenario.Stress(ctx, cfg)
			if err := writeStats(cmd.OutOrStdout(), format, stats); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().IntVarP(&cfg.Goroutines, "goroutines", "g", 8, "number of attached threads")
	cmd.Flags().IntVarP(&cfg.Iterations, "iterations", "n", 1000, "iterations per thread")
	cmd.Flags().IntVar(&cfg.Entries, "entries", 64, "entries in the shared map")
	cmd.Flags().Int32Var(&cfg.FrameCapacity, "frame-capacity", 16, "capacity of the local frame around each iteration")
	cmd.Flags().IntVar(&cfg.MaxThreads, "max-threads", 0, "limit on attached threads, 0 for none")
	cmd.Flags().StringVar(&format, "format", scenario.FormatYAML, "output format: json or yaml")
	return cmd
}

func writeStats(w io.Writer, format string, stats any) error {
	switch format {
	case scenario.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case scenario.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
