package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
)

// Config holds the configuration for a run.
type Config struct {
	Paths       []string
	NamePattern string // Go regex matched against "suite > scenario"
	Format      string
	Verbose     bool
	Logger      *slog.Logger
	Output      io.Writer
	ErrOutput   io.Writer
}

func (cfg Config) filter() (func(string) bool, error) {
	if cfg.NamePattern == "" {
		return func(string) bool { return true }, nil
	}
	re, err := regexp.Compile(cfg.NamePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re.MatchString, nil
}

// load parses every scenario file under cfg.Paths and drops the scenarios
// the name pattern does not match.
func (cfg Config) load() ([]*Suite, error) {
	match, err := cfg.filter()
	if err != nil {
		return nil, err
	}
	files, err := CollectFiles(cfg.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no scenario files found")
	}

	suites := make([]*Suite, 0, len(files))
	for _, file := range files {
		suite, err := ParseFile(file)
		if err != nil {
			return nil, err
		}
		kept := suite.Scenarios[:0]
		for _, sc := range suite.Scenarios {
			if match(suite.Name + " > " + sc.Name) {
				kept = append(kept, sc)
			}
		}
		suite.Scenarios = kept
		suites = append(suites, suite)
	}
	return suites, nil
}

// List prints all scenario names from the configured paths, one per line.
// Returns 0 on success, 1 on error.
func List(cfg Config) int {
	suites, err := cfg.load()
	if err != nil {
		fmt.Fprintf(cfg.ErrOutput, "error: %v\n", err)
		return 1
	}
	for _, suite := range suites {
		for _, sc := range suite.Scenarios {
			fmt.Fprintf(cfg.Output, "%s > %s\n", suite.Name, sc.Name)
		}
	}
	return 0
}

// Run runs every matching scenario and reports the results. Returns 0 if
// all passed, 1 otherwise.
func Run(ctx context.Context, cfg Config) int {
	suites, err := cfg.load()
	if err != nil {
		fmt.Fprintf(cfg.ErrOutput, "error: %v\n", err)
		return 1
	}

	runner := NewRunner(cfg.Logger)
	reporter := NewReporter(cfg.Output, cfg.Format, cfg.Verbose)
	failed := 0
	for _, suite := range suites {
		for _, result := range runner.RunSuite(ctx, suite) {
			if !result.Passed {
				failed++
			}
			reporter.ReportResult(result)
		}
	}
	if err := reporter.Finish(); err != nil {
		fmt.Fprintf(cfg.ErrOutput, "error: %v\n", err)
		return 1
	}
	if failed > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}
