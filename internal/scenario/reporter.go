package scenario

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Reporter.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Summary holds counts over a set of results.
type Summary struct {
	Total  int `json:"total" yaml:"total"`
	Passed int `json:"passed" yaml:"passed"`
	Failed int `json:"failed" yaml:"failed"`
}

// Summarize counts passed and failed results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// Report is the document written by the json and yaml formats.
type Report struct {
	Summary Summary  `json:"summary" yaml:"summary"`
	Results []Result `json:"results" yaml:"results"`
}

// Reporter outputs scenario results. The text format prints each result as
// it arrives; json and yaml print one document at the end.
type Reporter struct {
	Out     io.Writer
	Format  string
	Verbose bool

	results []Result
}

// NewReporter creates a reporter that writes to the given output.
func NewReporter(out io.Writer, format string, verbose bool) *Reporter {
	if format == "" {
		format = FormatText
	}
	return &Reporter{Out: out, Format: format, Verbose: verbose}
}

// ReportResult records the result of a single scenario.
func (r *Reporter) ReportResult(result Result) {
	r.results = append(r.results, result)
	if r.Format != FormatText {
		return
	}
	if result.Passed {
		fmt.Fprintf(r.Out, "PASS: %s (%s)\n", result.Name(), result.Duration)
	} else {
		fmt.Fprintf(r.Out, "FAIL: %s\n", result.Name())
		for _, failure := range result.Failures {
			fmt.Fprintf(r.Out, "  %s\n", failure)
		}
	}
	if r.Verbose {
		s := result.Stats
		fmt.Fprintf(r.Out, "  locals=%d peak=%d globals=%d live=%d allocated=%d collected=%d\n",
			s.LocalRefs, s.PeakLocalRefs, s.GlobalRefs, s.LiveObjects, s.Allocated, s.Collected)
	}
}

// Finish writes the summary, or the whole report for json and yaml.
func (r *Reporter) Finish() error {
	summary := Summarize(r.results)
	switch r.Format {
	case FormatText:
		_, err := fmt.Fprintf(r.Out, "\n%d scenarios, %d passed, %d failed\n", summary.Total, summary.Passed, summary.Failed)
		return err
	case FormatJSON:
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(Report{Summary: summary, Results: r.results})
	case FormatYAML:
		enc := yaml.NewEncoder(r.Out)
		enc.SetIndent(2)
		if err := enc.Encode(Report{Summary: summary, Results: r.results}); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", r.Format)
}
