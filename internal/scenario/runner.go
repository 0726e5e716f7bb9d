package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/simjvm"
)

// Result is the outcome of one scenario.
type Result struct {
	Suite    string        `json:"suite" yaml:"suite"`
	Scenario string        `json:"scenario" yaml:"scenario"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Failures []string      `json:"failures,omitempty" yaml:"failures,omitempty"`
	Stats    simjvm.Stats  `json:"stats" yaml:"stats"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Name returns "suite > scenario".
func (r Result) Name() string {
	return r.Suite + " > " + r.Scenario
}

// Runner runs scenarios, each on a fresh simulated runtime.
type Runner struct {
	Logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards everything.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Logger: logger}
}

// RunSuite runs every scenario in the suite.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) []Result {
	results := make([]Result, 0, len(suite.Scenarios))
	for _, sc := range suite.Scenarios {
		res := r.RunScenario(ctx, suite.Runtime, sc)
		res.Suite = suite.Name
		results = append(results, res)
	}
	return results
}

// RunScenario runs a single scenario on a fresh runtime.
func (r *Runner) RunScenario(ctx context.Context, rt Runtime, sc Scenario) Result {
	result := Result{Scenario: sc.Name, Passed: true}
	start := time.Now()

	var opts []simjvm.Option
	opts = append(opts, simjvm.WithLogger(r.Logger))
	if rt.LocalCapacity > 0 {
		opts = append(opts, simjvm.WithLocalCapacity(rt.LocalCapacity))
	}
	if rt.MaxLocals > 0 {
		opts = append(opts, simjvm.WithMaxLocals(rt.MaxLocals))
	}
	sim := simjvm.New(opts...)
	vm := jni.NewJavaVM(sim, jni.WithLogger(r.Logger))

	fail := func(format string, args ...any) {
		result.Passed = false
		result.Failures = append(result.Failures, fmt.Sprintf(format, args...))
	}

	err := vm.WithEnv(func(env *jni.Env) error {
		st := newState(sim, env)
		defer st.release()

		if err := st.run(ctx, sc.Setup); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		if err := r.runSteps(ctx, vm, st, sc); err != nil {
			return err
		}
		// Checked while the scenario's own references are still held.
		result.Stats = sim.Stats()
		for _, msg := range sc.Expect.check(result.Stats) {
			fail("%s", msg)
		}
		return nil
	})
	if err != nil {
		fail("%v", err)
		if result.Stats.Calls == nil {
			result.Stats = sim.Stats()
		}
	}

	result.Duration = time.Since(start)
	r.Logger.Debug("scenario finished",
		slog.String("scenario", sc.Name),
		slog.Bool("passed", result.Passed),
		slog.Duration("duration", result.Duration))
	return result
}

// runSteps runs sc.Steps on the calling thread, or on sc.Threads attached
// threads at once.
func (r *Runner) runSteps(ctx context.Context, vm *jni.JavaVM, main *state, sc Scenario) error {
	if sc.Threads <= 1 {
		return main.run(ctx, sc.Steps)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range sc.Threads {
		// Clones are made here, on the thread that owns the originals.
		forked := main.fork()
		g.Go(func() error {
			return vm.WithEnv(func(env *jni.Env) error {
				forked.env = env
				defer forked.release()
				if err := forked.run(ctx, sc.Steps); err != nil {
					return fmt.Errorf("thread %d: %w", i+1, err)
				}
				return nil
			})
		})
	}
	return g.Wait()
}

func (e Expect) check(stats simjvm.Stats) []string {
	var failures []string
	checks := []struct {
		name string
		want *int
		got  int
		max  bool
	}{
		{"local refs", e.LocalRefs, stats.LocalRefs, false},
		{"global refs", e.GlobalRefs, stats.GlobalRefs, false},
		{"peak local refs", e.MaxPeakLocalRefs, stats.PeakLocalRefs, true},
		{"threads", e.Threads, stats.Threads, false},
	}
	for _, c := range checks {
		switch {
		case c.want == nil:
		case c.max && c.got > *c.want:
			failures = append(failures, fmt.Sprintf("%s: got %d, want at most %d", c.name, c.got, *c.want))
		case !c.max && c.got != *c.want:
			failures = append(failures, fmt.Sprintf("%s: got %d, want %d", c.name, c.got, *c.want))
		}
	}
	return failures
}
