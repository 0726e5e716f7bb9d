package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/simjvm"
)

// StressConfig sizes a stress run.
type StressConfig struct {
	Goroutines int
	Iterations int
	Entries    int
	// FrameCapacity is the local frame each iteration runs in.
	FrameCapacity int32
	// MaxThreads limits how many threads may be attached at once. Zero means
	// no limit.
	MaxThreads int
	Logger     *slog.Logger
}

// ErrLeak is returned by Stress when references outlive the run.
var ErrLeak = errors.New("references leaked")

// Stress shares one map between goroutines through clones of a single global
// reference. Every goroutine attaches its own thread and repeatedly reads,
// writes and removes entries inside local frames. The runtime is collected
// once all goroutines have finished and the global is dropped.
//
// The returned stats are taken at the end. Stress fails with ErrLeak if any
// local or global reference is still live then.
func Stress(ctx context.Context, cfg StressConfig) (simjvm.Stats, error) {
	cfg.Goroutines = max(cfg.Goroutines, 1)
	cfg.Entries = max(cfg.Entries, 1)
	if cfg.FrameCapacity <= 0 {
		cfg.FrameCapacity = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sim := simjvm.New(simjvm.WithLogger(cfg.Logger), simjvm.WithMaxThreads(cfg.MaxThreads))
	vm := jni.NewJavaVM(sim, jni.WithLogger(cfg.Logger))

	shared, err := stressSetup(vm, cfg.Entries)
	if err != nil {
		return sim.Stats(), err
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Goroutines {
		ref := shared.Clone()
		g.Go(func() error {
			return vm.WithEnv(func(env *jni.Env) error {
				defer ref.Drop()
				return stressWorker(ctx, env, ref, w, cfg)
			})
		})
	}
	werr := g.Wait()
	derr := dropShared(vm, shared)

	sim.Collect()
	stats := sim.Stats()
	if err := errors.Join(werr, derr); err != nil {
		return stats, err
	}
	if stats.LocalRefs != 0 || stats.GlobalRefs != 0 {
		return stats, fmt.Errorf("%w: %d local, %d global", ErrLeak, stats.LocalRefs, stats.GlobalRefs)
	}
	return stats, nil
}

// dropShared drops the last handle on an attached thread so the delete is
// direct. When the thread cannot be attached the handle is still dropped,
// through the detached path, and the attach error is returned.
func dropShared(vm *jni.JavaVM, shared *jni.GlobalRef) error {
	err := vm.WithEnv(func(*jni.Env) error {
		shared.Drop()
		return nil
	})
	shared.Drop()
	return err
}

// stressSetup creates the shared map, fills it with "k<i>" -> "v<i>" and
// returns it as a global reference.
func stressSetup(vm *jni.JavaVM, entries int) (*jni.GlobalRef, error) {
	var shared *jni.GlobalRef
	err := vm.WithEnv(func(env *jni.Env) error {
		st := newState(nil, env)
		defer st.release()
		if err := st.newMap("shared"); err != nil {
			return err
		}
		for i := range entries {
			n := strconv.Itoa(i)
			if err := st.mapOp(Step{Op: "put", Map: "shared", Key: "k" + n, Value: "v" + n}); err != nil {
				return err
			}
		}
		g, err := env.NewGlobalRef(st.maps["shared"].Object())
		if err != nil {
			return err
		}
		shared = g
		return nil
	})
	return shared, err
}

func stressWorker(ctx context.Context, env *jni.Env, ref *jni.GlobalRef, worker int, cfg StressConfig) error {
	m, err := jni.NewMap(env, ref.Object())
	if err != nil {
		return err
	}
	defer m.Release()
	st := newState(nil, env)
	st.maps["shared"] = m

	for i := range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := strconv.Itoa(i % cfg.Entries)
		want := "v" + n
		private := fmt.Sprintf("w%d-%d", worker, i)

		_, err := env.WithLocalFrame(cfg.FrameCapacity, func() (jni.Object, error) {
			if err := st.mapOp(Step{Op: "get", Map: "shared", Key: "k" + n, Want: &want}); err != nil {
				return jni.Null(), err
			}
			if err := st.mapOp(Step{Op: "put", Map: "shared", Key: private, Value: n, Absent: true}); err != nil {
				return jni.Null(), err
			}
			return jni.Null(), st.mapOp(Step{Op: "remove", Map: "shared", Key: private, Want: &n})
		})
		if err != nil {
			return fmt.Errorf("worker %d, iteration %d: %w", worker, i, err)
		}
	}
	return nil
}
